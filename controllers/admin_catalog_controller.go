package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/services"
)

func catalog() *services.CatalogService {
	return services.NewCatalogService(config.GetDB())
}

// AdminListSections handles GET /api/v1/admin/sections
func AdminListSections(c *gin.Context) {
	sections, err := catalog().ListSections(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sections)
}

// AdminGetSection handles GET /api/v1/admin/sections/:id
func AdminGetSection(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	section, err := catalog().GetSection(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, section)
}

// AdminCreateSection handles POST /api/v1/admin/sections
func AdminCreateSection(c *gin.Context) {
	var req services.SectionInput
	if !bindJSON(c, &req) {
		return
	}
	section, err := catalog().CreateSection(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, section)
}

// AdminUpdateSection handles PUT /api/v1/admin/sections/:id
func AdminUpdateSection(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.SectionUpdate
	if !bindJSON(c, &req) {
		return
	}
	section, err := catalog().UpdateSection(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, section)
}

// AdminDeleteSection handles DELETE /api/v1/admin/sections/:id
func AdminDeleteSection(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := catalog().DeleteSection(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// AdminListCategories handles GET /api/v1/admin/categories, optionally ?section_id=
func AdminListCategories(c *gin.Context) {
	var sectionID uint
	if raw := c.Query("section_id"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			sectionID = uint(v)
		}
	}
	categories, err := catalog().ListCategories(c.Request.Context(), sectionID, false)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, categories)
}

// AdminGetCategory handles GET /api/v1/admin/categories/:id
func AdminGetCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	category, err := catalog().GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, category)
}

// AdminCreateCategory handles POST /api/v1/admin/categories. The section must already exist.
func AdminCreateCategory(c *gin.Context) {
	var req services.CategoryInput
	if !bindJSON(c, &req) {
		return
	}
	category, err := catalog().CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, category)
}

// AdminUpdateCategory handles PUT /api/v1/admin/categories/:id
func AdminUpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.CategoryUpdate
	if !bindJSON(c, &req) {
		return
	}
	category, err := catalog().UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, category)
}

// AdminDeleteCategory handles DELETE /api/v1/admin/categories/:id
func AdminDeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := catalog().DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// AdminListProducts handles GET /api/v1/admin/products, including inactive products
func AdminListProducts(c *gin.Context) {
	page, limit := pageParams(c)
	var categoryID uint
	if raw := c.Query("category_id"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			categoryID = uint(v)
		}
	}
	products, total, err := catalog().ListProducts(c.Request.Context(), services.ProductFilter{
		CategoryID:      categoryID,
		Featured:        queryBool(c, "featured"),
		Query:           c.Query("q"),
		Page:            page,
		Limit:           limit,
		IncludeInactive: true,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, products, page, limit, total)
}

// AdminGetProduct handles GET /api/v1/admin/products/:id
func AdminGetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := catalog().GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}

// AdminCreateProduct handles POST /api/v1/admin/products
func AdminCreateProduct(c *gin.Context) {
	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}
	product, err := catalog().CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, product)
}

// AdminUpdateProduct handles PUT /api/v1/admin/products/:id
func AdminUpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.ProductUpdate
	if !bindJSON(c, &req) {
		return
	}
	product, err := catalog().UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}

// AdminDeleteProduct handles DELETE /api/v1/admin/products/:id. Hosted images are
// removed after the rows are gone.
func AdminDeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	publicIDs, err := catalog().DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	services.PurgeImages(c.Request.Context(), services.GetImageService(), publicIDs...)
	respondOK(c, gin.H{"deleted": true})
}

// AdminAddColor handles POST /api/v1/admin/products/:id/colors
func AdminAddColor(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.ColorInput
	if !bindJSON(c, &req) {
		return
	}
	color, err := catalog().AddColor(c.Request.Context(), productID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, color)
}

// AdminUpdateColor handles PUT /api/v1/admin/products/:id/colors/:colorId
func AdminUpdateColor(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	colorID, ok := paramID(c, "colorId")
	if !ok {
		return
	}
	var req services.ColorUpdate
	if !bindJSON(c, &req) {
		return
	}
	color, err := catalog().UpdateColor(c.Request.Context(), productID, colorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, color)
}

// AdminDeleteColor handles DELETE /api/v1/admin/products/:id/colors/:colorId
func AdminDeleteColor(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	colorID, ok := paramID(c, "colorId")
	if !ok {
		return
	}
	publicIDs, err := catalog().DeleteColor(c.Request.Context(), productID, colorID)
	if err != nil {
		respondError(c, err)
		return
	}
	services.PurgeImages(c.Request.Context(), services.GetImageService(), publicIDs...)
	respondOK(c, gin.H{"deleted": true})
}
