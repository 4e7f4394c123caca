package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/services"
)

// UploadProductImage handles POST /api/v1/admin/products/:id/colors/:colorId/images.
// Expects a multipart "image" field; the first image of a color becomes its primary image.
func UploadProductImage(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	colorID, ok := paramID(c, "colorId")
	if !ok {
		return
	}

	images := services.GetImageService()
	if images == nil {
		respondFailure(c, http.StatusServiceUnavailable, "IMAGE_STORAGE_UNAVAILABLE", "Image storage is not configured")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the 'image' field")
		return
	}

	// Fail before uploading when the color does not belong to the product
	if _, err := catalog().GetColor(c.Request.Context(), productID, colorID); err != nil {
		respondError(c, err)
		return
	}

	asset, err := images.UploadProductImage(c.Request.Context(), productID, fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	image, err := catalog().AddImage(c.Request.Context(), productID, colorID, asset)
	if err != nil {
		services.PurgeImages(c.Request.Context(), images, asset.PublicID)
		respondError(c, err)
		return
	}

	zlog.Info().Uint("product_id", productID).Uint("color_id", colorID).Str("public_id", asset.PublicID).Msg("product image uploaded")
	respondCreated(c, image)
}

// SetPrimaryProductImage handles PUT /api/v1/admin/products/:id/colors/:colorId/images/:imageId/primary
func SetPrimaryProductImage(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	colorID, ok := paramID(c, "colorId")
	if !ok {
		return
	}
	imageID, ok := paramID(c, "imageId")
	if !ok {
		return
	}

	image, err := catalog().SetPrimaryImage(c.Request.Context(), productID, colorID, imageID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, image)
}

// DeleteProductImage handles DELETE /api/v1/admin/products/:id/colors/:colorId/images/:imageId
func DeleteProductImage(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	colorID, ok := paramID(c, "colorId")
	if !ok {
		return
	}
	imageID, ok := paramID(c, "imageId")
	if !ok {
		return
	}

	publicID, err := catalog().DeleteImage(c.Request.Context(), productID, colorID, imageID)
	if err != nil {
		respondError(c, err)
		return
	}
	services.PurgeImages(c.Request.Context(), services.GetImageService(), publicID)
	respondOK(c, gin.H{"deleted": true})
}
