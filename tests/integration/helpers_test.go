package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/tests/testutil"
	"github.com/stretchr/testify/require"
)

// apiResponse is the common success and error envelope
type apiResponse struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Code       string          `json:"code"`
	Pagination *struct {
		Total int `json:"total"`
	} `json:"pagination"`
}

func doRequest(router *gin.Engine, method, url string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	testutil.ApplyHeaders(req, headers)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// decodeData unmarshals the data member of a successful response into dst
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	resp := decodeEnvelope(t, w)
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func merge(a, b map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// cartLine is the single line returned by POST /cart
type cartLine struct {
	ID             uint  `json:"id"`
	ProductID      uint  `json:"product_id"`
	ProductColorID *uint `json:"product_color_id"`
	Quantity       int   `json:"quantity"`
}

type cartView struct {
	Items []struct {
		ID        uint   `json:"id"`
		ProductID uint   `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Price     string `json:"price"`
	} `json:"items"`
	ItemCount int    `json:"item_count"`
	Subtotal  string `json:"subtotal"`
}

type orderView struct {
	ID          uint   `json:"id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Total       string `json:"total"`
	Items       []struct {
		ProductName string `json:"product_name"`
		Quantity    int    `json:"quantity"`
	} `json:"items"`
	Customer map[string]interface{} `json:"customer"`
	Address  map[string]interface{} `json:"address"`
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
