package pricing

import (
	"encoding/json"
	"net/http"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
	"github.com/wallaby-factory/ec-site-sub001/internal/obs"
)

// Handler exposes the quote preview used by the bag configurator.
type Handler struct{}

type quoteRequest struct {
	Shape string `json:"shape"`
	Dimensions
}

// QuoteHandler handles POST /pricing/quote. Anonymous and side-effect free.
func (Handler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	shape, err := ParseShape(req.Shape)
	if err != nil {
		recordQuote(req.Shape, "unknown_shape")
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	price, err := Quote(shape, req.Dimensions)
	if err != nil {
		recordQuote(string(shape), "error")
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if price == 0 {
		recordQuote(string(shape), "invalid_dimensions")
		common.JSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"shape": shape, "price": 0, "valid": false},
		})
		return
	}
	recordQuote(string(shape), "ok")
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"shape": shape, "price": price, "valid": true},
	})
}

func recordQuote(shape, result string) {
	if obs.QuoteRequestsTotal != nil {
		obs.QuoteRequestsTotal.WithLabelValues(shape, result).Inc()
	}
}
