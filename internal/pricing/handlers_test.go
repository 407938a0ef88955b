package pricing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuoteHandlerWorkedExample(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/pricing/quote", strings.NewReader(`{"shape":"SQUARE","width":30,"height":40}`))
	rr := httptest.NewRecorder()
	Handler{}.QuoteHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"price":3800`)
	require.Contains(t, rr.Body.String(), `"valid":true`)
}

func TestQuoteHandlerInvalidDimensions(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/pricing/quote", strings.NewReader(`{"shape":"CYLINDER","diameter":0,"height":50}`))
	rr := httptest.NewRecorder()
	Handler{}.QuoteHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"valid":false`)
}

func TestQuoteHandlerUnknownShape(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/pricing/quote", strings.NewReader(`{"shape":"SPHERE","width":10,"height":10}`))
	rr := httptest.NewRecorder()
	Handler{}.QuoteHandler(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION_ERROR")
}
