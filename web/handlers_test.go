package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/fxboard/board"
	"github.com/infigaming-com/fxboard/crossrate"
	"github.com/infigaming-com/fxboard/rate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBoardService struct {
	err       error
	lastBase  string
	lastQuote [2]string
}

func (f *fakeBoardService) Board(_ context.Context, base string) (*board.Board, error) {
	f.lastBase = base
	if f.err != nil {
		return nil, f.err
	}
	return &board.Board{
		Base: base,
		Pinned: []crossrate.CrossRate{
			{Currency: "USD", Denomination: 1, Rate: decimal.RequireFromString("90.865385")},
		},
		Remainder: []crossrate.CrossRate{},
		Sources:   []board.SourceInfo{{Source: rate.SourceUnionPay, Available: true}},
	}, nil
}

func (f *fakeBoardService) Rate(_ context.Context, base, target string) (*board.Quote, error) {
	f.lastQuote = [2]string{base, target}
	if f.err != nil {
		return nil, f.err
	}
	return &board.Quote{Base: base, Target: target, Rate: decimal.RequireFromString("0.144643")}, nil
}

func newTestServer(svc BoardService) *Server {
	h := NewRatesHandler(zap.NewNop(), svc)
	return NewServer(zap.NewNop(),
		WithMode(gin.TestMode),
		WithRoutes(func(r *gin.Engine) {
			h.Register(r.Group("/api/v1"))
		}),
	)
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthcheck(t *testing.T) {
	s := newTestServer(&fakeBoardService{})

	w := get(s, "/healthcheck")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, get(s, "/").Code)
}

func TestGetBoard(t *testing.T) {
	svc := &fakeBoardService{}
	s := newTestServer(svc)

	w := get(s, "/api/v1/rates")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RUB", svc.lastBase)

	var body struct {
		Base   string `json:"base"`
		Pinned []struct {
			Currency string `json:"currency"`
			Rate     string `json:"rate"`
		} `json:"pinned"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "RUB", body.Base)
	require.Len(t, body.Pinned, 1)
	assert.Equal(t, "90.865385", body.Pinned[0].Rate)

	get(s, "/api/v1/rates?base=usd")
	assert.Equal(t, "USD", svc.lastBase)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   int64
	}{
		{crossrate.ErrDataUnavailable, http.StatusServiceUnavailable, crossrate.ErrCodeDataUnavailable},
		{crossrate.ErrUnsupportedBase.Wrap(fmt.Errorf("XXX")), http.StatusBadRequest, crossrate.ErrCodeUnsupportedBase},
		{board.ErrPairUnavailable, http.StatusNotFound, board.ErrCodePairUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := newTestServer(&fakeBoardService{err: tt.err})
			w := get(s, "/api/v1/rates?base=RUB")
			assert.Equal(t, tt.status, w.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestDataUnavailableBody(t *testing.T) {
	s := newTestServer(&fakeBoardService{err: crossrate.ErrDataUnavailable})
	w := get(s, "/api/v1/rate?base=USD&target=CNY")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"code":%d,"message":"rates unavailable"}`, crossrate.ErrCodeDataUnavailable), w.Body.String())
}

func TestGetRate(t *testing.T) {
	svc := &fakeBoardService{}
	s := newTestServer(svc)

	w := get(s, "/api/v1/rate?base=usd&target=cny")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [2]string{"USD", "CNY"}, svc.lastQuote)
	assert.Contains(t, w.Body.String(), `"rate":"0.144643"`)

	w = get(s, "/api/v1/rate?base=USD")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportBoard(t *testing.T) {
	s := newTestServer(&fakeBoardService{})

	w := get(s, "/api/v1/rates/export?format=csv&base=RUB")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="rates-RUB.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "Currency,Units,UnionPay (RUB),CBR (RUB),Group\n"))

	w = get(s, "/api/v1/rates/export?format=pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	w = get(s, "/api/v1/rates/export?format=docx")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
