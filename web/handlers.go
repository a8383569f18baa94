package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/fxboard/board"
	"github.com/infigaming-com/fxboard/crossrate"
	fxerrors "github.com/infigaming-com/fxboard/errors"
	"github.com/infigaming-com/fxboard/rate"
	"github.com/infigaming-com/fxboard/reports"
	"go.uber.org/zap"
)

const DefaultBase = rate.RUB

// BoardService is what the rate handlers read from.
type BoardService interface {
	Board(ctx context.Context, base string) (*board.Board, error)
	Rate(ctx context.Context, base, target string) (*board.Quote, error)
}

type errorResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type RatesHandler struct {
	lg          *zap.Logger
	svc         BoardService
	defaultBase string
	reportOpts  []reports.ReportOption
}

type HandlerOption func(*RatesHandler)

func WithDefaultBase(base string) HandlerOption {
	return func(h *RatesHandler) {
		if base = rate.NormalizeCode(base); base != "" {
			h.defaultBase = base
		}
	}
}

func WithReportOptions(opts ...reports.ReportOption) HandlerOption {
	return func(h *RatesHandler) {
		h.reportOpts = append(h.reportOpts, opts...)
	}
}

func NewRatesHandler(lg *zap.Logger, svc BoardService, opts ...HandlerOption) *RatesHandler {
	h := &RatesHandler{lg: lg, svc: svc, defaultBase: DefaultBase}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the rate routes on r, usually the /api/v1 group.
func (h *RatesHandler) Register(r gin.IRouter) {
	r.GET("/rates", h.getBoard)
	r.GET("/rates/export", h.exportBoard)
	r.GET("/rate", h.getRate)
}

func (h *RatesHandler) base(c *gin.Context) string {
	if base := rate.NormalizeCode(c.Query("base")); base != "" {
		return base
	}
	return h.defaultBase
}

func (h *RatesHandler) getBoard(c *gin.Context) {
	b, err := h.svc.Board(c.Request.Context(), h.base(c))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *RatesHandler) exportBoard(c *gin.Context) {
	format, err := reports.ParseFormat(c.Query("format"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	b, err := h.svc.Board(c.Request.Context(), h.base(c))
	if err != nil {
		h.abort(c, err)
		return
	}

	content, ext, err := reports.GenerateBoardReport(format, b, h.reportOpts...)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="rates-%s.%s"`, b.Base, ext))
	c.Data(http.StatusOK, format.ContentType(), content)
}

func (h *RatesHandler) getRate(c *gin.Context) {
	target := rate.NormalizeCode(c.Query("target"))
	if target == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Message: "target is required"})
		return
	}

	q, err := h.svc.Rate(c.Request.Context(), h.base(c), target)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *RatesHandler) abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, crossrate.ErrDataUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, crossrate.ErrUnsupportedBase):
		status = http.StatusBadRequest
	case errors.Is(err, board.ErrPairUnavailable):
		status = http.StatusNotFound
	}

	resp := errorResponse{Code: int64(status), Message: http.StatusText(status)}
	var appErr *fxerrors.Error
	if errors.As(err, &appErr) {
		resp = errorResponse{Code: appErr.Code, Message: appErr.Message}
	}
	if status >= http.StatusInternalServerError {
		h.lg.Error("rate request failed", zap.String("path", c.Request.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, resp)
}
