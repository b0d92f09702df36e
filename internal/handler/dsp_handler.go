package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"dspgateway/internal/auth"
	apperrors "dspgateway/internal/errors"
	"dspgateway/internal/service"
)

// DSPHandler proxies authenticated queries to the internal DSP upstream.
type DSPHandler struct {
	proxy service.ProxyService
}

// NewDSPHandler creates a new DSP proxy handler.
func NewDSPHandler(proxy service.ProxyService) *DSPHandler {
	return &DSPHandler{proxy: proxy}
}

// QueryRequest represents a DSP query. Extras is relayed verbatim; its
// contents are not validated here.
type QueryRequest struct {
	Query  string                 `json:"query" validate:"required"`
	Extras map[string]interface{} `json:"extras,omitempty"`
}

// Query godoc
// @Summary Relay a query to the DSP upstream
// @Tags dsp
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body QueryRequest true "Query payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ProxyError
// @Failure 401 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ProxyError
// @Failure 504 {object} errors.ProxyError
// @Router /dsp/query [post]
func (h *DSPHandler) Query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.proxy.Forward(c.Request().Context(), req.Query, req.Extras, auth.CurrentSubject(c))
	if err != nil {
		var proxyErr *apperrors.ProxyError
		if errors.As(err, &proxyErr) {
			return c.JSON(proxyErr.StatusCode, proxyErr)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to query DSP upstream",
			Code:  "PROXY_FAILED",
		})
	}

	return c.JSON(http.StatusOK, result)
}
