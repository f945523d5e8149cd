package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/transport/gemini"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ChartHandler struct {
	chartSvs ChartServicer
}

func NewChartHandler(chartSvs ChartServicer) *ChartHandler {
	return &ChartHandler{chartSvs: chartSvs}
}

// ChartInputParams запрос юзера подставляется в промпт, поэтому ограничен по размеру в байтах.
type ChartInputParams struct {
	Input string `json:"input" binding:"required,max_bytes=4000"`
}

type ChartDataParams struct {
	Input string `json:"input" binding:"required,max_bytes=4000"`
	Chart string `json:"chart" binding:"required,chart_type"`
}

type ChartTypeResponse struct {
	Type domain.ChartType `json:"type"`
}

type ChartSourceResponse struct {
	Source string `json:"source"`
}

type ChartResponse struct {
	Type    domain.ChartType `json:"type"`
	Data    json.RawMessage  `json:"data"`
	Source  string           `json:"source"`
	Credits int64            `json:"credits"`
}

// Generate POST RouteGroup + ChartsRoute. Полный цикл генерации, стоит кредит.
func (h *ChartHandler) Generate(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params ChartInputParams
	if !bindJSON(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultChartTimeout)
	defer cancel()

	res, err := h.chartSvs.Generate(reqCtx, currentUserID, params.Input)
	if err != nil {
		abortWithChartError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChartResponse{
		Type:    res.Chart.Type,
		Data:    res.Chart.Data,
		Source:  res.Chart.Source,
		Credits: res.Credits,
	})
}

// Type POST RouteGroup + ChartTypeRoute.
func (h *ChartHandler) Type(c *gin.Context) {
	var params ChartInputParams
	if !bindJSON(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultChartStepTimeout)
	defer cancel()

	chartType, err := h.chartSvs.DetectType(reqCtx, params.Input)
	if err != nil {
		abortWithChartError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChartTypeResponse{Type: chartType})
}

// Data POST RouteGroup + ChartDataRoute. Отдает датасет как JSON массив.
func (h *ChartHandler) Data(c *gin.Context) {
	var params ChartDataParams
	if !bindJSON(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultChartStepTimeout)
	defer cancel()

	data, err := h.chartSvs.ExtractDataset(reqCtx, params.Input, params.Chart)
	if err != nil {
		abortWithChartError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Source POST RouteGroup + ChartSourceRoute.
func (h *ChartHandler) Source(c *gin.Context) {
	var params ChartInputParams
	if !bindJSON(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultChartStepTimeout)
	defer cancel()

	source, err := h.chartSvs.ExtractSource(reqCtx, params.Input)
	if err != nil {
		abortWithChartError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChartSourceResponse{Source: source})
}

// bindJSON разбирает тело запроса. Невалидный JSON дает 400, ошибки валидации полей - 422.
func bindJSON(c *gin.Context, params any) bool {
	if err := c.ShouldBindJSON(params); err != nil {
		var vErr validator.ValidationErrors
		if errors.As(err, &vErr) {
			_ = c.AbortWithError(http.StatusUnprocessableEntity, err).SetType(gin.ErrorTypeBind)
			return false
		}
		_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypeBind)
		return false
	}
	return true
}

func abortWithChartError(c *gin.Context, err error) {
	var tooManyErr *gemini.TooManyRequestError
	var statusErr *gemini.StatusCodeError

	switch {
	case errors.Is(err, domain.ErrNotEnoughCredits):
		c.AbortWithStatus(http.StatusPaymentRequired)
	case errors.Is(err, domain.ErrUserNotFound):
		c.AbortWithStatus(http.StatusNotFound)
	case errors.Is(err, domain.ErrUnsupportedChartType):
		_ = c.AbortWithError(http.StatusUnprocessableEntity, domain.ErrUnsupportedChartType).
			SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrGenerationFailed):
		_ = c.AbortWithError(http.StatusUnprocessableEntity, domain.ErrGenerationFailed).
			SetType(gin.ErrorTypePublic)
	case errors.As(err, &tooManyErr):
		c.Header("Retry-After", strconv.FormatInt(int64(tooManyErr.RetryAfter.Seconds()), 10))
		_ = c.AbortWithError(http.StatusTooManyRequests, err).SetType(gin.ErrorTypePrivate)
	case errors.As(err, &statusErr), errors.Is(err, gemini.ErrEmptyResponse):
		_ = c.AbortWithError(http.StatusBadGateway, err).SetType(gin.ErrorTypePrivate)
	case errors.Is(err, context.DeadlineExceeded):
		_ = c.AbortWithError(http.StatusServiceUnavailable, err).SetType(gin.ErrorTypePrivate)
	default:
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
	}
}
