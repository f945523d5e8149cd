package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fsdevblog/chartcredits/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
	// DefaultChartTimeout ограничение на полный цикл генерации графика из нескольких запросов к модели.
	DefaultChartTimeout = 90 * time.Second
	// DefaultChartStepTimeout ограничение на один шаг генерации.
	DefaultChartStepTimeout = 25 * time.Second
)

const (
	RouteGroup           = "/api"
	PaystackWebhookRoute = "/webhooks/paystack"
	PackagesRoute        = "/credits/packages"
	BalanceRoute         = "/user/balance"
	PurchasesRoute       = "/user/purchases"
	ChartsRoute          = "/charts"
	ChartTypeRoute       = "/charts/type"
	ChartDataRoute       = "/charts/data"
	ChartSourceRoute     = "/charts/source"
)

type RouterArgs struct {
	Logger            *logrus.Logger
	SignatureVerifier SignatureVerifier
	PurchaseService   PurchaseServicer
	CreditService     CreditServicer
	ChartService      ChartServicer
	JWTSecretKey      []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	l := args.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.Logger(l))
	r.Use(middlewares.Errors())

	webhookHandler := NewWebhookHandler(args.SignatureVerifier, args.PurchaseService, l)
	creditsHandler := NewCreditsHandler(args.CreditService, args.PurchaseService)
	chartHandler := NewChartHandler(args.ChartService)

	api := r.Group(RouteGroup)

	// вебхук авторизуется подписью тела, метод проверяется в самом обработчике.
	api.Any(PaystackWebhookRoute, webhookHandler.Paystack)
	api.GET(PackagesRoute, creditsHandler.Packages)

	authorized := api.Group("", middlewares.AuthRequired(args.JWTSecretKey))
	authorized.GET(BalanceRoute, creditsHandler.Balance)
	authorized.GET(PurchasesRoute, creditsHandler.Purchases)

	authorized.POST(ChartsRoute, chartHandler.Generate)
	authorized.POST(ChartTypeRoute, chartHandler.Type)
	authorized.POST(ChartDataRoute, chartHandler.Data)
	authorized.POST(ChartSourceRoute, chartHandler.Source)

	r.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})
	return r, nil
}
