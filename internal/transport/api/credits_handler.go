package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CreditsHandler struct {
	creditSvs   CreditServicer
	purchaseSvs PurchaseServicer
}

func NewCreditsHandler(creditSvs CreditServicer, purchaseSvs PurchaseServicer) *CreditsHandler {
	return &CreditsHandler{
		creditSvs:   creditSvs,
		purchaseSvs: purchaseSvs,
	}
}

type BalanceResponse struct {
	Credits int64 `json:"credits"`
}

// Balance GET RouteGroup + BalanceRoute.
func (h *CreditsHandler) Balance(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	credits, err := h.creditSvs.GetBalance(reqCtx, currentUserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{Credits: credits})
}

type PurchaseResponseItem struct {
	ID               string `json:"id"`
	Credits          int64  `json:"credit_amount"`
	Status           string `json:"status"`
	PaymentReference string `json:"payment_reference"`
	CreatedAt        string `json:"created_at"`
}

// Purchases GET RouteGroup + PurchasesRoute. Пустая история отдается статусом 204.
func (h *CreditsHandler) Purchases(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	purchases, err := h.purchaseSvs.GetByUserID(reqCtx, currentUserID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	if len(purchases) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	response := make([]PurchaseResponseItem, len(purchases))
	for i, p := range purchases {
		response[i] = PurchaseResponseItem{
			ID:               p.ID.String(),
			Credits:          p.CreditAmount,
			Status:           p.Status,
			PaymentReference: p.PaymentReference,
			CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, response)
}

type PackageResponseItem struct {
	Credits int64 `json:"credits"`
	// Amount сумма в минимальных единицах валюты, в таком виде ее ожидает платежный шлюз.
	Amount int64           `json:"amount"`
	Price  decimal.Decimal `json:"price"`
}

// Packages GET RouteGroup + PackagesRoute.
func (h *CreditsHandler) Packages(c *gin.Context) {
	packages := service.CreditPackages()
	response := make([]PackageResponseItem, len(packages))
	for i, p := range packages {
		response[i] = PackageResponseItem{Credits: p.Credits, Amount: p.Amount, Price: p.Price}
	}
	c.JSON(http.StatusOK, response)
}
