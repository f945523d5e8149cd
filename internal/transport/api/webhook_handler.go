package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

const SignatureHeader = "x-paystack-signature"

// MaxWebhookBodyBytes предел тела вебхука. Тело читается до проверки подписи.
const MaxWebhookBodyBytes = 1 << 20

var errPayloadTooLarge = errors.New("payload too large")

type WebhookHandler struct {
	verifier    SignatureVerifier
	purchaseSvs PurchaseServicer
	l           *logrus.Entry
}

func NewWebhookHandler(verifier SignatureVerifier, purchaseSvs PurchaseServicer, l *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:    verifier,
		purchaseSvs: purchaseSvs,
		l:           l.WithFields(logrus.Fields{"component": "http", "module": "webhook"}),
	}
}

type paystackEvent struct {
	Event string `json:"event" binding:"required"`
	// форма data зависит от типа события, разбирается только для charge.success.
	Data json.RawMessage `json:"data"`
}

type paystackCustomer struct {
	CustomerCode string `json:"customer_code"`
	Email        string `json:"email" binding:"required,email"`
}

type paystackPayload struct {
	Customer  paystackCustomer `json:"customer"`
	Amount    int64            `json:"amount"`
	CreatedAt string           `json:"created_at"`
	Status    string           `json:"status"`
	Reference string           `json:"reference" binding:"required"`
}

type WebhookResponse struct {
	Received bool   `json:"received,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Paystack POST RouteGroup + PaystackWebhookRoute. Любой другой метод получает 405.
//
// Тело проверяется по подписи до разбора, поэтому читается целиком как есть.
func (w *WebhookHandler) Paystack(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.AbortWithStatus(http.StatusMethodNotAllowed)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			_ = c.AbortWithError(http.StatusRequestEntityTooLarge, errPayloadTooLarge).SetType(gin.ErrorTypePublic)
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypePrivate)
		return
	}
	if len(body) == 0 {
		_ = c.AbortWithError(http.StatusBadRequest, domain.ErrInvalidPayload).SetType(gin.ErrorTypePublic)
		return
	}

	if verifyErr := w.verifier.Verify(body, c.GetHeader(SignatureHeader)); verifyErr != nil {
		w.l.WithError(verifyErr).Warn("webhook signature rejected")
		_ = c.AbortWithError(http.StatusBadRequest, errors.New("invalid signature")).SetType(gin.ErrorTypePublic)
		return
	}

	var event paystackEvent
	if bindErr := binding.JSON.BindBody(body, &event); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, domain.ErrInvalidPayload).SetType(gin.ErrorTypePublic)
		return
	}

	if domain.WebhookEventType(event.Event) != domain.EventChargeSuccess {
		w.l.WithField("event", event.Event).Warn("unhandled webhook event")
		c.JSON(http.StatusOK, WebhookResponse{Received: true})
		return
	}

	var payload paystackPayload
	if bindErr := binding.JSON.BindBody(event.Data, &payload); bindErr != nil {
		w.l.WithError(bindErr).Warn("malformed charge.success data")
		_ = c.AbortWithError(http.StatusBadRequest, domain.ErrInvalidPayload).SetType(gin.ErrorTypePublic)
		return
	}

	args, argsErr := chargeArgsFromPayload(payload)
	if argsErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, argsErr).SetType(gin.ErrorTypePublic)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	res, processErr := w.purchaseSvs.ProcessCharge(reqCtx, args)
	if processErr != nil {
		switch {
		case errors.Is(processErr, domain.ErrUserNotFound):
			_ = c.AbortWithError(http.StatusNotFound, domain.ErrUserNotFound).SetType(gin.ErrorTypePublic)
		case errors.Is(processErr, domain.ErrInvalidPayload):
			_ = c.AbortWithError(http.StatusBadRequest, domain.ErrInvalidPayload).SetType(gin.ErrorTypePublic)
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, processErr).SetType(gin.ErrorTypePrivate)
		}
		return
	}

	l := w.l.WithFields(logrus.Fields{"reference": args.Reference, "outcome": res.Outcome})
	if res.Outcome == domain.ChargeOutcomeDuplicate {
		l.Info("payment already processed")
		c.JSON(http.StatusOK, WebhookResponse{Message: "Payment already processed"})
		return
	}

	l.WithFields(logrus.Fields{"credits": res.Credits, "balance": res.Balance}).Info("credits added")
	c.JSON(http.StatusOK, WebhookResponse{Message: "Credits added successfully"})
}

// chargeArgsFromPayload собирает аргументы сервиса из провалидированного charge.success.
// Отсутствующий created_at остается нулевым, сервис подставит время получения.
func chargeArgsFromPayload(p paystackPayload) (service.ChargeArgs, error) {
	var paidAt time.Time
	if createdAt := strings.TrimSpace(p.CreatedAt); createdAt != "" {
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return service.ChargeArgs{}, fmt.Errorf("%w: created_at %q", domain.ErrInvalidPayload, p.CreatedAt)
		}
		paidAt = parsed
	}

	return service.ChargeArgs{
		Email:        p.Customer.Email,
		CustomerCode: p.Customer.CustomerCode,
		Amount:       p.Amount,
		Reference:    p.Reference,
		Status:       p.Status,
		PaidAt:       paidAt,
	}, nil
}
