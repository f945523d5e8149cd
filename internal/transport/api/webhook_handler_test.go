package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/logger"
	"github.com/fsdevblog/chartcredits/internal/service"
	"github.com/fsdevblog/chartcredits/internal/service/signature"
	"github.com/fsdevblog/chartcredits/internal/transport/api/mocks"
	"github.com/fsdevblog/chartcredits/internal/transport/api/testutils"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

const webhookURL = RouteGroup + PaystackWebhookRoute

type WebhookHandlerTestSuite struct {
	suite.Suite
	mockCtrl            *gomock.Controller
	mockPurchaseService *mocks.MockPurchaseServicer
	verifier            *signature.Verifier
	router              *gin.Engine
}

func TestWebhookHandlerSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}

func (s *WebhookHandlerTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockPurchaseService = mocks.NewMockPurchaseServicer(s.mockCtrl)

	var err error
	s.verifier, err = signature.New([]byte("paystack secret"))
	s.Require().NoError(err)

	s.router, err = New(RouterArgs{
		Logger:            logger.New(io.Discard),
		SignatureVerifier: s.verifier,
		PurchaseService:   s.mockPurchaseService,
		JWTSecretKey:      []byte("jwt secret"),
	})
	s.Require().NoError(err)
}

func (s *WebhookHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *WebhookHandlerTestSuite) post(body []byte, opts ...func(*testutils.RequestOptions)) (int, []byte) {
	opts = append([]func(*testutils.RequestOptions){testutils.WithJSON()}, opts...)
	res := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    webhookURL,
		Body:   bytes.NewReader(body),
	}, opts...)
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	s.Require().NoError(err)
	return res.StatusCode, resBody
}

func (s *WebhookHandlerTestSuite) postSigned(body []byte) (int, []byte) {
	return s.post(body, testutils.WithHeader(SignatureHeader, s.verifier.Sign(body)))
}

func chargePayload(email string, amount int64, reference string) []byte {
	payload, _ := json.Marshal(map[string]any{
		"event": "charge.success",
		"data": map[string]any{
			"customer":   map[string]any{"customer_code": "CUS_1", "email": email},
			"amount":     amount,
			"created_at": "2024-03-01T10:00:00.000Z",
			"status":     "success",
			"reference":  reference,
		},
	})
	return payload
}

func (s *WebhookHandlerTestSuite) TestMethodNotAllowed() {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		s.Run(method, func() {
			res := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: method,
				URL:    webhookURL,
			})
			defer res.Body.Close()

			s.Equal(http.StatusMethodNotAllowed, res.StatusCode)
			s.Equal(http.MethodPost, res.Header.Get("Allow"))
		})
	}
}

func (s *WebhookHandlerTestSuite) TestRejectedRequests() {
	// Ожидаем что сервис не будет вызван ни в одном из кейсов.
	s.mockPurchaseService.EXPECT().ProcessCharge(gomock.Any(), gomock.Any()).Times(0)

	payload := chargePayload("a@b.com", 800000, "ref-123")

	cases := []struct {
		name      string
		body      []byte
		signature string
	}{
		{name: "empty body", body: nil, signature: s.verifier.Sign(nil)},
		{name: "missing signature", body: payload},
		{name: "wrong signature", body: payload, signature: s.verifier.Sign([]byte("other"))},
		{name: "malformed json", body: []byte("{not json"), signature: s.verifier.Sign([]byte("{not json"))},
		{name: "no event", body: []byte(`{"data":{}}`), signature: s.verifier.Sign([]byte(`{"data":{}}`))},
		{
			name:      "charge without reference",
			body:      chargePayload("a@b.com", 800000, ""),
			signature: s.verifier.Sign(chargePayload("a@b.com", 800000, "")),
		},
		{
			name:      "charge with array data",
			body:      []byte(`{"event":"charge.success","data":[1]}`),
			signature: s.verifier.Sign([]byte(`{"event":"charge.success","data":[1]}`)),
		},
		{
			name:      "charge without data",
			body:      []byte(`{"event":"charge.success"}`),
			signature: s.verifier.Sign([]byte(`{"event":"charge.success"}`)),
		},
		{
			name:      "charge with customer id",
			body:      []byte(`{"event":"charge.success","data":{"customer":23,"reference":"ref-1"}}`),
			signature: s.verifier.Sign([]byte(`{"event":"charge.success","data":{"customer":23,"reference":"ref-1"}}`)),
		},
		{
			name:      "charge with invalid email",
			body:      chargePayload("not-an-email", 800000, "ref-1"),
			signature: s.verifier.Sign(chargePayload("not-an-email", 800000, "ref-1")),
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			var opts []func(*testutils.RequestOptions)
			if tc.signature != "" {
				opts = append(opts, testutils.WithHeader(SignatureHeader, tc.signature))
			}
			status, _ := s.post(tc.body, opts...)
			s.Equal(http.StatusBadRequest, status)
		})
	}
}

func (s *WebhookHandlerTestSuite) TestIgnoredEvent() {
	// Ожидаем что сервис не будет вызван ни в одном из кейсов.
	s.mockPurchaseService.EXPECT().ProcessCharge(gomock.Any(), gomock.Any()).Times(0)
	s.mockPurchaseService.EXPECT().GetByUserID(gomock.Any(), gomock.Any()).Times(0)

	cases := []struct {
		name string
		body string
	}{
		{name: "transfer", body: `{"event":"transfer.success","data":{"reference":"x"}}`},
		{
			name: "customer as id",
			body: `{"event":"paymentrequest.success","data":{"customer":23,"amount":50000,"reference":"PRQ_1"}}`,
		},
		{name: "float amount", body: `{"event":"transfer.success","data":{"amount":100.5}}`},
		{name: "array data", body: `{"event":"some.future.event","data":[1,2,3]}`},
		{name: "string data", body: `{"event":"subscription.create","data":"sub"}`},
		{name: "null data", body: `{"event":"invoice.update","data":null}`},
		{name: "no data", body: `{"event":"charge.dispute.create"}`},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			status, body := s.postSigned([]byte(tc.body))
			s.Equal(http.StatusOK, status)
			s.JSONEq(`{"received":true}`, string(body))
		})
	}
}

func (s *WebhookHandlerTestSuite) TestBodyTooLarge() {
	s.mockPurchaseService.EXPECT().ProcessCharge(gomock.Any(), gomock.Any()).Times(0)

	body := append([]byte(`{"event":"charge.success","data":"`), bytes.Repeat([]byte("a"), MaxWebhookBodyBytes)...)
	body = append(body, []byte(`"}`)...)

	status, resBody := s.postSigned(body)
	s.Equal(http.StatusRequestEntityTooLarge, status)
	s.JSONEq(`{"error":"payload too large"}`, string(resBody))
}

func (s *WebhookHandlerTestSuite) TestChargeSuccess() {
	s.mockPurchaseService.EXPECT().ProcessCharge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args service.ChargeArgs) (*service.ChargeResult, error) {
			// убеждаемся что сервис получает данные события.
			s.Equal("a@b.com", args.Email)
			s.Equal("CUS_1", args.CustomerCode)
			s.Equal(int64(800000), args.Amount)
			s.Equal("ref-123", args.Reference)
			s.Equal("success", args.Status)
			s.True(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(args.PaidAt))
			return &service.ChargeResult{
				Outcome: domain.ChargeOutcomeCredited,
				Mapped:  true,
				Credits: 750,
				Balance: 755,
			}, nil
		})

	status, body := s.postSigned(chargePayload("a@b.com", 800000, "ref-123"))
	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"message":"Credits added successfully"}`, string(body))
}

func (s *WebhookHandlerTestSuite) TestChargeWithoutCreatedAt() {
	payload := []byte(`{"event":"charge.success","data":{"customer":{"email":"a@b.com"},` +
		`"amount":50000,"status":"success","reference":"ref-9"}}`)

	s.mockPurchaseService.EXPECT().ProcessCharge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args service.ChargeArgs) (*service.ChargeResult, error) {
			s.True(args.PaidAt.IsZero())
			return &service.ChargeResult{Outcome: domain.ChargeOutcomeCredited}, nil
		})

	status, _ := s.postSigned(payload)
	s.Equal(http.StatusOK, status)
}

func (s *WebhookHandlerTestSuite) TestChargeOutcomes() {
	cases := []struct {
		name       string
		result     *service.ChargeResult
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "duplicate",
			result:     &service.ChargeResult{Outcome: domain.ChargeOutcomeDuplicate},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Payment already processed"}`,
		},
		{
			name:       "unknown user",
			err:        domain.ErrUserNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"user not found"}`,
		},
		{
			name:       "storage failure",
			err:        errors.Join(domain.ErrUnknown, errors.New("connection reset")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error"}`,
		},
		{
			name:       "timeout",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.mockPurchaseService.EXPECT().ProcessCharge(gomock.Any(), gomock.Any()).Return(tc.result, tc.err)

			status, body := s.postSigned(chargePayload("a@b.com", 800000, "ref-123"))
			s.Equal(tc.wantStatus, status)
			s.JSONEq(tc.wantBody, string(body))
		})
	}
}
