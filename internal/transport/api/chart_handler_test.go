package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/logger"
	"github.com/fsdevblog/chartcredits/internal/service"
	"github.com/fsdevblog/chartcredits/internal/transport/api/mocks"
	"github.com/fsdevblog/chartcredits/internal/transport/api/testutils"
	"github.com/fsdevblog/chartcredits/internal/transport/api/tokens"
	"github.com/fsdevblog/chartcredits/internal/transport/gemini"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type ChartHandlerTestSuite struct {
	suite.Suite
	mockCtrl         *gomock.Controller
	mockChartService *mocks.MockChartServicer
	router           *gin.Engine
	token            string
}

func TestChartHandlerSuite(t *testing.T) {
	suite.Run(t, new(ChartHandlerTestSuite))
}

func (s *ChartHandlerTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockChartService = mocks.NewMockChartServicer(s.mockCtrl)
	jwtSecret := []byte("super secret key")

	var err error
	s.router, err = New(RouterArgs{
		Logger:       logger.New(io.Discard),
		ChartService: s.mockChartService,
		JWTSecretKey: jwtSecret,
	})
	s.Require().NoError(err)

	s.token, err = tokens.GenerateUserJWT(1, time.Hour, jwtSecret)
	s.Require().NoError(err)
}

func (s *ChartHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *ChartHandlerTestSuite) post(url string, payload string) (*http.Response, []byte) {
	res := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    url,
		Body:   strings.NewReader(payload),
	}, testutils.WithJSON(), testutils.WithBearer(s.token))
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	s.Require().NoError(err)
	return res, body
}

func (s *ChartHandlerTestSuite) TestGenerate() {
	s.mockChartService.EXPECT().Generate(gomock.Any(), int64(1), "gdp of nigeria").Return(&service.ChartResult{
		Chart: domain.Chart{
			Type:   domain.ChartTypeLine,
			Data:   json.RawMessage(`[{"name":"2010","gdp":360}]`),
			Source: "World Bank",
		},
		Credits: 4,
	}, nil)

	res, body := s.post(RouteGroup+ChartsRoute, `{"input":"gdp of nigeria"}`)
	s.Equal(http.StatusOK, res.StatusCode)
	s.JSONEq(`{"type":"line","data":[{"name":"2010","gdp":360}],"source":"World Bank","credits":4}`, string(body))
}

func (s *ChartHandlerTestSuite) TestGenerate_Errors() {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "no credits", err: domain.ErrNotEnoughCredits, wantStatus: http.StatusPaymentRequired},
		{name: "no user", err: domain.ErrUserNotFound, wantStatus: http.StatusNotFound},
		{name: "refusal", err: domain.ErrGenerationFailed, wantStatus: http.StatusUnprocessableEntity},
		{name: "unsupported type", err: domain.ErrUnsupportedChartType, wantStatus: http.StatusUnprocessableEntity},
		{name: "upstream 500", err: gemini.NewStatusCodeError(500), wantStatus: http.StatusBadGateway},
		{name: "empty response", err: gemini.ErrEmptyResponse, wantStatus: http.StatusBadGateway},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.mockChartService.EXPECT().Generate(gomock.Any(), int64(1), "x").Return(nil, tc.err)

			res, _ := s.post(RouteGroup+ChartsRoute, `{"input":"x"}`)
			s.Equal(tc.wantStatus, res.StatusCode)
		})
	}
}

func (s *ChartHandlerTestSuite) TestGenerate_TooManyRequests() {
	s.mockChartService.EXPECT().Generate(gomock.Any(), int64(1), "x").
		Return(nil, gemini.NewTooManyRequestError(7*time.Second))

	res, _ := s.post(RouteGroup+ChartsRoute, `{"input":"x"}`)
	s.Equal(http.StatusTooManyRequests, res.StatusCode)
	s.Equal("7", res.Header.Get("Retry-After"))
}

func (s *ChartHandlerTestSuite) TestValidation() {
	// Ожидаем что сервис не будет вызван.
	s.mockChartService.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	s.mockChartService.EXPECT().ExtractDataset(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// 1001 руна, но 4004 байта.
	tooLong, _ := json.Marshal(map[string]string{"input": testutils.GenerateOverBytesUnderRunes(1001)})

	cases := []struct {
		name       string
		url        string
		payload    string
		wantStatus int
	}{
		{name: "malformed", url: ChartsRoute, payload: `{"input":`, wantStatus: http.StatusBadRequest},
		{name: "missing input", url: ChartsRoute, payload: `{}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "too long", url: ChartsRoute, payload: string(tooLong), wantStatus: http.StatusUnprocessableEntity},
		{
			name:       "unsupported chart",
			url:        ChartDataRoute,
			payload:    `{"input":"x","chart":"histogram"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			res, _ := s.post(RouteGroup+tc.url, tc.payload)
			s.Equal(tc.wantStatus, res.StatusCode)
		})
	}
}

func (s *ChartHandlerTestSuite) TestSteps() {
	s.mockChartService.EXPECT().DetectType(gomock.Any(), "sales by month").Return(domain.ChartTypeBar, nil)
	s.mockChartService.EXPECT().ExtractDataset(gomock.Any(), "text", "Bar").
		Return(json.RawMessage(`[{"name":"jan","sales":3}]`), nil)
	s.mockChartService.EXPECT().ExtractSource(gomock.Any(), "text").Return("Eurostat", nil)

	res, body := s.post(RouteGroup+ChartTypeRoute, `{"input":"sales by month"}`)
	s.Equal(http.StatusOK, res.StatusCode)
	s.JSONEq(`{"type":"bar"}`, string(body))

	res, body = s.post(RouteGroup+ChartDataRoute, `{"input":"text","chart":"Bar"}`)
	s.Equal(http.StatusOK, res.StatusCode)
	s.JSONEq(`[{"name":"jan","sales":3}]`, string(body))

	res, body = s.post(RouteGroup+ChartSourceRoute, `{"input":"text"}`)
	s.Equal(http.StatusOK, res.StatusCode)
	s.JSONEq(`{"source":"Eurostat"}`, string(body))
}

func (s *ChartHandlerTestSuite) TestUnauthorized() {
	s.mockChartService.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	res := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + ChartsRoute,
		Body:   strings.NewReader(`{"input":"x"}`),
	}, testutils.WithJSON())
	defer res.Body.Close()

	s.Equal(http.StatusUnauthorized, res.StatusCode)
}
