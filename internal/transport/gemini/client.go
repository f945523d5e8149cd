// Package gemini клиент generateContent API языковой модели.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-pro"

	// DefaultAPITimeout ограничение на один запрос к API.
	DefaultAPITimeout = 20 * time.Second

	RouteGenerateContent = "/v1beta/models/%s:generateContent"
	apiKeyHeader         = "x-goog-api-key"
)

// Константы минимального и максимально значения в заголовке Retry-After.
const (
	minRetryAfter     = 1
	maxRetryAfter     = 120
	defaultRetryAfter = 60
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

// HTTPClient реализация completion клиента поверх HTTP.
type HTTPClient struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, model, apiKey string, timeout time.Duration) HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete отправляет prompt и возвращает текст первого кандидата.
// Статус отличный от http.StatusOK дает StatusCodeError, http.StatusTooManyRequests - TooManyRequestError,
// ответ без кандидатов - ErrEmptyResponse.
//
//nolint:nonamedreturns
func (c HTTPClient) Complete(ctx context.Context, prompt string) (text string, err error) {
	url := c.baseURL + fmt.Sprintf(RouteGenerateContent, c.model)

	payload, marshalErr := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if marshalErr != nil {
		return "", fmt.Errorf("marshal request: %s", marshalErr.Error())
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if reqErr != nil {
		return "", fmt.Errorf("create request: %s", reqErr.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return "", fmt.Errorf("do request: %w", doErr)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", NewTooManyRequestError(parseRetryAfter(resp.Header.Get("Retry-After")))
	}

	if resp.StatusCode != http.StatusOK {
		return "", NewStatusCodeError(resp.StatusCode)
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", fmt.Errorf("read response: %s", readErr.Error())
	}

	var response generateResponse
	if jsonErr := json.Unmarshal(body, &response); jsonErr != nil {
		return "", fmt.Errorf("parse response: %s", jsonErr.Error())
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	return response.Candidates[0].Content.Parts[0].Text, nil
}

// parseRetryAfter разбирает заголовок Retry-After в секундах. Пустые и выходящие за рамки значения
// заменяются на defaultRetryAfter.
func parseRetryAfter(value string) time.Duration {
	minValue := decimal.NewFromInt(minRetryAfter)
	maxValue := decimal.NewFromInt(maxRetryAfter)

	retryAfter, parseErr := decimal.NewFromString(value)
	if parseErr != nil || retryAfter.LessThan(minValue) || retryAfter.GreaterThan(maxValue) {
		retryAfter = decimal.NewFromInt(defaultRetryAfter)
	}
	return time.Duration(retryAfter.IntPart()) * time.Second
}
