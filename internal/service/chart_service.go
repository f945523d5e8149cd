package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/sirupsen/logrus"
)

// ChartCost стоимость полной генерации графика в кредитах.
const ChartCost int64 = 1

// refusalMarkers фрагменты, по которым ответ модели считается отказом, а не типом графика.
var refusalMarkers = []string{"AI", "model", "programmed"}

const sourcePrefix = "Data source:"

type ChartService struct {
	completer Completer
	credits   CreditSpender
	l         *logrus.Entry
}

func NewChartService(completer Completer, credits CreditSpender, l *logrus.Logger) *ChartService {
	return &ChartService{
		completer: completer,
		credits:   credits,
		l:         l.WithFields(logrus.Fields{"component": "service", "module": "chart"}),
	}
}

type ChartResult struct {
	Chart domain.Chart
	// Credits баланс юзера после списания.
	Credits int64
}

// Generate списывает ChartCost кредитов и выполняет полный цикл генерации: тип графика, поиск данных,
// извлечение датасета и источника. При ошибке генерации кредиты возвращаются.
// Ошибки: domain.ErrNotEnoughCredits, domain.ErrUserNotFound, domain.ErrGenerationFailed,
// domain.ErrUnsupportedChartType и ошибки клиента модели.
func (s *ChartService) Generate(ctx context.Context, userID int64, input string) (*ChartResult, error) {
	balance, err := s.credits.Spend(ctx, userID, ChartCost)
	if err != nil {
		return nil, fmt.Errorf("generating chart: %w", err)
	}

	chart, genErr := s.generate(ctx, input)
	if genErr != nil {
		if _, refundErr := s.credits.Refund(context.WithoutCancel(ctx), userID, ChartCost); refundErr != nil {
			s.l.WithError(refundErr).WithField("user_id", userID).Error("failed to refund chart credits")
			return nil, fmt.Errorf("generating chart: %w", errors.Join(genErr, refundErr))
		}
		return nil, fmt.Errorf("generating chart: %w", genErr)
	}

	return &ChartResult{Chart: *chart, Credits: balance}, nil
}

func (s *ChartService) generate(ctx context.Context, input string) (*domain.Chart, error) {
	chartType, err := s.DetectType(ctx, input)
	if err != nil {
		return nil, err
	}

	research, err := s.ResearchData(ctx, input)
	if err != nil {
		return nil, err
	}

	data, err := s.ExtractDataset(ctx, research, string(chartType))
	if err != nil {
		return nil, err
	}

	source, err := s.ExtractSource(ctx, research)
	if err != nil {
		return nil, err
	}

	return &domain.Chart{Type: chartType, Data: data, Source: source}, nil
}

// DetectType определяет лучший тип графика для запроса input.
func (s *ChartService) DetectType(ctx context.Context, input string) (domain.ChartType, error) {
	answer, err := s.completer.Complete(ctx, chartTypePrompt(input))
	if err != nil {
		return "", fmt.Errorf("detecting chart type: %w", err)
	}
	if isRefusal(answer) {
		s.l.WithField("answer", answer).Warn("model refused to classify chart")
		return "", fmt.Errorf("detecting chart type: %w", domain.ErrGenerationFailed)
	}

	chartType, ok := domain.ParseChartType(strings.Trim(answer, " \t\r\n.`\"'"))
	if !ok {
		return "", fmt.Errorf("detecting chart type %q: %w", answer, domain.ErrUnsupportedChartType)
	}
	return chartType, nil
}

// ResearchData запрашивает у модели текст с данными по запросу и указанием их источника.
func (s *ChartService) ResearchData(ctx context.Context, input string) (string, error) {
	answer, err := s.completer.Complete(ctx, researchPrompt(input))
	if err != nil {
		return "", fmt.Errorf("researching chart data: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("researching chart data: %w", domain.ErrGenerationFailed)
	}
	return answer, nil
}

// ExtractDataset преобразует текст с данными в JSON массив объектов с обязательным полем name.
func (s *ChartService) ExtractDataset(ctx context.Context, research string, chart string) (json.RawMessage, error) {
	chartType, ok := domain.ParseChartType(chart)
	if !ok {
		return nil, fmt.Errorf("extracting dataset for %q: %w", chart, domain.ErrUnsupportedChartType)
	}

	answer, err := s.completer.Complete(ctx, datasetPrompt(research, chartType))
	if err != nil {
		return nil, fmt.Errorf("extracting dataset: %w", err)
	}

	data, parseErr := parseDataset(answer)
	if parseErr != nil {
		s.l.WithError(parseErr).Warn("model returned malformed dataset")
		return nil, fmt.Errorf("extracting dataset: %w", domain.ErrGenerationFailed)
	}
	return data, nil
}

// ExtractSource извлекает название источника данных из текста research.
func (s *ChartService) ExtractSource(ctx context.Context, research string) (string, error) {
	answer, err := s.completer.Complete(ctx, sourcePrompt(research))
	if err != nil {
		return "", fmt.Errorf("extracting data source: %w", err)
	}

	source := strings.TrimSpace(answer)
	if idx := strings.Index(strings.ToLower(source), strings.ToLower(sourcePrefix)); idx >= 0 {
		source = strings.TrimSpace(source[idx+len(sourcePrefix):])
	}
	if source == "" {
		return "", fmt.Errorf("extracting data source: %w", domain.ErrGenerationFailed)
	}
	return source, nil
}

func isRefusal(answer string) bool {
	if strings.TrimSpace(answer) == "" {
		return true
	}
	for _, marker := range refusalMarkers {
		if strings.Contains(answer, marker) {
			return true
		}
	}
	return false
}

// parseDataset убирает markdown ограждение кода и проверяет, что ответ является непустым массивом объектов,
// у каждого из которых есть поле name. Возвращает компактный JSON.
func parseDataset(answer string) (json.RawMessage, error) {
	raw := stripCodeFence(answer)

	var items []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("empty dataset")
	}
	for i, item := range items {
		if _, ok := item["name"]; !ok {
			return nil, fmt.Errorf("dataset item %d has no name field", i)
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return nil, fmt.Errorf("compact dataset: %w", err)
	}
	return buf.Bytes(), nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// язык блока, например ```json
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
