package domain

import "strings"

type ChartType string

const (
	ChartTypeArea      ChartType = "area"
	ChartTypeBar       ChartType = "bar"
	ChartTypeLine      ChartType = "line"
	ChartTypeComposed  ChartType = "composed"
	ChartTypeScatter   ChartType = "scatter"
	ChartTypePie       ChartType = "pie"
	ChartTypeRadar     ChartType = "radar"
	ChartTypeRadialBar ChartType = "radialBar"
	ChartTypeTreemap   ChartType = "treemap"
	ChartTypeFunnel    ChartType = "funnel"
)

// ChartTypes все поддерживаемые клиентом типы графиков.
var ChartTypes = []ChartType{
	ChartTypeArea,
	ChartTypeBar,
	ChartTypeLine,
	ChartTypeComposed,
	ChartTypeScatter,
	ChartTypePie,
	ChartTypeRadar,
	ChartTypeRadialBar,
	ChartTypeTreemap,
	ChartTypeFunnel,
}

// ParseChartType ищет тип графика без учета регистра. Второе значение false, если тип не поддерживается.
func ParseChartType(value string) (ChartType, bool) {
	value = strings.TrimSpace(value)
	for _, t := range ChartTypes {
		if strings.EqualFold(string(t), value) {
			return t, true
		}
	}
	return "", false
}

type WebhookEventType string

const (
	EventChargeSuccess WebhookEventType = "charge.success"
)

// ChargeOutcome результат обработки события charge.success.
type ChargeOutcome string

const (
	ChargeOutcomeCredited  ChargeOutcome = "credited"
	ChargeOutcomeDuplicate ChargeOutcome = "duplicate"
)
