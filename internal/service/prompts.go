package service

import (
	"fmt"
	"strings"

	"github.com/fsdevblog/chartcredits/internal/domain"
)

const (
	chartTypePromptTemplate = "The following are the possible chart types supported by the code provided: %s. " +
		"Given the user input: %s, identify the best chart type to display, if the user specified a chart type, " +
		"use that. Return just one word"

	researchPromptTemplate = "Find data about %s and you have to include data source where you get this data " +
		"from, do not include data source in JSON, but add as text below"

	datasetPromptTemplate = "Based on %s generate a valid JSON in which each element is an object for Recharts " +
		"API for chart %s without new line characters. Strictly using this FORMAT and naming: " +
		`[{ "name": "a", "value": 12 }]. Make sure field name always stays named name. ` +
		"Instead of naming value field value in JSON, name it based on user metric and make it the same " +
		"across every item. Make sure the format use double quotes and property names are string literals. " +
		"Provide JSON data only."

	sourcePromptTemplate = `Given the following text "%s", identify and extract the data source. ` +
		`Follow the format "Data source: {data source}". Please provide the source name and do not add any ` +
		"additional words, keep it short."
)

func chartTypePrompt(input string) string {
	names := make([]string, len(domain.ChartTypes))
	for i, t := range domain.ChartTypes {
		names[i] = string(t)
	}
	return fmt.Sprintf(chartTypePromptTemplate, strings.Join(names, ", "), input)
}

func researchPrompt(input string) string {
	return fmt.Sprintf(researchPromptTemplate, input)
}

func datasetPrompt(research string, chart domain.ChartType) string {
	return fmt.Sprintf(datasetPromptTemplate, research, chart)
}

func sourcePrompt(research string) string {
	return fmt.Sprintf(sourcePromptTemplate, research)
}
