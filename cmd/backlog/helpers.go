package main

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"backlog/internal/ipc"
)

var titleCaser = cases.Title(language.English)

func displayCategory(category string) string {
	return titleCaser.String(strings.ReplaceAll(category, "_", " "))
}

func truncate(value string, max int) string {
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid feature id %q", arg)
	}
	return id, nil
}

func featureState(feature ipc.Feature) string {
	switch {
	case feature.Passes:
		return "passing"
	case feature.InProgress:
		return "in progress"
	case feature.FailureCount > 0:
		return fmt.Sprintf("failing (%d)", feature.FailureCount)
	default:
		return "pending"
	}
}

func formatPercent(percentage float64) string {
	return fmt.Sprintf("%.1f%%", percentage)
}

func buildFeatureRows(items []ipc.Feature) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			strconv.FormatInt(item.Priority, 10),
			displayCategory(item.Category),
			truncate(item.Name, 48),
			featureState(item),
		})
	}
	return rows
}

var featureListHeaders = []string{"ID", "Priority", "Category", "Name", "State"}

var featureListAligns = []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft}
