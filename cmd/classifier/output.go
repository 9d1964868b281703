package main

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/classifier"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// percent rounds halves away from zero, matching the rule explanations.
func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", math.Round(v*100))
}

func matchStyle(ok bool) lipgloss.Style {
	if ok {
		return successStyle
	}
	return errorStyle
}

// renderDatasetStatistics prints the per-category sample counts and the total.
func renderDatasetStatistics(w io.Writer, samples []model.LabeledSample) {
	counts := model.CountByLabel(samples)
	t := newTable("Threat type", "Samples")
	total := 0
	for _, category := range model.AllThreatCategories() {
		total += counts[category]
		t.Row(category.String(), strconv.Itoa(counts[category]))
	}
	t.Row(titleStyle.Render("Total"), titleStyle.Render(strconv.Itoa(total)))
	fmt.Fprintln(w, t.Render())
}

// renderComparison prints one row per compared sample followed by the agreement line.
func renderComparison(w io.Writer, report classifier.ComparisonReport) {
	t := newTable("Expected", "Rule-based", "Conf.", "ML result", "Conf.", "Match")
	for _, row := range report.Rows {
		match := "No"
		if row.BothMatch() {
			match = "Yes"
		}
		t.Row(
			row.Expected.String(),
			matchStyle(row.RuleMatch).Render(row.Rule.Category.String()),
			percent(row.Rule.Confidence),
			matchStyle(row.MLMatch).Render(row.ML.Category.String()),
			percent(row.ML.Confidence),
			matchStyle(row.BothMatch()).Render(match),
		)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "\n%s %d/%d (%s)\n", titleStyle.Render("Agreement:"), report.Agreement, report.Total(), percent(report.AgreementRatio()))
}

// featureRows formats every indicator with its unit.
func featureRows(f model.FeatureVector) [][]string {
	return [][]string{
		{"AveragePacketSize", fmt.Sprintf("%.1f", f.AveragePacketSize)},
		{"SuspiciousCommandCount", strconv.Itoa(f.SuspiciousCommandCount)},
		{"FailedLoginRate", fmt.Sprintf("%.1f%%", f.FailedLoginRate*100)},
		{"TrafficToEngineeringStationsRatio", fmt.Sprintf("%.1f%%", f.TrafficToEngineeringStationsRatio*100)},
		{"PlcConfigChangeRate", fmt.Sprintf("%.2f", f.PlcConfigChangeRate)},
		{"HmiScreenChangeRate", fmt.Sprintf("%.2f", f.HmiScreenChangeRate)},
		{"EncryptedTrafficRatio", fmt.Sprintf("%.1f%%", f.EncryptedTrafficRatio*100)},
		{"ExternalConnectionCount", strconv.Itoa(f.ExternalConnectionCount)},
		{"BroadcastTrafficRatio", fmt.Sprintf("%.1f%%", f.BroadcastTrafficRatio*100)},
		{"ProtocolViolationScore", fmt.Sprintf("%.2f", f.ProtocolViolationScore)},
		{"DataExfiltrationVolume", fmt.Sprintf("%.1f MB", f.DataExfiltrationVolume)},
		{"CpuLoadAnomalyScore", fmt.Sprintf("%.2f", f.CpuLoadAnomalyScore)},
		{"ProcessValueAnomalyScore", fmt.Sprintf("%.2f", f.ProcessValueAnomalyScore)},
		{"ConnectionRate", fmt.Sprintf("%.1f/s", f.ConnectionRate)},
		{"DistinctProtocolCount", strconv.Itoa(f.DistinctProtocolCount)},
	}
}

// renderDetailedSample prints the features of row and both engines' explanations.
func renderDetailedSample(w io.Writer, row classifier.ComparisonRow) {
	fmt.Fprintf(w, "\n%s\n\n", titleStyle.Render("Detailed classification (random sample):"))
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Expected threat:"), row.Expected)

	t := newTable("Feature", "Value").Rows(featureRows(row.Reading.Features)...)
	fmt.Fprintln(w, t.Render())

	fmt.Fprintf(w, "\n%s %s (%s)\n", titleStyle.Render("Rule-based classifier:"), row.Rule.Category, percent(row.Rule.Confidence))
	fmt.Fprintln(w, dimStyle.Render(row.Rule.Explanation))
	fmt.Fprintf(w, "\n%s %s (%s)\n", titleStyle.Render("ML classifier:"), row.ML.Category, percent(row.ML.Confidence))
	fmt.Fprintln(w, dimStyle.Render(row.ML.Explanation))
}

// renderResults prints classification results as a table.
func renderResults(w io.Writer, results []model.ClassificationResult) {
	t := newTable("#", "Category", "Confidence", "Explanation")
	for i, r := range results {
		t.Row(strconv.Itoa(i+1), matchStyle(!r.IsThreatDetected()).Render(r.Category.String()), percent(r.Confidence), r.Explanation)
	}
	fmt.Fprintln(w, t.Render())
}

func renderDatasets(w io.Writer, datasets []*model.DatasetInfo) {
	t := newTable("ID", "Name", "Samples", "Per category", "Seed", "Noise", "Created")
	for _, d := range datasets {
		seed := "-"
		if d.Seed != nil {
			seed = strconv.Itoa(int(*d.Seed))
		}
		t.Row(
			strconv.FormatInt(d.ID, 10),
			d.Name,
			strconv.Itoa(d.SampleCount),
			strconv.Itoa(d.SamplesPerCategory),
			seed,
			strconv.FormatFloat(d.NoiseLevel, 'f', -1, 64),
			d.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	fmt.Fprintln(w, t.Render())
}
