package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lessonlens/observation-service/internal/models"
	"github.com/xuri/excelize/v2"
)

// ExportService serialises generated reports and aggregate datasets for
// download. Reports are immutable so every export is a pure read.
type ExportService interface {
	ExportReport(report *models.Report, format string) ([]byte, string, error)
	ExportDatasetCSV(entries []DistributionEntry) []byte
}

type exportService struct {
	logger *slog.Logger
}

func NewExportService(logger *slog.Logger) ExportService {
	return &exportService{logger: logger}
}

// ExportFormats lists the supported export formats.
var ExportFormats = []string{"json", "csv", "txt", "xlsx"}

// ExportReport serialises the report in the requested format and returns the
// payload plus its content type.
func (s *exportService) ExportReport(report *models.Report, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case "json":
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal report: %w", err)
		}
		return payload, "application/json", nil
	case "csv":
		return reportToCSV(report), "text/csv", nil
	case "txt":
		return reportToText(report), "text/plain", nil
	case "xlsx":
		payload, err := reportToXLSX(report)
		if err != nil {
			return nil, "", err
		}
		return payload, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	default:
		return nil, "", ErrExportInvalidFormat
	}
}

// reportToCSV flattens each section to a (title, content) row. Embedded
// newlines become spaces and commas become semicolons. This is deliberate
// CSV safety rather than full RFC 4180 quoting, matching what the
// dashboard's download produces.
func reportToCSV(report *models.Report) []byte {
	var b strings.Builder
	b.WriteString("Section,Content\n")
	b.WriteString(fmt.Sprintf("%s,%s\n", csvSafe("Title"), csvSafe(report.Title)))
	b.WriteString(fmt.Sprintf("%s,%s\n", csvSafe("Generated"), csvSafe(report.GeneratedAt.Format("2006-01-02 15:04"))))
	b.WriteString(fmt.Sprintf("%s,%s\n", csvSafe("Total Observations"), csvSafe(fmt.Sprintf("%d", report.Summary.TotalObservations))))
	b.WriteString(fmt.Sprintf("%s,%s\n", csvSafe("Average Score"), csvSafe(fmt.Sprintf("%.2f", report.Summary.AverageScore))))
	for _, section := range report.Sections {
		b.WriteString(fmt.Sprintf("%s,%s\n", csvSafe(section.Title), csvSafe(section.Content)))
	}
	return []byte(b.String())
}

func csvSafe(value string) string {
	value = strings.ReplaceAll(value, "\r\n", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, ",", ";")
	return value
}

// reportToText concatenates title/content pairs with blank-line separation.
func reportToText(report *models.Report) []byte {
	var b strings.Builder
	b.WriteString(report.Title)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Generated %s", report.GeneratedAt.Format("2 January 2006")))
	for _, section := range report.Sections {
		b.WriteString("\n\n")
		b.WriteString(section.Title)
		b.WriteString("\n")
		b.WriteString(section.Content)
	}
	b.WriteString("\n")
	return []byte(b.String())
}

func reportToXLSX(report *models.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Report"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]interface{}{
		{"Title", report.Title},
		{"Type", string(report.Type)},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04")},
		{"Total Observations", report.Summary.TotalObservations},
		{"Average Score", report.Summary.AverageScore},
		{},
		{"Section", "Content"},
	}
	for _, section := range report.Sections {
		rows = append(rows, []interface{}{section.Title, section.Content})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialise workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportDatasetCSV flattens a distribution dataset using the same CSV safety
// rule as report exports.
func (s *exportService) ExportDatasetCSV(entries []DistributionEntry) []byte {
	var b strings.Builder
	b.WriteString("Label,Total,Gradeable,Outstanding,Good,Requires Improvement,Inadequate,Average,Percentage\n")
	for _, entry := range entries {
		b.WriteString(fmt.Sprintf("%s,%d,%d,%d,%d,%d,%d,%.2f,%.1f\n",
			csvSafe(entry.Label),
			entry.Total,
			entry.Gradeable,
			entry.Outstanding,
			entry.Good,
			entry.RequiresImprovement,
			entry.Inadequate,
			entry.Average,
			entry.Percentage,
		))
	}
	return []byte(b.String())
}
