package models

import "time"

// ExportRequest describes an export of a generated report or a raw
// aggregate dataset.
type ExportRequest struct {
	ReportID *string    `json:"report_id"`
	Format   string     `json:"format" validate:"required,export_format"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
}

// ThemeCount is one extracted theme with its frequency across the scanned
// narrative snippets.
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}
