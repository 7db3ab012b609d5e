package errors

import (
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("date_from", "must not be after date_to", "2025-09-01")

	if err.Field != "date_from" {
		t.Errorf("Expected field to be 'date_from', got '%s'", err.Field)
	}

	if err.Message != "must not be after date_to" {
		t.Errorf("Expected message to be 'must not be after date_to', got '%s'", err.Message)
	}

	if err.Value != "2025-09-01" {
		t.Errorf("Expected value to be '2025-09-01', got '%v'", err.Value)
	}

	expected := "validation error on field 'date_from': must not be after date_to"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("grade", "must be a recognised observation grade", nil))
	expected := "validation failed: grade must be a recognised observation grade"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("format", "must be one of: json, csv, txt, xlsx", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("format", "must be one of: json, csv, txt, xlsx", "export_format", "pdf")

	if err.Rule != "export_format" {
		t.Errorf("Expected rule to be 'export_format', got '%s'", err.Rule)
	}

	if err.Field != "format" {
		t.Errorf("Expected field to be 'format', got '%s'", err.Field)
	}
}
