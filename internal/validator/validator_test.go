package validator

import (
	"testing"
	"time"

	apperrors "github.com/lessonlens/observation-service/internal/errors"
)

type exportRequest struct {
	ReportType string `json:"report_type" validate:"required,report_type"`
	Format     string `json:"format" validate:"required,export_format"`
	Grade      string `json:"grade" validate:"omitempty,grade"`
}

func TestValidateStruct(t *testing.T) {
	v := New()

	t.Run("valid request passes", func(t *testing.T) {
		req := exportRequest{ReportType: "whole_school", Format: "csv", Grade: "Outstanding"}
		if err := v.ValidateStruct(&req); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("unknown format rejected with json field name", func(t *testing.T) {
		req := exportRequest{ReportType: "whole_school", Format: "pdf"}
		err := v.ValidateStruct(&req)
		if err == nil {
			t.Fatal("Expected validation error")
		}

		errs, ok := err.(apperrors.ValidationErrors)
		if !ok {
			t.Fatalf("Expected ValidationErrors, got %T", err)
		}
		if len(errs) != 1 || errs[0].Field != "format" {
			t.Errorf("Expected single error on 'format', got %+v", errs)
		}
	})

	t.Run("unknown grade rejected", func(t *testing.T) {
		req := exportRequest{ReportType: "teacher", Format: "json", Grade: "Excellent"}
		if err := v.ValidateStruct(&req); err == nil {
			t.Error("Expected validation error for unknown grade")
		}
	})

	t.Run("unknown report type rejected", func(t *testing.T) {
		req := exportRequest{ReportType: "quarterly", Format: "json"}
		if err := v.ValidateStruct(&req); err == nil {
			t.Error("Expected validation error for unknown report type")
		}
	})
}

func TestValidateDateRange(t *testing.T) {
	v := New()

	from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)

	if errs := v.ValidateDateRange(&from, &to); errs != nil {
		t.Errorf("Expected valid range, got %v", errs)
	}
	if errs := v.ValidateDateRange(&to, &from); len(errs) != 1 {
		t.Errorf("Expected one error for reversed range, got %v", errs)
	}
	if errs := v.ValidateDateRange(nil, &to); errs != nil {
		t.Errorf("Open-ended range should be valid, got %v", errs)
	}
	if errs := v.ValidateDateRange(&from, &from); errs != nil {
		t.Errorf("Equal bounds should be valid, got %v", errs)
	}
}
