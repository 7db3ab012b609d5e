package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/lessonlens/observation-service/internal/errors"
	"github.com/lessonlens/observation-service/internal/models"
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// Validator is the central validator instance combining struct-tag and
// business-rule validation.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if converted := apperrors.ToValidationErrors(err); len(converted) > 0 {
			return converted
		}
		return err
	}
	return nil
}

// ValidateDateRange rejects a reversed date range. Bounds are never swapped
// on the caller's behalf.
func (v *Validator) ValidateDateRange(from, to *time.Time) ValidationErrors {
	if from != nil && to != nil && from.After(*to) {
		return ValidationErrors{
			*apperrors.NewValidationErrorWithRule(
				"date_from", "must not be after date_to", "date_range", from.Format(time.RFC3339)),
		}
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("grade", validateGrade)
	validate.RegisterValidation("key_stage", validateKeyStage)
	validate.RegisterValidation("observation_type", validateObservationType)
	validate.RegisterValidation("report_type", validateReportType)
	validate.RegisterValidation("export_format", validateExportFormat)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions

func validateGrade(fl validator.FieldLevel) bool {
	return models.Grade(fl.Field().String()).IsValid()
}

func validateKeyStage(fl validator.FieldLevel) bool {
	validStages := []models.KeyStage{
		models.KeyStageEYFS,
		models.KeyStage1,
		models.KeyStage2,
		models.KeyStage3,
		models.KeyStage4,
		models.KeyStage5,
	}

	value := fl.Field().String()
	for _, stage := range validStages {
		if string(stage) == value {
			return true
		}
	}
	return false
}

func validateObservationType(fl validator.FieldLevel) bool {
	validTypes := []models.ObservationType{
		models.ObservationFormal,
		models.ObservationLearningWalk,
		models.ObservationPeer,
		models.ObservationSelfAssessment,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateReportType(fl validator.FieldLevel) bool {
	validTypes := []models.ReportType{
		models.ReportWholeSchool,
		models.ReportDepartment,
		models.ReportTeacher,
		models.ReportKeyStage,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateExportFormat(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "json", "csv", "txt", "xlsx":
		return true
	default:
		return false
	}
}
