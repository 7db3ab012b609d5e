package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/lessonlens/observation-service/internal/models"
	"github.com/lessonlens/observation-service/internal/repositories"
	"github.com/lessonlens/observation-service/internal/validator"
	"github.com/stretchr/testify/mock"
)

// MockObservationRepository is a mock implementation of ObservationRepository
type MockObservationRepository struct {
	mock.Mock
}

func (m *MockObservationRepository) ListByScope(ctx context.Context, scope repositories.ObservationScope) ([]*models.Observation, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).([]*models.Observation), args.Error(1)
}

func (m *MockObservationRepository) CountByScope(ctx context.Context, scope repositories.ObservationScope) (*repositories.ObservationCounts, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(*repositories.ObservationCounts), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[string]*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.User), args.Get(1).(int64), args.Error(2)
}

// MockRepository bundles the repository mocks behind the aggregate interface
type MockRepository struct {
	observationRepo *MockObservationRepository
	userRepo        *MockUserRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		observationRepo: &MockObservationRepository{},
		userRepo:        &MockUserRepository{},
	}
}

func (m *MockRepository) Observation() repositories.ObservationRepository {
	return m.observationRepo
}

func (m *MockRepository) User() repositories.UserRepository {
	return m.userRepo
}

// ===== TEST HELPERS =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValidator() *validator.Validator {
	return validator.New()
}

func gradePtr(g models.Grade) *models.Grade { return &g }

func scorePtr(s float64) *float64 { return &s }

func stringPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

// observationDay returns a fixed date offset by the given number of days.
func observationDay(offset int) time.Time {
	base := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

// gradedObservation builds a record with the grade-derived score.
func gradedObservation(id, teacherID, subject string, grade models.Grade, day int) *models.Observation {
	return &models.Observation{
		ID:              id,
		TeacherID:       teacherID,
		ObserverID:      "observer-1",
		ObservationDate: observationDay(day),
		ObservationType: models.ObservationFormal,
		Subject:         subject,
		KeyStage:        string(models.KeyStage3),
		Department:      "Science",
		OverallGrade:    gradePtr(grade),
	}
}

// ungradedObservation builds a walk-through record with no grade or score.
func ungradedObservation(id, teacherID, subject string, day int) *models.Observation {
	return &models.Observation{
		ID:              id,
		TeacherID:       teacherID,
		ObserverID:      "observer-1",
		ObservationDate: observationDay(day),
		ObservationType: models.ObservationLearningWalk,
		Subject:         subject,
		KeyStage:        string(models.KeyStage3),
		Department:      "Science",
	}
}
