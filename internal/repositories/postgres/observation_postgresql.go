package postgres

import (
	"context"

	"github.com/lessonlens/observation-service/internal/models"
	"github.com/lessonlens/observation-service/internal/repositories"
	"gorm.io/gorm"
)

type ObservationPostgreSQL struct {
	db *gorm.DB
}

func NewObservationPostgreSQL(db *gorm.DB) repositories.ObservationRepository {
	return &ObservationPostgreSQL{db: db}
}

func (o ObservationPostgreSQL) ListByScope(ctx context.Context, scope repositories.ObservationScope) ([]*models.Observation, error) {
	var observations []*models.Observation

	query := o.db.WithContext(ctx).Model(&models.Observation{})
	query = o.applyScope(query, scope)

	if err := query.Order("observation_date ASC").Find(&observations).Error; err != nil {
		return nil, err
	}

	return observations, nil
}

func (o ObservationPostgreSQL) CountByScope(ctx context.Context, scope repositories.ObservationScope) (*repositories.ObservationCounts, error) {
	counts := &repositories.ObservationCounts{}

	base := o.applyScope(o.db.WithContext(ctx).Model(&models.Observation{}), scope)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}
	counts.Total = int(total)

	var graded int64
	gradedQuery := o.applyScope(o.db.WithContext(ctx).Model(&models.Observation{}), scope)
	if err := gradedQuery.
		Where("overall_grade IS NOT NULL OR overall_score > 0").
		Count(&graded).Error; err != nil {
		return nil, err
	}
	counts.Graded = int(graded)

	var selfAssess int64
	selfQuery := o.applyScope(o.db.WithContext(ctx).Model(&models.Observation{}), scope)
	if err := selfQuery.
		Where("observation_type = ?", models.ObservationSelfAssessment).
		Count(&selfAssess).Error; err != nil {
		return nil, err
	}
	counts.SelfAssess = int(selfAssess)

	return counts, nil
}

func (o ObservationPostgreSQL) applyScope(query *gorm.DB, scope repositories.ObservationScope) *gorm.DB {
	if scope.DateFrom != nil {
		query = query.Where("observation_date >= ?", *scope.DateFrom)
	}
	if scope.DateTo != nil {
		query = query.Where("observation_date <= ?", *scope.DateTo)
	}
	if len(scope.SubjectIDs) > 0 {
		query = query.Where("subject IN ?", scope.SubjectIDs)
	}
	if len(scope.KeyStageIDs) > 0 {
		query = query.Where("key_stage IN ?", scope.KeyStageIDs)
	}
	if len(scope.ObservationTypeIDs) > 0 {
		query = query.Where("observation_type IN ?", scope.ObservationTypeIDs)
	}
	if len(scope.TeacherIDs) > 0 {
		query = query.Where("teacher_id IN ?", scope.TeacherIDs)
	}
	if len(scope.DepartmentIDs) > 0 {
		query = query.Where("department IN ?", scope.DepartmentIDs)
	}
	return query
}
