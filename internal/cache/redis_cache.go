package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lessonlens/observation-service/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ReportStore keeps assembled reports for later retrieval and export.
// Reports are written once and never updated; the TTL bounds how long a
// download link stays valid. Aggregates are never cached here; every
// dashboard call recomputes from the store of record.
type ReportStore interface {
	Save(ctx context.Context, report *models.Report) error
	// Get returns nil, nil when the report is unknown or expired.
	Get(ctx context.Context, id string) (*models.Report, error)
	Delete(ctx context.Context, id string) error
}

type redisReportStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

const reportKeyPrefix = "report:"

func NewRedisReportStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) ReportStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &redisReportStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *redisReportStore) Save(ctx context.Context, report *models.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report %s: %w", report.ID, err)
	}

	if err := r.client.Set(ctx, reportKeyPrefix+report.ID, payload, r.ttl).Err(); err != nil {
		r.logger.Error("failed to store report",
			zap.String("report_id", report.ID), zap.Error(err))
		return fmt.Errorf("failed to store report %s: %w", report.ID, err)
	}

	r.logger.Debug("stored report",
		zap.String("report_id", report.ID), zap.Duration("ttl", r.ttl))
	return nil
}

func (r *redisReportStore) Get(ctx context.Context, id string) (*models.Report, error) {
	payload, err := r.client.Get(ctx, reportKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}

	var report models.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", id, err)
	}
	return &report, nil
}

func (r *redisReportStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, reportKeyPrefix+id).Err()
}

// MemoryReportStore is an in-process store for tests and development.
type MemoryReportStore struct {
	reports map[string]*models.Report
}

func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{reports: make(map[string]*models.Report)}
}

func (m *MemoryReportStore) Save(_ context.Context, report *models.Report) error {
	m.reports[report.ID] = report
	return nil
}

func (m *MemoryReportStore) Get(_ context.Context, id string) (*models.Report, error) {
	return m.reports[id], nil
}

func (m *MemoryReportStore) Delete(_ context.Context, id string) error {
	delete(m.reports, id)
	return nil
}
