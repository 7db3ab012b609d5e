package repositories

import (
	"context"

	"github.com/lessonlens/observation-service/internal/models"
)

// ObservationRepository is the read-only query surface over the external
// observation store. The analytics engine never writes observation rows.
type ObservationRepository interface {
	// ListByScope returns every observation matching the scope, ordered by
	// observation date ascending. An empty result is a valid outcome, not an
	// error.
	ListByScope(ctx context.Context, scope ObservationScope) ([]*models.Observation, error)

	// CountByScope returns raw volume counters for the scope without loading
	// rows.
	CountByScope(ctx context.Context, scope ObservationScope) (*ObservationCounts, error)
}

// UserRepository resolves staff records referenced by observations.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
}

// Repository aggregates the repository interfaces the services depend on.
type Repository interface {
	Observation() ObservationRepository
	User() UserRepository
}
