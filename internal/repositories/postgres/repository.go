package postgres

import (
	"github.com/lessonlens/observation-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	observation repositories.ObservationRepository
	user        repositories.UserRepository
}

// NewRepository builds the gorm-backed repository bundle.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		observation: NewObservationPostgreSQL(db),
		user:        NewUserPostgreSQL(db),
	}
}

func (r *repository) Observation() repositories.ObservationRepository {
	return r.observation
}

func (r *repository) User() repositories.UserRepository {
	return r.user
}
