package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/abdulhamidalthaljy/CareConnect/internal/config"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewStore wires every postgres repository onto db.
func NewStore(db *sqlx.DB) repository.Store {
	base := NewBaseRepository(db)
	return repository.Store{
		Users:        NewUserRepository(base),
		Profiles:     NewProfileRepository(base),
		Medicines:    NewMedicineRepository(base),
		Vitals:       NewVitalRepository(base),
		Files:        NewFileRepository(base),
		Appointments: NewAppointmentRepository(base),
		Chat:         NewChatRepository(base),
		Ping: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	}
}
