// Package bootstrap opens the configured backing store for the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"grievancedesk/internal/config"
	"grievancedesk/internal/db"
	"grievancedesk/internal/repository"
	"grievancedesk/internal/repository/mongostore"
)

// Stores bundles the repositories of one backing store.
type Stores struct {
	Driver      string
	Users       repository.UserRepository
	Departments repository.DepartmentRepository
	Grievances  repository.GrievanceRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping reports whether the store is reachable.
func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the connection pool.
func (s *Stores) Close(ctx context.Context) error {
	return s.close(ctx)
}

// OpenStores connects to cfg.DBDriver and prepares the schema.
// With cfg.ResetDB every table or collection is dropped first.
func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	if cfg.DBDriver == "mongo" {
		return openMongo(ctx, cfg, logger)
	}

	gormDB, err := db.NewGorm(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		return nil, err
	}
	return &Stores{
		Driver:      cfg.DBDriver,
		Users:       repository.NewUserRepository(gormDB),
		Departments: repository.NewDepartmentRepository(gormDB),
		Grievances:  repository.NewGrievanceRepository(gormDB),
		ping:        func(ctx context.Context) error { return db.Ping(ctx, gormDB) },
		close: func(context.Context) error {
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	client, database, err := db.NewMongo(ctx, cfg.DatabaseURL, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all collections")
		if err := mongostore.Reset(ctx, database); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("reset mongo: %w", err)
		}
	}
	if err := mongostore.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Stores{
		Driver:      cfg.DBDriver,
		Users:       mongostore.NewUserRepository(database),
		Departments: mongostore.NewDepartmentRepository(database),
		Grievances:  mongostore.NewGrievanceRepository(database),
		ping:        func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		close:       client.Disconnect,
	}, nil
}
