// Package postgresql provides PostgreSQL persistence of node mappings.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	mappingRepo *MappingRepository
}

// NewPersistence connects to databaseURL and runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPersistenceWithDB(ctx, logger, database)
}

// NewPersistenceWithDB builds the persistence layer on an open connection.
func NewPersistenceWithDB(ctx context.Context, logger *slog.Logger, database *sql.DB) (*Persistence, error) {
	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err := migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		mappingRepo: NewMappingRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) NodeMappings(ctx context.Context, formVersionID string) ([]*models.Node, error) {
	return p.mappingRepo.GetByFormVersion(ctx, formVersionID)
}

func (p *Persistence) NodeMapping(ctx context.Context, formVersionID, nodeID string) (*models.Node, error) {
	return p.mappingRepo.GetNode(ctx, formVersionID, nodeID)
}

func (p *Persistence) SaveNodeMappings(ctx context.Context, formVersionID string, nodes []*models.Node) error {
	return p.mappingRepo.Save(ctx, formVersionID, nodes)
}
