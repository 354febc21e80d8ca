package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
)

// MappingRepository handles node mapping database operations.
type MappingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMappingRepository creates a new mapping repository.
func NewMappingRepository(db *sql.DB, logger *slog.Logger) *MappingRepository {
	return &MappingRepository{db: db, logger: logger}
}

// GetByFormVersion retrieves every node of a form version in order.
func (r *MappingRepository) GetByFormVersion(ctx context.Context, formVersionID string) ([]*models.Node, error) {
	query := `
		SELECT definition
		FROM node_mappings
		WHERE form_version_id = $1
		ORDER BY sort_order, node_id
	`

	rows, err := r.db.QueryContext(ctx, query, formVersionID)
	if err != nil {
		return nil, persistence.NewMappingError("GetByFormVersion", formVersionID, "", fmt.Errorf("failed to query node mappings: %w", err))
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var nodes []*models.Node

	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, persistence.NewMappingError("GetByFormVersion", formVersionID, "", err)
		}

		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewMappingError("GetByFormVersion", formVersionID, "", fmt.Errorf("error iterating node mappings: %w", err))
	}

	if len(nodes) == 0 {
		return nil, persistence.NewMappingError("GetByFormVersion", formVersionID, "", persistence.ErrFormVersionNotFound)
	}

	return nodes, nil
}

// GetNode retrieves one node of a form version.
func (r *MappingRepository) GetNode(ctx context.Context, formVersionID, nodeID string) (*models.Node, error) {
	query := `
		SELECT definition
		FROM node_mappings
		WHERE form_version_id = $1 AND node_id = $2
	`

	node, err := scanNode(r.db.QueryRowContext(ctx, query, formVersionID, nodeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewMappingError("GetNode", formVersionID, nodeID, persistence.ErrMappingNotFound)
		}

		return nil, persistence.NewMappingError("GetNode", formVersionID, nodeID, err)
	}

	return node, nil
}

// Save replaces the nodes of a form version in one transaction.
func (r *MappingRepository) Save(ctx context.Context, formVersionID string, nodes []*models.Node) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewMappingError("Save", formVersionID, "", fmt.Errorf("failed to begin transaction: %w", err))
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM node_mappings WHERE form_version_id = $1`, formVersionID)
	if err != nil {
		_ = tx.Rollback()

		return persistence.NewMappingError("Save", formVersionID, "", fmt.Errorf("failed to clear node mappings: %w", err))
	}

	insert := `
		INSERT INTO node_mappings (form_version_id, node_id, node_type, sort_order, definition, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	for _, node := range nodes {
		definition, err := json.Marshal(node)
		if err != nil {
			_ = tx.Rollback()

			return persistence.NewMappingError("Save", formVersionID, node.NodeID, err)
		}

		_, err = tx.ExecContext(ctx, insert, formVersionID, node.NodeID, string(node.Type), node.Order, definition)
		if err != nil {
			_ = tx.Rollback()

			return persistence.NewMappingError("Save", formVersionID, node.NodeID, fmt.Errorf("failed to insert node mapping: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return persistence.NewMappingError("Save", formVersionID, "", fmt.Errorf("failed to commit node mappings: %w", err))
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*models.Node, error) {
	var definition []byte
	if err := row.Scan(&definition); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(definition, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode node definition: %w", err)
	}

	return models.NormalizeNode(raw)
}
