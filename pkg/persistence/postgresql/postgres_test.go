package postgresql

import (
	"context"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (*Persistence, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))

	p, err := NewPersistenceWithDB(context.Background(), slog.Default(), db)
	require.NoError(t, err)

	return p, mock
}

func TestNodeMappings(t *testing.T) {
	p, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT definition FROM node_mappings WHERE form_version_id = $1")).
		WithArgs("fv-1").
		WillReturnRows(sqlmock.NewRows([]string{"definition"}).
			AddRow([]byte(`{"nodeId":"find","type":"Find","order":1,"salesforceObject":"Contact"}`)).
			AddRow([]byte(`{"nodeId":"cu","type":"CreateUpdate","order":2,"salesforceObject":"Account"}`)))

	nodes, err := p.NodeMappings(context.Background(), "fv-1")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, models.NodeTypeFind, nodes[0].Type)
	assert.Equal(t, "Account", nodes[1].SalesforceObject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNodeMappings_Empty(t *testing.T) {
	p, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM node_mappings")).
		WithArgs("fv-x").
		WillReturnRows(sqlmock.NewRows([]string{"definition"}))

	_, err := p.NodeMappings(context.Background(), "fv-x")
	assert.ErrorIs(t, err, persistence.ErrFormVersionNotFound)
}

func TestNodeMapping_NotFound(t *testing.T) {
	p, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE form_version_id = $1 AND node_id = $2")).
		WithArgs("fv-1", "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"definition"}))

	_, err := p.NodeMapping(context.Background(), "fv-1", "ghost")
	assert.ErrorIs(t, err, persistence.ErrMappingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveNodeMappings(t *testing.T) {
	p, mock := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM node_mappings WHERE form_version_id = $1")).
		WithArgs("fv-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO node_mappings")).
		WithArgs("fv-1", "loop", "Loop", 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.SaveNodeMappings(context.Background(), "fv-1", []*models.Node{
		{NodeID: "loop", Type: models.NodeTypeLoop, Order: 4, LoopConfig: &models.LoopConfig{LoopCollection: "find"}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveNodeMappings_RollsBack(t *testing.T) {
	p, mock := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM node_mappings")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO node_mappings")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := p.SaveNodeMappings(context.Background(), "fv-1", []*models.Node{{NodeID: "a", Type: models.NodeTypeFind}})

	var mappingErr *persistence.MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, "a", mappingErr.NodeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
