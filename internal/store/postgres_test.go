package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scholar-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, label, status, report, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(string(model.RunStatusFailed), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	report := json.RawMessage(`{"input":5}`)
	mock.ExpectExec(`UPDATE runs SET report = \$1, status = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs([]byte(report), string(model.RunStatusComplete), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateRunReport(context.Background(), "run-1", report)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveCheckpointRecord_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rec := model.Record{Title: "A Study", TitleKey: "study"}
	recJSON, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO checkpoints .* ON CONFLICT \(run_id, stage, idx\) DO UPDATE`).
		WithArgs("run-1", string(model.StageClassified), 3, recJSON, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = s.SaveCheckpointRecord(context.Background(), "run-1", model.StageClassified, 3, rec)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadCheckpoint(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	recA := model.Record{Title: "First", TitleKey: "first", Year: 2020}
	recB := model.Record{Title: "Second", TitleKey: "second"}
	jsonA, err := json.Marshal(recA)
	require.NoError(t, err)
	jsonB, err := json.Marshal(recB)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT record FROM checkpoints WHERE run_id = \$1 AND stage = \$2 ORDER BY idx`).
		WithArgs("run-1", string(model.StageDeduplicated)).
		WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(jsonA).AddRow(jsonB))

	got, err := s.LoadCheckpoint(context.Background(), "run-1", model.StageDeduplicated)
	require.NoError(t, err)
	assert.Equal(t, []model.Record{recA, recB}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveCheckpoint_TxAndCopy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	records := []model.Record{
		{Title: "One", TitleKey: "one"},
		{Title: "Two", TitleKey: "two"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM checkpoints WHERE run_id = \$1 AND stage = \$2`).
		WithArgs("run-1", string(model.StageNormalized)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCopyFrom(pgx.Identifier{"checkpoints"},
		[]string{"run_id", "stage", "idx", "record", "saved_at"}).
		WillReturnResult(2)
	mock.ExpectCommit()

	err := s.SaveCheckpoint(context.Background(), "run-1", model.StageNormalized, records)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_StatusFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, label, status, report, created_at, updated_at FROM runs WHERE true AND status = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(string(model.RunStatusComplete), 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "label", "status", "report", "created_at", "updated_at"}).
			AddRow("run-1", "dir-a", string(model.RunStatusComplete), (*[]byte)(nil), now, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "dir-a", runs[0].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}
