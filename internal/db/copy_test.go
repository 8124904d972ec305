package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"run_id", "stage", "idx", "record"}
	rows := [][]any{
		{"run-1", "normalized", 0, []byte(`{}`)},
		{"run-1", "normalized", 1, []byte(`{}`)},
	}

	mock.ExpectCopyFrom(pgx.Identifier{"checkpoints"}, cols).WillReturnResult(2)

	n, err := CopyFrom(context.Background(), mock, "checkpoints", cols, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_EmptyRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := CopyFrom(context.Background(), mock, "checkpoints", []string{"run_id"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"run_id"}
	mock.ExpectCopyFrom(pgx.Identifier{"checkpoints"}, cols).
		WillReturnError(errors.New("connection lost"))

	_, err = CopyFrom(context.Background(), mock, "checkpoints", cols, [][]any{{"run-1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO checkpoints")
}
