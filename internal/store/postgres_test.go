package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solscout/scout-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresCreateScan(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO scans`).
		WithArgs(pgxmock.AnyArg(), string(model.ScanStatusRunning), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	scan, err := s.CreateScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusRunning, scan.Status)
	assert.NotEmpty(t, scan.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveReport(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE scans SET report`).
		WithArgs(pgxmock.AnyArg(), string(model.ScanStatusComplete), pgxmock.AnyArg(), "scan-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.SaveReport(context.Background(), "scan-1", sampleReport())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveReportNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE scans SET report`).
		WithArgs(pgxmock.AnyArg(), string(model.ScanStatusComplete), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SaveReport(context.Background(), "missing", sampleReport())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgresFailScan(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE scans SET status`).
		WithArgs(string(model.ScanStatusFailed), "boom", pgxmock.AnyArg(), "scan-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.FailScan(context.Background(), "scan-1", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScan(t *testing.T) {
	s, mock := newMockStore(t)

	report := sampleReport()
	reportJSON, err := json.Marshal(report)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, status, error, report`).
		WithArgs("scan-1").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "status", "error", "report", "created_at", "updated_at"},
		).AddRow("scan-1", string(model.ScanStatusComplete), "", reportJSON, now, now))

	scan, err := s.GetScan(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusComplete, scan.Status)
	require.NotNil(t, scan.Report)
	assert.Equal(t, report.TotalEntities, scan.Report.TotalEntities)
}

func TestPostgresGetScanNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, status, error, report`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "error", "report", "created_at", "updated_at"}))

	_, err := s.GetScan(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgresListScans(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, status, error, report`).
		WithArgs(string(model.ScanStatusComplete), 100).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "status", "error", "report", "created_at", "updated_at"},
		).AddRow("a", string(model.ScanStatusComplete), "", []byte(nil), now, now).
			AddRow("b", string(model.ScanStatusComplete), "", []byte(nil), now, now))

	scans, err := s.ListScans(context.Background(), ScanFilter{Status: model.ScanStatusComplete})
	require.NoError(t, err)
	assert.Len(t, scans, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
