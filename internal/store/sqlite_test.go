package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solscout/scout-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleReport() *model.Report {
	return &model.Report{
		RunID:                "run-1",
		GeneratedAt:          time.Now().UTC().Truncate(time.Second),
		TotalEntities:        4,
		PlatformDistribution: map[int]int{1: 2, 2: 2},
		CrossValidationRate:  0.5,
		OverlapMatrix: map[string]map[string]float64{
			"dexscreener": {"dexscreener": 1.0, "birdeye": 0.5},
			"birdeye":     {"birdeye": 1.0, "dexscreener": 0.5},
		},
		Insights: []string{"Best performer: dexscreener"},
	}
}

func TestSQLiteScanLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	scan, err := s.CreateScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusRunning, scan.Status)
	assert.NotEmpty(t, scan.ID)

	require.NoError(t, s.SaveReport(ctx, scan.ID, sampleReport()))

	got, err := s.GetScan(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusComplete, got.Status)
	require.NotNil(t, got.Report)
	assert.Equal(t, 4, got.Report.TotalEntities)
	assert.Equal(t, map[int]int{1: 2, 2: 2}, got.Report.PlatformDistribution)
	assert.InDelta(t, 0.5, got.Report.OverlapMatrix["dexscreener"]["birdeye"], 1e-9)
}

func TestSQLiteFailScan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	scan, err := s.CreateScan(ctx)
	require.NoError(t, err)
	require.NoError(t, s.FailScan(ctx, scan.ID, "all sources down"))

	got, err := s.GetScan(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusFailed, got.Status)
	assert.Equal(t, "all sources down", got.Error)
	assert.Nil(t, got.Report)
}

func TestSQLiteGetScanNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetScan(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteSaveReportNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveReport(context.Background(), "missing", sampleReport())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteLatestReport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateScan(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SaveReport(ctx, first.ID, sampleReport()))

	// Running scans never surface as latest.
	_, err = s.CreateScan(ctx)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	second, err := s.CreateScan(ctx)
	require.NoError(t, err)
	newer := sampleReport()
	newer.RunID = "run-2"
	require.NoError(t, s.SaveReport(ctx, second.ID, newer))

	latest, err := s.LatestReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "run-2", latest.Report.RunID)
}

func TestSQLiteLatestReportEmpty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LatestReport(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteListScans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateScan(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SaveReport(ctx, a.ID, sampleReport()))
	_, err = s.CreateScan(ctx)
	require.NoError(t, err)

	all, err := s.ListScans(ctx, ScanFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := s.ListScans(ctx, ScanFilter{Status: model.ScanStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, a.ID, complete[0].ID)

	limited, err := s.ListScans(ctx, ScanFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
