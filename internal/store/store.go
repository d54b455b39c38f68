// Package store persists scan runs and their reports.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/solscout/scout-cli/internal/model"
)

// ErrNotFound is returned when a scan id does not exist.
var ErrNotFound = eris.New("store: scan not found")

// ScanFilter specifies criteria for listing scans.
type ScanFilter struct {
	Status model.ScanStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for scan history.
type Store interface {
	// CreateScan registers a new scan in the running state.
	CreateScan(ctx context.Context) (*model.Scan, error)
	// SaveReport attaches the finished report and marks the scan complete.
	SaveReport(ctx context.Context, scanID string, report *model.Report) error
	// FailScan marks the scan failed with the given reason.
	FailScan(ctx context.Context, scanID string, reason string) error

	GetScan(ctx context.Context, scanID string) (*model.Scan, error)
	// LatestReport returns the most recent completed scan, or ErrNotFound.
	LatestReport(ctx context.Context) (*model.Scan, error)
	ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds a Store for the configured driver and runs migrations.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite", "":
		s, err = NewSQLite(databaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, databaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
