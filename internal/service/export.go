package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"norwegianopen/internal/export"
	"norwegianopen/internal/repository"
	"norwegianopen/internal/storage"
)

var ErrExportTargetUnavailable = errors.New("export target is not configured")

type ExportTarget string

const (
	ExportTargetStorage ExportTarget = "storage"
	ExportTargetSheets  ExportTarget = "sheets"
)

func ParseExportTarget(s string) (ExportTarget, bool) {
	switch ExportTarget(s) {
	case ExportTargetStorage, "":
		return ExportTargetStorage, true
	case ExportTargetSheets:
		return ExportTargetSheets, true
	}
	return "", false
}

// SheetWriter replaces the contents of one sheet. *sheets.Client satisfies it.
type SheetWriter interface {
	ReplaceSheet(ctx context.Context, sheet string, values [][]any) (int, error)
	URL() string
}

// ExportResult points at the written export.
type ExportResult struct {
	Dataset export.Dataset `json:"dataset"`
	Target  ExportTarget   `json:"target"`
	Rows    int            `json:"rows"`
	Key     string         `json:"key,omitempty"`
	URL     string         `json:"url"`
}

type ExportService struct {
	deps      Deps
	storage   storage.Storage
	sheets    SheetWriter
	urlExpiry time.Duration
}

// NewExportService builds the service; store and sheets may each be nil, which
// makes the matching target unavailable.
func NewExportService(deps Deps, store storage.Storage, sheets SheetWriter, urlExpiry time.Duration) *ExportService {
	deps = deps.withDefaults()
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}
	return &ExportService{deps: deps, storage: store, sheets: sheets, urlExpiry: urlExpiry}
}

func (s *ExportService) table(ctx context.Context, dataset export.Dataset) (export.Table, error) {
	loc := s.deps.Table.Location
	switch dataset {
	case export.DatasetRegistrations:
		registrations, err := s.deps.Repo.ListRegistrations(ctx, repository.ListRegistrationsParams{Order: repository.OrderByASC})
		if err != nil {
			return export.Table{}, fmt.Errorf("failed to list registrations: %w", err)
		}
		return export.Registrations(registrations, loc), nil
	case export.DatasetHotels:
		bookings, err := s.deps.Repo.ListHotelBookings(ctx, repository.ListHotelBookingsParams{Order: repository.OrderByASC})
		if err != nil {
			return export.Table{}, fmt.Errorf("failed to list hotel bookings: %w", err)
		}
		return export.Hotels(bookings, loc), nil
	}
	return export.Table{}, fmt.Errorf("unknown dataset %q", dataset)
}

// Export writes dataset to target.
func (s *ExportService) Export(ctx context.Context, dataset export.Dataset, target ExportTarget) (ExportResult, error) {
	table, err := s.table(ctx, dataset)
	if err != nil {
		return ExportResult{}, err
	}
	result := ExportResult{Dataset: dataset, Target: target, Rows: len(table.Rows)}

	switch target {
	case ExportTargetSheets:
		if s.sheets == nil {
			return ExportResult{}, ErrExportTargetUnavailable
		}
		if _, err := s.sheets.ReplaceSheet(ctx, string(dataset), table.Values()); err != nil {
			return ExportResult{}, fmt.Errorf("failed to export to sheets: %w", err)
		}
		result.URL = s.sheets.URL()

	case ExportTargetStorage:
		if s.storage == nil {
			return ExportResult{}, ErrExportTargetUnavailable
		}
		content, err := table.CSV()
		if err != nil {
			return ExportResult{}, fmt.Errorf("failed to encode export: %w", err)
		}
		filename := fmt.Sprintf("%s-%s.csv", dataset, s.deps.Now().In(s.deps.Table.Location).Format("20060102-150405"))
		key, err := s.storage.Store(ctx, "exports", filename, bytes.NewReader(content), "text/csv")
		if err != nil {
			return ExportResult{}, fmt.Errorf("failed to store export: %w", err)
		}
		url, err := s.storage.GetURL(ctx, key, s.urlExpiry)
		if err != nil {
			return ExportResult{}, fmt.Errorf("failed to sign export url: %w", err)
		}
		result.Key = key
		result.URL = url

	default:
		return ExportResult{}, ErrExportTargetUnavailable
	}

	s.deps.Logger.InfoContext(ctx, "Export written", "dataset", dataset, "target", target, "rows", result.Rows)
	return result, nil
}

// Open returns a stored export for download.
func (s *ExportService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, ErrExportTargetUnavailable
	}
	return s.storage.Retrieve(ctx, key)
}
