package service

import (
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"norwegianopen/internal/export"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSheetWriter struct {
	mock.Mock
}

func (m *MockSheetWriter) ReplaceSheet(ctx context.Context, sheet string, values [][]any) (int, error) {
	args := m.Called(ctx, sheet, values)
	return args.Int(0), args.Error(1)
}

func (m *MockSheetWriter) URL() string {
	return m.Called().String(0)
}

func TestExportService_Storage(t *testing.T) {
	f := newFixture(t)
	seedRegistrations(t, f, 3)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewExportService(f.deps, store, nil, 0)
	ctx := context.Background()

	result, err := svc.Export(ctx, export.DatasetRegistrations, ExportTargetStorage)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Contains(t, result.Key, "exports/")
	assert.Equal(t, storage.LocalDownloadPrefix+result.Key, result.URL)

	file, err := svc.Open(ctx, result.Key)
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, "dancer0@example.com", records[1][2])
}

func TestExportService_Sheets(t *testing.T) {
	f := newFixture(t)
	_, err := NewHotelService(f.deps).Submit(context.Background(), hotelInput(pricing.HotelSingle))
	require.NoError(t, err)

	sheets := new(MockSheetWriter)
	sheets.On("ReplaceSheet", mock.Anything, "hotels", mock.MatchedBy(func(values [][]any) bool {
		return len(values) == 2
	})).Return(2, nil)
	sheets.On("URL").Return("https://docs.google.com/spreadsheets/d/abc")

	svc := NewExportService(f.deps, nil, sheets, 0)
	result, err := svc.Export(context.Background(), export.DatasetHotels, ExportTargetSheets)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc", result.URL)
	sheets.AssertExpectations(t)
}

func TestExportService_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	svc := NewExportService(f.deps, nil, nil, 0)
	_, err := svc.Export(ctx, export.DatasetHotels, ExportTargetSheets)
	assert.ErrorIs(t, err, ErrExportTargetUnavailable)
	_, err = svc.Export(ctx, export.DatasetHotels, ExportTargetStorage)
	assert.ErrorIs(t, err, ErrExportTargetUnavailable)
	_, err = svc.Open(ctx, "exports/x.csv")
	assert.ErrorIs(t, err, ErrExportTargetUnavailable)

	sheets := new(MockSheetWriter)
	sheets.On("ReplaceSheet", mock.Anything, "registrations", mock.Anything).Return(0, errors.New("quota exceeded"))
	svc = NewExportService(f.deps, nil, sheets, 0)
	_, err = svc.Export(ctx, export.DatasetRegistrations, ExportTargetSheets)
	assert.Error(t, err)
}

func TestParseExportTarget(t *testing.T) {
	target, ok := ParseExportTarget("")
	assert.True(t, ok)
	assert.Equal(t, ExportTargetStorage, target)

	_, ok = ParseExportTarget("ftp")
	assert.False(t, ok)
}
