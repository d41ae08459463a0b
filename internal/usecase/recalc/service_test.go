package recalc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/stockval-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStockRepository is a mock implementation of StockRepository for testing
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) GetByTicker(ctx context.Context, ticker string) (*domain.Stock, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stock), args.Error(1)
}

func (m *MockStockRepository) ListActive(ctx context.Context) ([]*domain.Stock, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Stock), args.Error(1)
}

func (m *MockStockRepository) Create(ctx context.Context, stock *domain.Stock) error {
	args := m.Called(ctx, stock)
	return args.Error(0)
}

func (m *MockStockRepository) UpdateValuation(ctx context.Context, stock *domain.Stock) error {
	args := m.Called(ctx, stock)
	return args.Error(0)
}

func (m *MockStockRepository) UpdatePrice(ctx context.Context, stock *domain.Stock) error {
	args := m.Called(ctx, stock)
	return args.Error(0)
}

// MockSnapshotRepository is a mock implementation of SnapshotRepository for testing
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) ListByTicker(ctx context.Context, ticker string) ([]*domain.ValuationSnapshot, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ValuationSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) GetByTickerAndDate(ctx context.Context, ticker string, date time.Time) (*domain.ValuationSnapshot, error) {
	args := m.Called(ctx, ticker, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValuationSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) Create(ctx context.Context, snapshot *domain.ValuationSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) Delete(ctx context.Context, ticker string, date time.Time) error {
	args := m.Called(ctx, ticker, date)
	return args.Error(0)
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// referenceStock returns a stock whose EPS track matches the engine's
// reference scenario and whose FCF track is incomplete
func referenceStock() *domain.Stock {
	return &domain.Stock{
		Ticker:          "AAPL",
		Name:            "Apple Inc.",
		IsActive:        true,
		CurrentEPS:      decPtr(5.00),
		EPSGrowthRate:   decPtr(10.0),
		EPSMultiple:     decPtr(20.0),
		DiscountRate:    decPtr(15.0),
		ProjectionYears: 5,
		PreferredMethod: domain.MethodEPS,
	}
}

func newTestService(stockRepo domain.StockRepository, snapshotRepo domain.SnapshotRepository) *Service {
	return NewService(stockRepo, snapshotRepo, zerolog.Nop())
}

func TestRecalculateStock_UpdatesEPSTrack(t *testing.T) {
	ctx := context.Background()
	mockStockRepo := new(MockStockRepository)
	mockSnapshotRepo := new(MockSnapshotRepository)
	service := newTestService(mockStockRepo, mockSnapshotRepo)

	mockStockRepo.On("GetByTicker", ctx, "AAPL").Return(referenceStock(), nil)
	mockStockRepo.On("UpdateValuation", ctx, mock.MatchedBy(func(stock *domain.Stock) bool {
		return stock.IntrinsicValue != nil &&
			stock.IntrinsicValue.Equal(decimal.RequireFromString("101.97")) &&
			stock.IntrinsicValueFCF == nil &&
			stock.LastCalculatedAt != nil
	})).Return(nil)

	// Execute
	stock, err := service.RecalculateStock(ctx, "AAPL", Metrics{})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, stock.IntrinsicValue)
	assert.True(t, stock.IntrinsicValue.Equal(decimal.RequireFromString("101.97")))
	mockStockRepo.AssertExpectations(t)
}

func TestRecalculateStock_FreshMetricsReplaceStoredOnes(t *testing.T) {
	ctx := context.Background()
	mockStockRepo := new(MockStockRepository)
	service := newTestService(mockStockRepo, new(MockSnapshotRepository))

	mockStockRepo.On("GetByTicker", ctx, "AAPL").Return(referenceStock(), nil)
	mockStockRepo.On("UpdateValuation", ctx, mock.Anything).Return(nil)

	// Double the EPS: the IV must double too (the pipeline is linear in
	// the current metric up to rounding)
	stock, err := service.RecalculateStock(ctx, "AAPL", Metrics{EPS: decPtr(10.00)})

	require.NoError(t, err)
	require.NotNil(t, stock.IntrinsicValue)
	assert.True(t, stock.CurrentEPS.Equal(decimal.NewFromInt(10)))
	assert.True(t, stock.IntrinsicValue.GreaterThan(decimal.NewFromInt(200)))
}

func TestRecalculateStock_BothTracksFailingIsAnError(t *testing.T) {
	ctx := context.Background()
	mockStockRepo := new(MockStockRepository)
	service := newTestService(mockStockRepo, new(MockSnapshotRepository))

	bare := &domain.Stock{Ticker: "BARE", IsActive: true, PreferredMethod: domain.MethodEPS}
	mockStockRepo.On("GetByTicker", ctx, "BARE").Return(bare, nil)

	_, err := service.RecalculateStock(ctx, "BARE", Metrics{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no valuation track")
	mockStockRepo.AssertNotCalled(t, "UpdateValuation")
}

func TestRecalculateAll_SkipsFailures(t *testing.T) {
	ctx := context.Background()
	mockStockRepo := new(MockStockRepository)
	service := newTestService(mockStockRepo, new(MockSnapshotRepository))

	good := referenceStock()
	bad := &domain.Stock{Ticker: "BARE", IsActive: true, PreferredMethod: domain.MethodEPS}
	mockStockRepo.On("ListActive", ctx).Return([]*domain.Stock{good, bad}, nil)
	mockStockRepo.On("GetByTicker", ctx, "AAPL").Return(good, nil)
	mockStockRepo.On("GetByTicker", ctx, "BARE").Return(bad, nil)
	mockStockRepo.On("UpdateValuation", ctx, mock.Anything).Return(nil)

	processed, failed, err := service.RecalculateAll(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, failed)
}

func TestCreateSnapshot_CopiesValuationState(t *testing.T) {
	ctx := context.Background()
	mockStockRepo := new(MockStockRepository)
	mockSnapshotRepo := new(MockSnapshotRepository)
	service := newTestService(mockStockRepo, mockSnapshotRepo)

	stock := referenceStock()
	stock.IntrinsicValue = decPtr(101.97)
	mockStockRepo.On("GetByTicker", ctx, "AAPL").Return(stock, nil)

	date := time.Date(2025, 3, 31, 15, 42, 0, 0, time.UTC) // time component must be stripped
	normalized := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	mockSnapshotRepo.On("GetByTickerAndDate", ctx, "AAPL", normalized).Return(nil, domain.ErrNotFound)
	mockSnapshotRepo.On("Create", ctx, mock.MatchedBy(func(snapshot *domain.ValuationSnapshot) bool {
		return snapshot.Ticker == "AAPL" &&
			snapshot.SnapshotDate.Equal(normalized) &&
			snapshot.IntrinsicValue != nil &&
			snapshot.IntrinsicValue.Equal(decimal.RequireFromString("101.97")) &&
			snapshot.PreferredMethod == domain.MethodEPS
	})).Return(nil)

	snapshot, err := service.CreateSnapshot(ctx, "AAPL", date, false)

	require.NoError(t, err)
	assert.True(t, snapshot.SnapshotDate.Equal(normalized))
	mockSnapshotRepo.AssertExpectations(t)
}

func TestCreateSnapshot_DuplicateWithoutForce(t *testing.T) {
	ctx := context.Background()
	mockStockRepo := new(MockStockRepository)
	mockSnapshotRepo := new(MockSnapshotRepository)
	service := newTestService(mockStockRepo, mockSnapshotRepo)

	stock := referenceStock()
	stock.IntrinsicValue = decPtr(101.97)
	mockStockRepo.On("GetByTicker", ctx, "AAPL").Return(stock, nil)

	date := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	existing := &domain.ValuationSnapshot{Ticker: "AAPL", SnapshotDate: date}
	mockSnapshotRepo.On("GetByTickerAndDate", ctx, "AAPL", date).Return(existing, nil)

	_, err := service.CreateSnapshot(ctx, "AAPL", date, false)

	assert.True(t, errors.Is(err, domain.ErrSnapshotExists))
	mockSnapshotRepo.AssertNotCalled(t, "Create")
	mockSnapshotRepo.AssertNotCalled(t, "Delete")
}

func TestCreateSnapshot_ForceRecreates(t *testing.T) {
	ctx := context.Background()
	mockStockRepo := new(MockStockRepository)
	mockSnapshotRepo := new(MockSnapshotRepository)
	service := newTestService(mockStockRepo, mockSnapshotRepo)

	stock := referenceStock()
	stock.IntrinsicValue = decPtr(101.97)
	mockStockRepo.On("GetByTicker", ctx, "AAPL").Return(stock, nil)

	date := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	existing := &domain.ValuationSnapshot{Ticker: "AAPL", SnapshotDate: date}
	mockSnapshotRepo.On("GetByTickerAndDate", ctx, "AAPL", date).Return(existing, nil)
	mockSnapshotRepo.On("Delete", ctx, "AAPL", date).Return(nil)
	mockSnapshotRepo.On("Create", ctx, mock.Anything).Return(nil)

	snapshot, err := service.CreateSnapshot(ctx, "AAPL", date, true)

	require.NoError(t, err)
	assert.NotNil(t, snapshot)
	mockSnapshotRepo.AssertExpectations(t)
}

func TestSnapshotAll_CountsCreatedAndSkipped(t *testing.T) {
	ctx := context.Background()
	mockStockRepo := new(MockStockRepository)
	mockSnapshotRepo := new(MockSnapshotRepository)
	service := newTestService(mockStockRepo, mockSnapshotRepo)

	stockA := referenceStock()
	stockA.IntrinsicValue = decPtr(101.97)
	stockB := referenceStock()
	stockB.Ticker = "MSFT"
	stockB.IntrinsicValue = decPtr(250.00)

	date := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	mockStockRepo.On("ListActive", ctx).Return([]*domain.Stock{stockA, stockB}, nil)
	mockStockRepo.On("GetByTicker", ctx, "AAPL").Return(stockA, nil)
	mockStockRepo.On("GetByTicker", ctx, "MSFT").Return(stockB, nil)

	// AAPL already snapshotted for the quarter, MSFT not yet
	mockSnapshotRepo.On("GetByTickerAndDate", ctx, "AAPL", date).
		Return(&domain.ValuationSnapshot{Ticker: "AAPL", SnapshotDate: date}, nil)
	mockSnapshotRepo.On("GetByTickerAndDate", ctx, "MSFT", date).Return(nil, domain.ErrNotFound)
	mockSnapshotRepo.On("Create", ctx, mock.MatchedBy(func(snapshot *domain.ValuationSnapshot) bool {
		return snapshot.Ticker == "MSFT"
	})).Return(nil)

	created, skipped, err := service.SnapshotAll(ctx, date, false)

	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, skipped)
	mockSnapshotRepo.AssertExpectations(t)
}
