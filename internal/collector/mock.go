package collector

import (
	"context"
	"sync"
	"time"

	"FXInsight/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Label  string
	Price  float64
	Points []model.PricePoint
	Err    error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string {
	if m.Label == "" {
		return "mock"
	}
	return m.Label
}

func (m *MockFetcher) FetchDaily(_ context.Context, _ model.Pair, start, end time.Time) ([]model.PricePoint, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Points != nil {
		return m.Points, nil
	}
	days := int(model.Day(end).Sub(model.Day(start)).Hours()/24) + 1
	return GenerateMockPoints(m.Price, end, days), nil
}

// Calls returns how many times FetchDaily ran.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// GenerateMockPoints builds a gently rising daily series centred on basePrice
// and ending at end.
func GenerateMockPoints(basePrice float64, end time.Time, count int) []model.PricePoint {
	if count <= 0 {
		return nil
	}
	points := make([]model.PricePoint, count)
	to := model.Day(end)
	for i := 0; i < count; i++ {
		points[i] = model.PricePoint{
			Date:  to.AddDate(0, 0, i-count+1),
			Close: basePrice * (1 + float64(i-count/2)*0.0001),
		}
	}
	return points
}
