package pretix

import (
	"context"
	"sync"

	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/models"
)

// MockClient is a mock pretix client for testing
type MockClient struct {
	mu        sync.Mutex
	orders    []models.Order
	pageErr   error
	failAfter int
	fetchErr  error
	fetched   []string
	listCalls int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithOrders sets the orders to return
func WithOrders(orders ...models.Order) MockOption {
	return func(m *MockClient) {
		m.orders = orders
	}
}

// WithPageError makes ForEachOrder fail with err after n orders were delivered
func WithPageError(n int, err error) MockOption {
	return func(m *MockClient) {
		m.failAfter = n
		m.pageErr = err
	}
}

// WithFetchError sets an error to return from FetchOrder
func WithFetchError(err error) MockOption {
	return func(m *MockClient) {
		m.fetchErr = err
	}
}

// NewMockClient creates a new mock pretix client
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ForEachOrder calls fn for each configured order
func (m *MockClient) ForEachOrder(ctx context.Context, fn func(models.Order) error) error {
	m.mu.Lock()
	m.listCalls++
	orders := m.orders
	m.mu.Unlock()

	for i, order := range orders {
		if m.pageErr != nil && i == m.failAfter {
			return m.pageErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(order); err != nil {
			return err
		}
	}
	if m.pageErr != nil && m.failAfter >= len(orders) {
		return m.pageErr
	}
	return nil
}

// FetchOrder returns the configured order with code
func (m *MockClient) FetchOrder(ctx context.Context, code string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, code)

	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	for i := range m.orders {
		if m.orders[i].Code == code {
			order := m.orders[i]
			return &order, nil
		}
	}
	return nil, errors.NotFoundf("order %s not found", code)
}

// FetchedCodes returns the codes passed to FetchOrder
func (m *MockClient) FetchedCodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}

// ListCalls returns how many times ForEachOrder was called
func (m *MockClient) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
