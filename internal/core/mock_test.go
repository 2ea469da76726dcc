package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/atanuroy911/drorange-webapp/internal/driver"
	"github.com/atanuroy911/drorange-webapp/internal/rasterize"
)

type MockStore struct {
	mu      sync.Mutex
	records []model.PredictionRecord
	users   map[string]model.User
	Err     error
}

func (m *MockStore) CreatePrediction(ctx context.Context, rec model.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, r := range m.records {
		if r.ID == rec.ID {
			return driver.ErrConflict
		}
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *MockStore) ListPredictions(ctx context.Context) ([]model.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.PredictionRecord, len(m.records))
	copy(out, m.records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockStore) GetPrediction(ctx context.Context, id string) (model.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.PredictionRecord{}, m.Err
	}
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return model.PredictionRecord{}, driver.ErrNotFound
}

func (m *MockStore) DeletePrediction(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return driver.ErrNotFound
}

func (m *MockStore) CreateUser(ctx context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[string]model.User)
	}
	if _, ok := m.users[u.Username]; ok {
		return driver.ErrConflict
	}
	m.users[u.Username] = u
	return nil
}

func (m *MockStore) GetUserByName(ctx context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return model.User{}, driver.ErrNotFound
	}
	return u, nil
}

func (m *MockStore) Close(ctx context.Context) error {
	return nil
}

type MockSummarizer struct {
	Response string
	Err      error
	Calls    int
}

func (m *MockSummarizer) SummarizeGarden(ctx context.Context, locale string, top []model.AggregateEntry, details []model.CatalogEntry) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// MockRasterizer counts renders and fails on demand.
type MockRasterizer struct {
	mu    sync.Mutex
	Kinds []rasterize.Kind
	Err   error
}

func (m *MockRasterizer) Render(ctx context.Context, c rasterize.Chart) ([]byte, error) {
	m.mu.Lock()
	m.Kinds = append(m.Kinds, c.Kind)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return nil, fmt.Errorf("mock rasterizer has no image")
}
