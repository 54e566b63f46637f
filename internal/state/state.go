// Package state holds the process-wide UI state: the selected tab and metric,
// and the API token kept in a small key-value store.
package state

import (
	"sync"
)

// TokenKey is the store key of the bearer token sent as X-API-Token.
const TokenKey = "api_token"

// Store is a narrow persistent key-value store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

type Tab int

const (
	TabOverview Tab = iota
	TabOps
	TabAgent
)

var tabNames = map[Tab]string{TabOverview: "Overview", TabOps: "Ops", TabAgent: "Agent"}

func (t Tab) String() string { return tabNames[t] }

// Tabs lists tabs in display order.
func Tabs() []Tab { return []Tab{TabOverview, TabOps, TabAgent} }

// State is injected into the dashboard instead of living in globals.
// Token is read from request goroutines, so access is locked.
type State struct {
	mu     sync.RWMutex
	tab    Tab
	metric string
	store  Store
}

func New(store Store, metric string) *State {
	if store == nil {
		store = NewMemoryStore()
	}
	return &State{store: store, metric: metric}
}

func (s *State) Tab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tab
}

func (s *State) SetTab(t Tab) {
	s.mu.Lock()
	s.tab = t
	s.mu.Unlock()
}

// NextTab cycles to the following tab and returns it.
func (s *State) NextTab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab = (s.tab + 1) % Tab(len(tabNames))
	return s.tab
}

func (s *State) Metric() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metric
}

func (s *State) SetMetric(m string) {
	s.mu.Lock()
	s.metric = m
	s.mu.Unlock()
}

// Token returns the stored API token or "".
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := s.store.Get(TokenKey)
	return v
}

func (s *State) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Set(TokenKey, token)
}
