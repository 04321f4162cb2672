package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"order-lookup/internal/classifier"
	"order-lookup/internal/models"
	"order-lookup/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for unknown or expired sessions
	ErrSessionNotFound = errors.New("session not found")
	// ErrSearchSuperseded is returned when a newer search started before this one finished
	ErrSearchSuperseded = errors.New("search superseded by a newer one")
	// ErrOrderNotVisible is returned when selecting an order outside the current view
	ErrOrderNotVisible = errors.New("order is not in the current view")
	// ErrOrderNotFound is returned when an order id is not part of the session
	ErrOrderNotFound = errors.New("order not found")
)

// SearchFunc looks up orders for a query
type SearchFunc func(ctx context.Context, query string) ([]models.Order, error)

// Session is one visitor's view over their search results
type Session struct {
	ID string

	mu         sync.Mutex
	query      string
	orders     []models.Order
	tab        models.ViewTab
	cargo      []string
	delivery   *models.DeliveryFilter
	selection  *classifier.Selection
	generation uint64
	cancel     context.CancelFunc

	lastSeen atomic.Int64
}

func newSession(now time.Time) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		tab:       models.TabAll,
		selection: classifier.NewSelection(),
	}
	s.touch(now)
	return s
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Search runs search for query and applies the result unless a newer search started meanwhile.
// Starting a search cancels the context of the one in flight.
func (s *Session) Search(ctx context.Context, query string, search SearchFunc) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	searchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	orders, err := search(searchCtx, query)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		util.SearchesSuperseded.Inc()
		return ErrSearchSuperseded
	}
	s.cancel = nil
	s.query = query
	s.resetFilters()

	if err != nil {
		s.orders = nil
		s.tab = models.TabAll
		return err
	}

	s.orders = orders
	s.tab = classifier.DefaultTab(orders)
	return nil
}

// SetTab switches tabs. Selection and filters start over.
func (s *Session) SetTab(tab models.ViewTab) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !tab.Valid() {
		tab = models.TabAll
	}
	s.tab = tab
	s.resetFilters()
}

// ToggleCargoFilter adds or removes a logistics status filter
func (s *Session) ToggleCargoFilter(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.cargo {
		if f == status {
			s.cargo = append(s.cargo[:i:i], s.cargo[i+1:]...)
			return
		}
	}
	s.cargo = append(s.cargo, status)
}

// ToggleDeliveryFilter sets f, or clears it when f is already active
func (s *Session) ToggleDeliveryFilter(f models.DeliveryFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delivery != nil && *s.delivery == f {
		s.delivery = nil
		return
	}
	s.delivery = &f
}

// ToggleSelection flips one order. Only visible orders can be selected.
func (s *Session) ToggleSelection(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.selection.Has(orderID) && !containsOrder(s.visible(), orderID) {
		return ErrOrderNotVisible
	}
	s.selection.Toggle(orderID)
	return nil
}

// ToggleSelectAll selects every visible order, or clears when they already are
func (s *Session) ToggleSelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection.ToggleAll(s.visible())
}

// Order returns one order from the current results
func (s *Session) Order(orderID string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].ID == orderID {
			return s.orders[i], nil
		}
	}
	return models.Order{}, ErrOrderNotFound
}

// Checkout returns the active tab and the selected visible orders
func (s *Session) Checkout() (models.ViewTab, []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tab, s.selection.Selected(s.visible())
}

// OrderView is an order as shown in a list, with its headline amount
type OrderView struct {
	models.Order
	DisplayAmount decimal.Decimal `json:"display_amount"`
	Arrived       bool            `json:"arrived"`
	Selected      bool            `json:"selected"`
}

// View is a snapshot of everything a visitor sees
type View struct {
	SessionID      string                 `json:"session_id"`
	Query          string                 `json:"query"`
	Tab            models.ViewTab         `json:"tab"`
	CargoFilters   []string               `json:"cargo_filters"`
	CargoOptions   []string               `json:"cargo_options"`
	DeliveryFilter *models.DeliveryFilter `json:"delivery_filter"`
	Orders         []OrderView            `json:"orders"`
	TotalOrders    int                    `json:"total_orders"`
	TabCounts      map[models.ViewTab]int `json:"tab_counts"`
	SelectedIDs    []string               `json:"selected_ids"`
	SelectedCount  int                    `json:"selected_count"`
	AmountDue      decimal.Decimal        `json:"amount_due"`
	AllSelected    bool                   `json:"all_selected"`
	BatchAction    bool                   `json:"batch_action"`
}

// View returns a snapshot of the session
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := s.visible()
	selected := s.selection.Selected(visible)

	rows := make([]OrderView, 0, len(visible))
	for i := range visible {
		o := visible[i]
		rows = append(rows, OrderView{
			Order:         o,
			DisplayAmount: classifier.DisplayAmount(&o, s.tab),
			Arrived:       o.HasArrived(),
			Selected:      s.selection.Has(o.ID),
		})
	}

	ids := make([]string, 0, len(selected))
	for i := range selected {
		ids = append(ids, selected[i].ID)
	}

	cargo := make([]string, len(s.cargo))
	copy(cargo, s.cargo)

	return View{
		SessionID:      s.ID,
		Query:          s.query,
		Tab:            s.tab,
		CargoFilters:   cargo,
		CargoOptions:   models.CargoStatusOptions,
		DeliveryFilter: s.delivery,
		Orders:         rows,
		TotalOrders:    len(s.orders),
		TabCounts:      classifier.CountByTab(s.orders),
		SelectedIDs:    ids,
		SelectedCount:  len(ids),
		AmountDue:      s.selection.AmountDue(visible, s.tab),
		AllSelected:    s.selection.AllSelected(visible),
		BatchAction:    classifier.BatchActionAvailable(s.tab),
	}
}

func (s *Session) visible() []models.Order {
	return classifier.Classify(s.orders, s.tab, s.cargo, s.delivery)
}

func (s *Session) resetFilters() {
	s.cargo = nil
	s.delivery = nil
	s.selection.Clear()
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func containsOrder(orders []models.Order, id string) bool {
	for i := range orders {
		if orders[i].ID == id {
			return true
		}
	}
	return false
}

// SessionManager owns the live sessions and evicts idle ones
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time
	logger      *zap.Logger
}

// NewSessionManager creates a new session manager holding at most maxSessions live sessions
func NewSessionManager(idleTTL time.Duration, maxSessions int) *SessionManager {
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &SessionManager{
		sessions:    make(map[string]*Session),
		idleTTL:     idleTTL,
		maxSessions: maxSessions,
		now:         time.Now,
		logger:      util.GetLogger(),
	}
}

// Create starts a new empty session. At capacity the least recently used session is dropped.
func (m *SessionManager) Create() *Session {
	s := newSession(m.now())

	var dropped *Session
	m.mu.Lock()
	if len(m.sessions) >= m.maxSessions {
		dropped = m.oldestLocked()
		if dropped != nil {
			delete(m.sessions, dropped.ID)
		}
	}
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	if dropped != nil {
		dropped.close()
		util.SessionsDropped.Inc()
	}
	util.SessionsActive.Set(float64(n))
	return s
}

func (m *SessionManager) oldestLocked() *Session {
	var oldest *Session
	for _, s := range m.sessions {
		if oldest == nil || s.lastSeen.Load() < oldest.lastSeen.Load() {
			oldest = s
		}
	}
	return oldest
}

// Get returns a live session and marks it as used
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	now := m.now()
	if s.idleSince(now) > m.idleTTL {
		m.remove(id)
		return nil, ErrSessionNotFound
	}
	s.touch(now)
	return s, nil
}

// Len returns the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle drops sessions idle longer than the idle TTL and returns how many went
func (m *SessionManager) EvictIdle() int {
	now := m.now()

	m.mu.Lock()
	evicted := make([]*Session, 0)
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idleTTL {
			delete(m.sessions, id)
			evicted = append(evicted, s)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range evicted {
		s.close()
	}
	util.SessionsActive.Set(float64(n))
	return len(evicted)
}

// Run evicts idle sessions periodically until ctx is cancelled
func (m *SessionManager) Run(ctx context.Context) {
	interval := m.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("Session janitor started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Session janitor stopped")
			return
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 {
				m.logger.Debug("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (m *SessionManager) remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		s.close()
	}
	util.SessionsActive.Set(float64(n))
}
