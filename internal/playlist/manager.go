package playlist

import (
	"sync"

	"photoframe/internal/logging"
	"photoframe/internal/provider"
)

// SortField selects the ordering applied when shuffling is off.
type SortField string

const (
	SortByName     SortField = "name"
	SortByCreated  SortField = "created"
	SortByModified SortField = "modified"
)

// Policy describes how a batch is ordered and filtered.
type Policy struct {
	// ShowAllBeforeRestart filters out already-shown photos until
	// every photo has been displayed once.
	ShowAllBeforeRestart bool

	// Randomize shuffles the batch; otherwise SortBy/Descending apply.
	Randomize  bool
	SortBy     SortField
	Descending bool
}

// Manager holds the current batch, its cursor, and the stashed next
// batch. Next/Previous are driven sequentially by the orchestrator's
// timer; the mutex protects against the background preload path.
type Manager struct {
	shown *ShownTracker
	log   *logging.Logger

	mu      sync.Mutex
	current []provider.Photo
	cursor  int
	next    []provider.Photo
	hasNext bool
}

// NewManager returns a Manager using the given shown tracker, which
// may be nil when the show-all-before-repeat policy is never used.
func NewManager(shown *ShownTracker) *Manager {
	return &Manager{
		shown: shown,
		log:   logging.New("playlist"),
	}
}

// Prepare filters, orders and installs a batch. With isPreload the
// result is stashed as the next batch instead of replacing the current
// one. If shown-filtering would empty a non-empty source and this is
// not a preload, the tracker is reset and the full source is used, so
// the slideshow always makes forward progress.
func (m *Manager) Prepare(items []provider.Photo, policy Policy, isPreload bool) {
	list := dedupe(items)

	if policy.ShowAllBeforeRestart && m.shown != nil {
		filtered := make([]provider.Photo, 0, len(list))
		for _, p := range list {
			if !m.shown.Contains(p.Identity()) {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 && len(list) > 0 && !isPreload {
			m.log.Info("All %d photos shown, resetting tracker", len(list))
			if err := m.shown.Reset(); err != nil {
				m.log.Warn("Shown tracker reset failed: %v", err)
			}
		} else {
			list = filtered
		}
	}

	if policy.Randomize {
		Shuffle(list)
	} else {
		SortPhotos(list, policy.SortBy, policy.Descending)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if isPreload {
		m.next = list
		m.hasNext = len(list) > 0
		m.log.Debug("Stashed next batch of %d photos", len(list))
		return
	}
	m.current = list
	m.cursor = 0
	m.log.Debug("Installed batch of %d photos", len(list))
}

// Next returns the photo at the cursor and advances it. A nil return
// means the batch is exhausted and the orchestrator should roll over.
func (m *Manager) Next() *provider.Photo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor >= len(m.current) {
		return nil
	}
	p := m.current[m.cursor]
	m.cursor++
	return &p
}

// Previous rewinds the cursor by two (undoing the last advance and
// stepping back one), clamped at zero, then serves like Next.
func (m *Manager) Previous() *provider.Photo {
	m.mu.Lock()
	m.cursor -= 2
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.mu.Unlock()
	return m.Next()
}

// SwitchToPreloaded atomically replaces the current batch with the
// stashed next batch and resets the cursor. No-op without a stash.
func (m *Manager) SwitchToPreloaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasNext {
		return false
	}
	m.current = m.next
	m.cursor = 0
	m.next = nil
	m.hasNext = false
	m.log.Debug("Switched to preloaded batch of %d photos", len(m.current))
	return true
}

// HasPreloaded reports whether a next batch is stashed.
func (m *Manager) HasPreloaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasNext
}

// Remaining returns how many photos are left at or after the cursor.
func (m *Manager) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.current) - m.cursor
}

// Progress returns the 1-based position of the most recently served
// photo and the batch size.
func (m *Manager) Progress() (position, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, len(m.current)
}

// Upcoming returns the photos at and after the cursor, for preloading.
func (m *Manager) Upcoming() []provider.Photo {
	m.mu.Lock()
	defer m.mu.Unlock()
	rest := m.current[m.cursor:]
	out := make([]provider.Photo, len(rest))
	copy(out, rest)
	return out
}

// MarkShown records a served photo in the shown tracker.
func (m *Manager) MarkShown(p provider.Photo) {
	if m.shown == nil {
		return
	}
	if err := m.shown.Add(p.Identity()); err != nil {
		m.log.Warn("Recording shown photo %s failed: %v", p.Identity(), err)
	}
}

// ResetShown clears the in-memory set and the persisted store.
func (m *Manager) ResetShown() error {
	if m.shown == nil {
		return nil
	}
	return m.shown.Reset()
}

// dedupe removes photos sharing a provider identity. The last-seen
// duplicate's data wins; it keeps the position of the first
// occurrence.
func dedupe(items []provider.Photo) []provider.Photo {
	out := make([]provider.Photo, 0, len(items))
	byIdentity := make(map[string]int, len(items))
	for _, p := range items {
		id := p.Identity()
		if pos, ok := byIdentity[id]; ok {
			out[pos] = p
			continue
		}
		byIdentity[id] = len(out)
		out = append(out, p)
	}
	return out
}
