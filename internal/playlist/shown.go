package playlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"photoframe/internal/logging"
)

// ShownTracker persists the identities of already-displayed photos as
// an append-only text file, one identity per line, with an in-memory
// set for lookups.
type ShownTracker struct {
	path string
	log  *logging.Logger

	mu   sync.Mutex
	seen map[string]bool
}

// NewShownTracker loads the tracker file if it exists. A missing file
// starts an empty tracker; a read failure does too, with a warning,
// because losing the shown history only means some repeats.
func NewShownTracker(path string) *ShownTracker {
	t := &ShownTracker{
		path: path,
		log:  logging.New("shown"),
		seen: make(map[string]bool),
	}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			t.log.Warn("Loading %s failed: %v", path, err)
		}
		return t
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			t.seen[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		t.log.Warn("Reading %s failed: %v", path, err)
	}

	t.log.Debug("Loaded %d shown identities", len(t.seen))
	return t
}

// Contains reports whether the identity has been displayed.
func (t *ShownTracker) Contains(identity string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen[identity]
}

// Add appends an identity to the file and the in-memory set.
// Re-adding a known identity is a no-op.
func (t *ShownTracker) Add(identity string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen[identity] {
		return nil
	}

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open shown tracker: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, identity); err != nil {
		return fmt.Errorf("append shown identity: %w", err)
	}

	t.seen[identity] = true
	return nil
}

// Count returns how many identities are tracked.
func (t *ShownTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

// Reset clears the in-memory set and truncates the persisted store.
func (t *ShownTracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seen = make(map[string]bool)
	if err := os.Truncate(t.path, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("truncate shown tracker: %w", err)
	}
	return nil
}
