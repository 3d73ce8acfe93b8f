package geocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photoframe/internal/logging"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// coordFactor rounds coordinates to 4 decimal places (~11 m), enough
// that photos taken at the same spot share one cache row.
const coordFactor = 1e4

// DB is the reverse-geocoding result cache.
type DB struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *logging.Logger
}

// New opens (or creates) the cache database at dbPath. The parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*DB, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect geocode cache: %w", err)
	}

	d := &DB{db: db, log: logging.New("geocache")}
	if err := d.initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize geocode cache schema: %w", err)
	}

	d.log.Info("Geocode cache ready at %s", dbPath)
	return d, nil
}

func (d *DB) initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	schema := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		lat INTEGER NOT NULL,
		lon INTEGER NOT NULL,
		address TEXT NOT NULL,
		short_address TEXT NOT NULL,
		resolved_at DATETIME NOT NULL,
		PRIMARY KEY (lat, lon)
	);`
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Get returns the cached addresses for a coordinate pair, if present.
func (d *DB) Get(ctx context.Context, lat, lon float64) (address, short string, ok bool, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx,
		"SELECT address, short_address FROM geocode_cache WHERE lat = ? AND lon = ?",
		roundCoord(lat), roundCoord(lon))
	if err := row.Scan(&address, &short); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	return address, short, true, nil
}

// Put stores a resolved address pair, replacing any previous row for
// the same rounded coordinates.
func (d *DB) Put(ctx context.Context, lat, lon float64, address, short string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (lat, lon, address, short_address, resolved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(lat, lon) DO UPDATE SET
			address = excluded.address,
			short_address = excluded.short_address,
			resolved_at = excluded.resolved_at
	`, roundCoord(lat), roundCoord(lon), address, short, time.Now().UTC())
	return err
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// roundCoord quantizes a coordinate for use as a key column. Stored as
// an integer to avoid float equality comparisons in SQL.
func roundCoord(v float64) int64 {
	return int64(math.Round(v * coordFactor))
}
