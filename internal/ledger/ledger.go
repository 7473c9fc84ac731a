// Package ledger provides the SQLite-backed daily dedup ledger. A key in the
// ledger means "already notified for this date/kind/bucket" and suppresses
// re-emission, surviving process restarts.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mtanaka-dev/tsescan/internal/logger"
	"github.com/mtanaka-dev/tsescan/internal/models"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database holding dedup keys for all trading dates.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/tsescan/ledger.db.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "tsescan", "ledger.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dedup_keys (
			trade_date TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			kind       TEXT NOT NULL,
			bucket     INTEGER NOT NULL,
			alert_id   TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (trade_date, symbol, kind, bucket)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dedup_keys_date ON dedup_keys(trade_date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ledger is the dedup key set for one trading date. Its lifetime is the
// date itself: a new calendar date needs a fresh Ledger. The full partition
// is read into memory once on first use; Record appends durably before
// touching the in-memory set, so a crash can never mark an alert as sent
// without it being on disk.
type Ledger struct {
	store     *Store
	tradeDate string

	mu     sync.Mutex
	loaded bool
	keys   map[models.DedupKey]struct{}
}

// ForDate returns the ledger scoped to the given trading date.
func (s *Store) ForDate(tradeDate string) *Ledger {
	return &Ledger{store: s, tradeDate: tradeDate}
}

// TradeDate returns the trading date this ledger is scoped to.
func (l *Ledger) TradeDate() string {
	return l.tradeDate
}

// load reads the full key set for the partition into memory. A missing or
// empty partition simply means no alerts yet today. Callers hold l.mu.
func (l *Ledger) load() error {
	if l.loaded {
		return nil
	}
	rows, err := l.store.db.Query(
		`SELECT symbol, kind, bucket FROM dedup_keys WHERE trade_date = ?`, l.tradeDate)
	if err != nil {
		return fmt.Errorf("failed to load ledger partition %s: %w", l.tradeDate, err)
	}
	defer rows.Close()

	keys := make(map[models.DedupKey]struct{})
	for rows.Next() {
		k := models.DedupKey{TradeDate: l.tradeDate}
		if err := rows.Scan(&k.Symbol, &k.Kind, &k.Bucket); err != nil {
			return fmt.Errorf("failed to scan dedup key: %w", err)
		}
		keys[k] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read ledger partition %s: %w", l.tradeDate, err)
	}

	l.keys = keys
	l.loaded = true
	logger.Debug("Loaded %d dedup keys for %s", len(keys), l.tradeDate)
	return nil
}

// Contains reports whether the key is already recorded for this date.
// Pure lookup; triggers the lazy partition load on first use.
func (l *Ledger) Contains(symbol, kind string, bucket int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return false, err
	}
	key := models.DedupKey{TradeDate: l.tradeDate, Symbol: symbol, Kind: kind, Bucket: bucket}
	_, ok := l.keys[key]
	return ok, nil
}

// Record durably appends the key, then inserts it into the in-memory set.
// Recording an existing key is a logged no-op. A storage failure propagates
// and leaves the in-memory set untouched; silently updating only memory
// would let a crash re-send or lose the alert.
func (l *Ledger) Record(symbol, kind string, bucket int, alertID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return err
	}

	key := models.DedupKey{TradeDate: l.tradeDate, Symbol: symbol, Kind: kind, Bucket: bucket}
	if _, ok := l.keys[key]; ok {
		logger.Debug("Suppressed duplicate dedup key %s", key)
		return nil
	}

	if alertID == "" {
		alertID = uuid.New().String()
	}
	_, err := l.store.db.Exec(`
		INSERT OR IGNORE INTO dedup_keys
			(trade_date, symbol, kind, bucket, alert_id, created_at)
		VALUES (?,?,?,?,?,?)`,
		l.tradeDate, symbol, kind, bucket, alertID, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record dedup key %s: %w", key, err)
	}

	l.keys[key] = struct{}{}
	return nil
}

// Count returns the number of keys recorded for this date.
func (l *Ledger) Count() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return 0, err
	}
	return len(l.keys), nil
}
