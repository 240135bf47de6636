// Package cache stores derived engine results in a local SQLite database,
// keyed by athlete, result kind and a hash of the exact input.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Result kinds.
const (
	KindWorkload = "workload"
	KindEnergy   = "energy"
)

// Cache is a content-addressed result cache. It is safe for concurrent use.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at dir/cache.db.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "cache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS results (
		athlete_id  TEXT NOT NULL,
		kind        TEXT NOT NULL,
		input_hash  TEXT NOT NULL,
		payload     TEXT NOT NULL,
		created_at  INTEGER NOT NULL,
		PRIMARY KEY (athlete_id, kind, input_hash)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating results table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get decodes a cached result into out. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, athleteID, kind string, input, out any) (bool, error) {
	hash, err := HashInput(input)
	if err != nil {
		return false, err
	}
	var payload string
	err = c.db.QueryRowContext(ctx,
		`SELECT payload FROM results WHERE athlete_id = ? AND kind = ? AND input_hash = ?`,
		athleteID, kind, hash,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cached %s: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", kind, err)
	}
	return true, nil
}

// Put stores value as the result for input, replacing any earlier entry.
func (c *Cache) Put(ctx context.Context, athleteID, kind string, input, value any) error {
	hash, err := HashInput(input)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", kind, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO results (athlete_id, kind, input_hash, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		athleteID, kind, hash, string(payload), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cached %s: %w", kind, err)
	}
	return nil
}

// Prune deletes entries created before cutoff and returns how many were removed.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM results WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// HashInput returns the hex SHA-256 of input's JSON encoding. encoding/json
// sorts map keys, so equal inputs hash equally.
func HashInput(input any) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("hashing input: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
