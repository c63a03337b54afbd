package enrichment

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/statementworks/folio/internal/database"
	"github.com/statementworks/folio/internal/domain"
)

// Cache is the per-process enrichment cache: concurrent reads, at most one
// write per symbol. Answers survive across runs in sqlite so a symbol is
// never re-queried once a confident answer exists; Flush is the explicit
// persistence point.
type Cache struct {
	db  *database.DB // nil means memory-only (tests)
	log zerolog.Logger

	mu      sync.RWMutex
	entries map[string]domain.Enrichment
	dirty   map[string]bool
}

// NewCache loads previously persisted answers. A nil db yields a
// memory-only cache.
func NewCache(db *database.DB, log zerolog.Logger) (*Cache, error) {
	c := &Cache{
		db:      db,
		log:     log.With().Str("repository", "enrichment_cache").Logger(),
		entries: make(map[string]domain.Enrichment),
		dirty:   make(map[string]bool),
	}
	if db == nil {
		return c, nil
	}

	rows, err := db.Query(`SELECT symbol, payload FROM enrichment_cache`)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrichment cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol string
		var payload []byte
		if err := rows.Scan(&symbol, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan enrichment cache row: %w", err)
		}
		var enr domain.Enrichment
		if err := msgpack.Unmarshal(payload, &enr); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Dropping undecodable cache entry")
			continue
		}
		c.entries[symbol] = enr
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrichment cache: %w", err)
	}

	c.log.Debug().Int("entries", len(c.entries)).Msg("Enrichment cache loaded")
	return c, nil
}

// Get returns the cached answer for a symbol, if any.
func (c *Cache) Get(symbol string) (domain.Enrichment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	enr, ok := c.entries[symbol]
	return enr, ok
}

// Put stores an answer. The first write for a symbol wins; later writes
// are ignored so concurrent workers cannot flap a cached answer.
func (c *Cache) Put(symbol string, enr domain.Enrichment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[symbol]; exists {
		return
	}
	c.entries[symbol] = enr
	c.dirty[symbol] = true
}

// Len reports the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Flush persists entries added since the last flush.
func (c *Cache) Flush() error {
	if c.db == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.dirty) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache flush: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO enrichment_cache (symbol, payload, source, confidence, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			payload = excluded.payload,
			source = excluded.source,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for symbol := range c.dirty {
		enr := c.entries[symbol]
		payload, err := msgpack.Marshal(enr)
		if err != nil {
			return fmt.Errorf("failed to encode cache entry for %s: %w", symbol, err)
		}
		if _, err := stmt.Exec(symbol, payload, enr.Source, enr.Confidence, now); err != nil {
			return fmt.Errorf("failed to upsert cache entry for %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache flush: %w", err)
	}

	c.log.Debug().Int("flushed", len(c.dirty)).Msg("Enrichment cache flushed")
	c.dirty = make(map[string]bool)
	return nil
}
