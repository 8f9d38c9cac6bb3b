// Package cache provides a content-addressed store for compiled artifacts,
// so recompiling an unchanged source file skips decoding and generation.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Artifact is one cached compilation result.
type Artifact struct {
	IR       string // rendered LLVM IR
	TapeSize int
	Origin   int
	Triple   string
}

// Store is an artifact cache backed by a single SQLite table.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS artifacts (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating artifacts table: %w", err)
	}

	return &Store{db: db}, nil
}

// Key derives the cache key for the given source bytes, target triple, and
// tape-size override (0 when the analyzed extent is used). All three feed
// the generated IR, so all three address the artifact.
func Key(source []byte, triple string, tapeSize int) string {
	h := sha256.New()
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(triple))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", tapeSize)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached artifact for key, or false on a miss. Corrupt
// rows count as misses, not errors.
func (s *Store) Get(key string) (*Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow("SELECT data FROM artifacts WHERE key = ?", key).Scan(&data)
	if err != nil {
		return nil, false
	}
	var a Artifact
	if err := cbor.Unmarshal(data, &a); err != nil {
		return nil, false
	}
	return &a, true
}

// Put stores an artifact under key, replacing any previous entry.
func (s *Store) Put(key string, a *Artifact) error {
	data, err := cborEncMode.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO artifacts (key, data) VALUES (?, ?)", key, data,
	); err != nil {
		return fmt.Errorf("storing artifact: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
