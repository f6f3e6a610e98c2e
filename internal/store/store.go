// Package store persists the legal corpus and generated documents in
// SQLite: passages with their embeddings for semantic retrieval,
// composed documents with their citations, and contract-analysis
// results as a one-to-one side table.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"letrado/internal/embedding"
	"letrado/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// LegalStore wraps the SQLite database behind the persistence
// operations the pipelines need.
type LegalStore struct {
	db              *sql.DB
	mu              sync.RWMutex
	dbPath          string
	embeddingEngine embedding.Engine
	vectorExt       bool
}

// NewLegalStore initializes the SQLite database at the given path.
// Use ":memory:" for an ephemeral store. With requireVec set, opening
// fails fast when the sqlite-vec extension is not available.
func NewLegalStore(path string, requireVec bool) (*LegalStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewLegalStore")
	defer timer.Stop()

	logging.Store("Initializing LegalStore at path: %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}

	store := &LegalStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	store.detectVecExtension()
	if requireVec && !store.vectorExt {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec extension not available; rebuild with the sqlite_vec tag to enable ANN search")
	}
	if store.vectorExt {
		logging.Store("sqlite-vec extension detected and enabled")
	} else {
		logging.StoreDebug("sqlite-vec extension not available; ranking falls back to the embedding column scan")
	}

	return store, nil
}

// initialize creates the required tables.
func (s *LegalStore) initialize() error {
	passagesTable := `
	CREATE TABLE IF NOT EXISTS passages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		embedding TEXT,
		source TEXT NOT NULL,
		title TEXT DEFAULT '',
		url TEXT DEFAULT '',
		metadata TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source);
	`

	documentsTable := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		content_md TEXT NOT NULL,
		citations TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(type);
	`

	// One analysis row per document; re-analysis replaces the row.
	analysesTable := `
	CREATE TABLE IF NOT EXISTS analyses (
		document_id TEXT PRIMARY KEY REFERENCES documents(id),
		state TEXT NOT NULL,
		original TEXT NOT NULL,
		translated TEXT NOT NULL DEFAULT '[]',
		classification TEXT NOT NULL DEFAULT '{}',
		checklist TEXT NOT NULL DEFAULT '[]',
		citations TEXT NOT NULL DEFAULT '[]',
		report TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	for _, table := range []string{passagesTable, documentsTable, analysesTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// SetEmbeddingEngine configures the embedding engine for this store.
// Without one, passage search falls back to keyword matching.
func (s *LegalStore) SetEmbeddingEngine(engine embedding.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddingEngine = engine

	if s.vectorExt && engine != nil {
		if err := s.ensureVecTable(engine.Dimensions()); err != nil {
			logging.StoreDebug("Failed to create vec_passages table, disabling ANN path: %v", err)
			s.vectorExt = false
		}
	}
}

// Stats returns corpus statistics.
func (s *LegalStore) Stats() (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})

	var totalPassages int64
	s.db.QueryRow("SELECT COUNT(*) FROM passages").Scan(&totalPassages)
	stats["passages"] = totalPassages

	var withEmbeddings int64
	s.db.QueryRow("SELECT COUNT(*) FROM passages WHERE embedding IS NOT NULL").Scan(&withEmbeddings)
	stats["with_embeddings"] = withEmbeddings

	var totalDocuments int64
	s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&totalDocuments)
	stats["documents"] = totalDocuments

	var totalAnalyses int64
	s.db.QueryRow("SELECT COUNT(*) FROM analyses").Scan(&totalAnalyses)
	stats["analyses"] = totalAnalyses

	if s.embeddingEngine != nil {
		stats["embedding_engine"] = s.embeddingEngine.Name()
	} else {
		stats["embedding_engine"] = "none (keyword search)"
	}
	stats["vector_index"] = s.vectorExt

	return stats, nil
}

// Close closes the underlying database.
func (s *LegalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
