package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"letrado/internal/logging"
	"letrado/internal/types"
)

// detectVecExtension probes for sqlite-vec by creating a throwaway
// vec0 virtual table. The extension is only registered when the binary
// is built with the sqlite_vec tag.
func (s *LegalStore) detectVecExtension() {
	if s.db == nil {
		return
	}
	if _, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS vec_probe USING vec0(embedding float[4])"); err == nil {
		s.vectorExt = true
		_, _ = s.db.Exec("DROP TABLE IF EXISTS vec_probe")
		return
	}
	s.vectorExt = false
}

// VecAvailable reports whether the sqlite-vec ANN path is active.
func (s *LegalStore) VecAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectorExt
}

// ensureVecTable creates the ANN index table once the embedding
// dimensionality is known. Rows share their rowid with passages.id.
func (s *LegalStore) ensureVecTable(dims int) error {
	_, err := s.db.Exec(fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS vec_passages USING vec0(embedding float[%d])", dims))
	return err
}

// encodeFloat32Blob serializes an embedding as the little-endian blob
// sqlite-vec expects.
func encodeFloat32Blob(vec []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil
	}
	return buf.Bytes()
}

// indexPassageVec mirrors one passage embedding into the ANN table.
// Failures are logged, not fatal: the JSON-column scan still works.
func (s *LegalStore) indexPassageVec(rowID int64, vec []float32) {
	if !s.vectorExt {
		return
	}
	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO vec_passages (rowid, embedding) VALUES (?, ?)",
		rowID, encodeFloat32Blob(vec),
	); err != nil {
		logging.StoreDebug("Failed to index passage %d in vec_passages: %v", rowID, err)
	}
}

// searchPassagesVec ranks passages with sqlite-vec's cosine distance.
// Distance ties break by passage id, the underlying index order.
func (s *LegalStore) searchPassagesVec(queryEmbedding []float32, limit int) ([]types.Passage, error) {
	rows, err := s.db.Query(`
		SELECT p.content, p.source, p.title, p.url, p.metadata,
			vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_passages v
		JOIN passages p ON p.id = v.rowid
		ORDER BY distance ASC, p.id ASC
		LIMIT ?`,
		encodeFloat32Blob(queryEmbedding), limit)
	if err != nil {
		return nil, fmt.Errorf("vec search failed: %w", err)
	}
	defer rows.Close()

	var results []types.Passage
	for rows.Next() {
		var p types.Passage
		var source, metaJSON string
		var distance float64
		if err := rows.Scan(&p.Text, &source, &p.Title, &p.URL, &metaJSON, &distance); err != nil {
			continue
		}
		p.Source = types.SourceKind(source)
		p.Score = 1 - distance
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &p.Metadata)
		}
		results = append(results, p)
	}
	return results, rows.Err()
}
