package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"letrado/internal/embedding"
	"letrado/internal/logging"
	"letrado/internal/types"
)

// StorePassage persists one corpus passage. With an embedding engine
// configured the passage is embedded for semantic search; otherwise it
// is stored for keyword search only.
func (s *LegalStore) StorePassage(ctx context.Context, item types.IngestItem) error {
	timer := logging.StartTimer(logging.CategoryStore, "StorePassage")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	metaJSON, _ := json.Marshal(item.Meta)

	if s.embeddingEngine == nil {
		_, err := s.db.Exec(
			"INSERT INTO passages (content, source, title, url, metadata) VALUES (?, ?, ?, ?, ?)",
			item.Text, string(item.Source), item.Title, item.URL, string(metaJSON),
		)
		return err
	}

	vecs, err := s.embeddingEngine.EmbedBatch(ctx, []string{item.Text})
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}
	embeddingJSON, err := json.Marshal(vecs[0])
	if err != nil {
		return fmt.Errorf("failed to serialize embedding: %w", err)
	}

	res, err := s.db.Exec(
		"INSERT INTO passages (content, embedding, source, title, url, metadata) VALUES (?, ?, ?, ?, ?, ?)",
		item.Text, string(embeddingJSON), string(item.Source), item.Title, item.URL, string(metaJSON),
	)
	if err != nil {
		return err
	}
	if rowID, err := res.LastInsertId(); err == nil {
		s.indexPassageVec(rowID, vecs[0])
	}
	return nil
}

// SearchPassages performs semantic search over the corpus, ranked by
// cosine similarity against the query embedding. Falls back to keyword
// matching when no embedding engine is configured.
func (s *LegalStore) SearchPassages(ctx context.Context, query string, limit int) ([]types.Passage, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SearchPassages")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return nil, nil
	}

	if s.embeddingEngine == nil {
		return s.searchPassagesKeyword(query, limit)
	}

	queryEmbedding, err := s.embeddingEngine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	if s.vectorExt {
		return s.searchPassagesVec(queryEmbedding, limit)
	}

	rows, err := s.db.Query(
		"SELECT id, content, embedding, source, title, url, metadata FROM passages WHERE embedding IS NOT NULL",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type candidate struct {
		passage    types.Passage
		similarity float64
		rowID      int64
	}

	var candidates []candidate

	for rows.Next() {
		var rowID int64
		var content, embeddingJSON, source, title, url, metaJSON string

		if err := rows.Scan(&rowID, &content, &embeddingJSON, &source, &title, &url, &metaJSON); err != nil {
			continue
		}

		var embeddingVec []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &embeddingVec); err != nil {
			continue
		}

		similarity, err := embedding.CosineSimilarity(queryEmbedding, embeddingVec)
		if err != nil {
			continue
		}

		p := types.Passage{
			Text:   content,
			Title:  title,
			Source: types.SourceKind(source),
			URL:    url,
			Score:  similarity,
		}
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &p.Metadata)
		}

		candidates = append(candidates, candidate{passage: p, similarity: similarity, rowID: rowID})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Sort by similarity descending. Candidates arrive in rowid order
	// and the sort is stable, so ties keep the underlying index order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]types.Passage, len(candidates))
	for i, c := range candidates {
		results[i] = c.passage
	}

	logging.StoreDebug("SearchPassages returned %d results (limit=%d)", len(results), limit)
	return results, nil
}

// searchPassagesKeyword is the fallback keyword-based search.
func (s *LegalStore) searchPassagesKeyword(query string, limit int) ([]types.Passage, error) {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, nil
	}

	var conditions []string
	var args []interface{}
	for _, kw := range keywords {
		conditions = append(conditions, "LOWER(content) LIKE ?")
		args = append(args, "%"+kw+"%")
	}

	sqlQuery := fmt.Sprintf(
		"SELECT content, source, title, url, metadata FROM passages WHERE %s ORDER BY id LIMIT ?",
		strings.Join(conditions, " OR "),
	)
	args = append(args, limit)

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []types.Passage
	for rows.Next() {
		var p types.Passage
		var source, metaJSON string
		if err := rows.Scan(&p.Text, &source, &p.Title, &p.URL, &metaJSON); err != nil {
			continue
		}
		p.Source = types.SourceKind(source)
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &p.Metadata)
		}
		results = append(results, p)
	}

	return results, rows.Err()
}

// ReembedAllPassages regenerates embeddings for passages that lack
// them. Useful after switching from keyword-only to semantic search.
func (s *LegalStore) ReembedAllPassages(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingEngine == nil {
		return fmt.Errorf("no embedding engine configured")
	}

	rows, err := s.db.Query("SELECT id, content FROM passages WHERE embedding IS NULL")
	if err != nil {
		return err
	}
	defer rows.Close()

	type pending struct {
		id      int64
		content string
	}

	var passages []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.content); err != nil {
			continue
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(passages) == 0 {
		return nil
	}

	batchSize := 32
	for i := 0; i < len(passages); i += batchSize {
		end := i + batchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[i:end]

		texts := make([]string, len(batch))
		for j, p := range batch {
			texts[j] = p.content
		}

		embeddings, err := s.embeddingEngine.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to generate batch embeddings: %w", err)
		}

		for j, p := range batch {
			embeddingJSON, _ := json.Marshal(embeddings[j])
			if _, err := s.db.Exec(
				"UPDATE passages SET embedding = ? WHERE id = ?",
				string(embeddingJSON), p.id,
			); err != nil {
				return fmt.Errorf("failed to update passage %d: %w", p.id, err)
			}
			s.indexPassageVec(p.id, embeddings[j])
		}
	}

	return nil
}
