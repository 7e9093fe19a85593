// Package indexer drives embedding generation: indexing a single
// note's content into the embeddings/vec_embeddings tables, and
// reindexing every note in the store with a single exclusive worker.
package indexer

import (
	"database/sql"
	"strings"
	"sync/atomic"
	"time"

	"github.com/salvadalba/sunder/internal/embedding"
	"github.com/salvadalba/sunder/internal/store"
	"github.com/salvadalba/sunder/internal/sundererr"
)

// modelVersion tags every stored embedding, so a future model swap can
// be detected and trigger a reindex instead of silently mixing vectors
// from two different encoders.
const modelVersion = "minilm-v2-q8"

// minWordsToIndex skips embedding near-empty notes; their vectors are
// unstable and rarely useful neighbors.
const minWordsToIndex = 3

// ProgressFunc reports reindex progress: indexed and total note
// counts, and the title of the note just processed.
type ProgressFunc func(indexed, total int, title string)

// Embedder is the subset of *embedding.Embedder the indexer needs.
type Embedder interface {
	EmbedText(text string) ([]float32, error)
}

// Service indexes note content and guards against concurrent full
// reindexes with a compare-and-swap flag.
type Service struct {
	db        *store.DB
	embedder  Embedder
	reindexing atomic.Bool
}

// New wires a Service to db and embedder.
func New(db *store.DB, embedder Embedder) *Service {
	return &Service{db: db, embedder: embedder}
}

// IndexNote embeds content and stores the result in both the
// embeddings table and the vec0 ANN index, replacing any prior vector
// for noteID.
func (s *Service) IndexNote(noteID, content string) error {
	vec, err := s.embedder.EmbedText(content)
	if err != nil {
		return err
	}
	blob := embedding.ToBlob(vec)
	now := time.Now().UTC().Format(time.RFC3339)

	err = s.db.Write(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO embeddings (note_id, vector, model_version, updated_at) VALUES (?, ?, ?, ?)`,
			noteID, blob, modelVersion, now,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM vec_embeddings WHERE note_id = ?`, noteID); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO vec_embeddings (note_id, embedding) VALUES (?, ?)`, noteID, blob)
		return err
	})
	if err != nil {
		return sundererr.DatabaseError(err)
	}
	return nil
}

// RemoveEmbedding deletes noteID's vector from both embedding tables.
func (s *Service) RemoveEmbedding(noteID string) error {
	err := s.db.Write(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM embeddings WHERE note_id = ?`, noteID); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM vec_embeddings WHERE note_id = ?`, noteID)
		return err
	})
	if err != nil {
		return sundererr.DatabaseError(err)
	}
	return nil
}

// ReindexAll re-embeds every note in the store, reporting progress via
// progress (which may be nil). Only one reindex runs at a time;
// concurrent callers get sundererr.KindAlreadyRunning.
func (s *Service) ReindexAll(progress ProgressFunc) (int, error) {
	if !s.reindexing.CompareAndSwap(false, true) {
		return 0, sundererr.AlreadyRunning()
	}
	defer s.reindexing.Store(false)

	type noteRow struct{ id, title, content string }
	var notes []noteRow

	err := s.db.Read(func(conn *sql.DB) error {
		rows, err := conn.Query(`SELECT id, title, content FROM notes`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var n noteRow
			if err := rows.Scan(&n.id, &n.title, &n.content); err != nil {
				return err
			}
			notes = append(notes, n)
		}
		return rows.Err()
	})
	if err != nil {
		return 0, sundererr.DatabaseError(err)
	}

	total := len(notes)
	indexed := 0
	for _, n := range notes {
		if len(strings.Fields(n.content)) < minWordsToIndex {
			indexed++
			continue
		}
		if err := s.IndexNote(n.id, n.content); err != nil {
			return indexed, err
		}
		indexed++
		if progress != nil {
			progress(indexed, total, n.title)
		}
		if indexed%10 == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	return indexed, nil
}
