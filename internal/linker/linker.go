// Package linker surfaces latent links: notes whose embeddings are
// close to a piece of content, independent of any explicit link the
// user wrote. Results for identical content are cached by a bounded
// LRU so repeated typing in an editor doesn't re-run ANN search.
package linker

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/salvadalba/sunder/internal/embedding"
	"github.com/salvadalba/sunder/internal/noterepo"
	"github.com/salvadalba/sunder/internal/store"
)

// minWordsForLinking is the shortest content that is worth embedding;
// shorter snippets produce unstable nearest-neighbor results.
const minWordsForLinking = 3

// cacheCapacity bounds the latent-link cache's memory use.
const cacheCapacity = 64

// Link is one latent-link candidate.
type Link struct {
	NoteID     string
	Title      string
	Similarity float64
	Snippet    string
}

// Embedder is the subset of *embedding.Embedder Linker needs.
type Embedder interface {
	EmbedText(text string) ([]float32, error)
}

// Service computes and caches latent links.
type Service struct {
	db       *store.DB
	embedder Embedder

	mu    sync.Mutex
	cache *lru
}

// New wires a Service to db and embedder.
func New(db *store.DB, embedder Embedder) *Service {
	return &Service{db: db, embedder: embedder, cache: newLRU(cacheCapacity)}
}

// LatentLinks returns up to limit notes whose embedding is within
// threshold similarity of content, excluding excludeNoteID (typically
// the note content was drawn from). Content shorter than three
// whitespace-separated tokens yields no links.
func (s *Service) LatentLinks(content, excludeNoteID string, threshold float64, limit int) ([]Link, error) {
	if len(strings.Fields(content)) < minWordsForLinking {
		return nil, nil
	}

	key := contentHash(content)

	s.mu.Lock()
	cached, hit := s.cache.get(key)
	s.mu.Unlock()

	if hit {
		return filterLinks(cached, excludeNoteID, threshold, limit), nil
	}

	vec, err := s.embedder.EmbedText(content)
	if err != nil {
		return nil, err
	}

	fetchLimit := limit * 3
	if fetchLimit < 20 {
		fetchLimit = 20
	}

	all, err := s.nearestNeighbors(vec, fetchLimit)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache.put(key, all)
	s.mu.Unlock()

	return filterLinks(all, excludeNoteID, threshold, limit), nil
}

func filterLinks(all []Link, excludeNoteID string, threshold float64, limit int) []Link {
	filtered := make([]Link, 0, len(all))
	for _, l := range all {
		if l.NoteID == excludeNoteID {
			continue
		}
		if l.Similarity < threshold {
			continue
		}
		filtered = append(filtered, l)
		if len(filtered) == limit {
			break
		}
	}
	return filtered
}

func (s *Service) nearestNeighbors(vec []float32, fetchLimit int) ([]Link, error) {
	blob := embedding.ToBlob(vec)

	var links []Link
	err := s.db.Read(func(conn *sql.DB) error {
		rows, err := conn.Query(
			`SELECT v.note_id, v.distance, n.title, n.content
			 FROM vec_embeddings v
			 JOIN notes n ON n.id = v.note_id
			 WHERE v.embedding MATCH ?
			 ORDER BY v.distance
			 LIMIT ?`,
			blob, fetchLimit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var noteID, title, content string
			var distance float64
			if err := rows.Scan(&noteID, &distance, &title, &content); err != nil {
				return err
			}
			links = append(links, Link{
				NoteID:     noteID,
				Title:      title,
				Similarity: 1.0 - distance,
				Snippet:    noterepo.Snippet(content),
			})
		}
		return rows.Err()
	})
	return links, err
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
