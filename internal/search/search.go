// Package search implements lexical, semantic, and hybrid (RRF) note
// search over the store's FTS5 and vec0 indexes.
package search

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/salvadalba/sunder/internal/embedding"
	"github.com/salvadalba/sunder/internal/noterepo"
	"github.com/salvadalba/sunder/internal/store"
	"github.com/salvadalba/sunder/internal/sundererr"
)

// Mode selects which index(es) a search draws from.
type Mode string

const (
	ModeHybrid   Mode = "hybrid"
	ModeFulltext Mode = "fulltext"
	ModeSemantic Mode = "semantic"
)

// Result is one ranked hit.
type Result struct {
	ID        string
	Title     string
	Snippet   string
	Score     float64
	MatchType string // "fulltext", "semantic", or "both"
}

type scoredNote struct {
	id      string
	title   string
	snippet string
	score   float64
}

// Embedder is the subset of *embedding.Embedder that Search needs.
type Embedder interface {
	EmbedText(text string) ([]float32, error)
}

// Service runs searches against a shared store.DB and Embedder.
type Service struct {
	db       *store.DB
	embedder Embedder
}

// New wires a Service to db and embedder.
func New(db *store.DB, embedder Embedder) *Service {
	return &Service{db: db, embedder: embedder}
}

// Search runs query in the given mode, returning at most limit
// results ordered best-first. Returns sundererr.KindEmptyQuery if
// query is blank after trimming.
func (s *Service) Search(query string, mode Mode, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, sundererr.EmptyQuery()
	}

	switch mode {
	case ModeFulltext:
		notes, err := s.fulltextSearch(query, limit)
		if err != nil {
			return nil, err
		}
		return tagResults(notes, "fulltext"), nil
	case ModeSemantic:
		vec, err := s.embedder.EmbedText(query)
		if err != nil {
			return nil, err
		}
		notes, err := s.semanticSearch(vec, limit)
		if err != nil {
			return nil, err
		}
		return tagResults(notes, "semantic"), nil
	default:
		return s.hybridSearch(query, limit)
	}
}

func tagResults(notes []scoredNote, matchType string) []Result {
	results := make([]Result, len(notes))
	for i, n := range notes {
		results[i] = Result{ID: n.id, Title: n.title, Snippet: n.snippet, Score: n.score, MatchType: matchType}
	}
	return results
}

func (s *Service) fulltextSearch(query string, limit int) ([]scoredNote, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, nil
	}

	var notes []scoredNote
	err := s.db.Read(func(conn *sql.DB) error {
		rows, err := conn.Query(
			`SELECT n.id, n.title, n.content, bm25(notes_fts) as rank
			 FROM notes_fts
			 JOIN notes n ON n.rowid = notes_fts.rowid
			 WHERE notes_fts MATCH ?
			 ORDER BY rank
			 LIMIT ?`,
			sanitized, limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var n scoredNote
			var content string
			var rank float64
			if err := rows.Scan(&n.id, &n.title, &content, &rank); err != nil {
				return err
			}
			n.snippet = noterepo.Snippet(content)
			n.score = abs(rank)
			notes = append(notes, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, sundererr.DatabaseError(err)
	}
	return notes, nil
}

func (s *Service) semanticSearch(queryEmbedding []float32, limit int) ([]scoredNote, error) {
	blob := embedding.ToBlob(queryEmbedding)

	var notes []scoredNote
	err := s.db.Read(func(conn *sql.DB) error {
		rows, err := conn.Query(
			`SELECT v.note_id, v.distance, n.title, n.content
			 FROM vec_embeddings v
			 JOIN notes n ON n.id = v.note_id
			 WHERE v.embedding MATCH ?
			 ORDER BY v.distance
			 LIMIT ?`,
			blob, limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var n scoredNote
			var content string
			var distance float64
			if err := rows.Scan(&n.id, &distance, &n.title, &content); err != nil {
				return err
			}
			n.snippet = noterepo.Snippet(content)
			n.score = 1.0 - distance
			notes = append(notes, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, sundererr.DatabaseError(err)
	}
	return notes, nil
}

// rrfK is the Reciprocal Rank Fusion smoothing constant.
const rrfK = 60.0

type rrfEntry struct {
	score     float64
	title     string
	snippet   string
	matchType string
}

func (s *Service) hybridSearch(query string, limit int) ([]Result, error) {
	ftsResults, err := s.fulltextSearch(query, limit*2)
	if err != nil {
		return nil, err
	}
	vec, err := s.embedder.EmbedText(query)
	if err != nil {
		return nil, err
	}
	semResults, err := s.semanticSearch(vec, limit*2)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]*rrfEntry)

	for rank, r := range ftsResults {
		rrfScore := 1.0 / (rrfK + float64(rank) + 1.0)
		if e, ok := scores[r.id]; ok {
			e.score += rrfScore
		} else {
			scores[r.id] = &rrfEntry{score: rrfScore, title: r.title, snippet: r.snippet, matchType: "fulltext"}
		}
	}

	for rank, r := range semResults {
		rrfScore := 1.0 / (rrfK + float64(rank) + 1.0)
		if e, ok := scores[r.id]; ok {
			e.score += rrfScore
			if e.matchType == "fulltext" {
				e.matchType = "both"
			}
		} else {
			scores[r.id] = &rrfEntry{score: rrfScore, title: r.title, snippet: r.snippet, matchType: "semantic"}
		}
	}

	combined := make([]Result, 0, len(scores))
	for id, e := range scores {
		combined = append(combined, Result{ID: id, Title: e.title, Snippet: e.snippet, Score: e.score, MatchType: e.matchType})
	}

	sort.Slice(combined, func(i, j int) bool { return combined[i].Score > combined[j].Score })
	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
