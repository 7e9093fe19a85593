// Package graphbuilder maintains the similarity graph: a cached table
// of pairwise cosine similarities between note embeddings, clustered
// into connected components for visualization.
package graphbuilder

import (
	"database/sql"
	"math"
	"time"

	"github.com/salvadalba/sunder/internal/embedding"
	"github.com/salvadalba/sunder/internal/store"
	"github.com/salvadalba/sunder/internal/sundererr"
)

// Node is one note as it appears in the graph, tagged with the
// cluster it was assigned to.
type Node struct {
	ID      string
	Title   string
	Cluster int
}

// Edge is a cached similarity above the query threshold.
type Edge struct {
	Source string
	Target string
	Weight float64
}

// Data is a full graph view: every note as a node, every cached
// similarity at or above the threshold as an edge.
type Data struct {
	Nodes []Node
	Edges []Edge
}

// Service rebuilds and queries the similarity_cache table.
type Service struct {
	db *store.DB
}

// New wires a Service to db.
func New(db *store.DB) *Service {
	return &Service{db: db}
}

// Graph returns every note as a node, clustered by connected
// components of edges at or above threshold. center is currently
// unused by the clustering itself but is accepted so callers can
// later bias layout around a focal note without an API change.
func (s *Service) Graph(center string, threshold float64) (*Data, error) {
	var (
		ids    []string
		titles map[string]string
		edges  []Edge
	)
	titles = make(map[string]string)

	err := s.db.Read(func(conn *sql.DB) error {
		rows, err := conn.Query(`SELECT id, title FROM notes`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id, title string
			if err := rows.Scan(&id, &title); err != nil {
				return err
			}
			ids = append(ids, id)
			titles[id] = title
		}
		if err := rows.Err(); err != nil {
			return err
		}

		edgeRows, err := conn.Query(
			`SELECT note_id_a, note_id_b, similarity FROM similarity_cache WHERE similarity >= ?`,
			threshold,
		)
		if err != nil {
			return err
		}
		defer edgeRows.Close()
		for edgeRows.Next() {
			var e Edge
			if err := edgeRows.Scan(&e.Source, &e.Target, &e.Weight); err != nil {
				return err
			}
			edges = append(edges, e)
		}
		return edgeRows.Err()
	})
	if err != nil {
		return nil, sundererr.DatabaseError(err)
	}

	clusters := unionFindClusters(ids, edges)
	nodes := make([]Node, len(ids))
	for i, id := range ids {
		nodes[i] = Node{ID: id, Title: titles[id], Cluster: clusters[id]}
	}

	return &Data{Nodes: nodes, Edges: edges}, nil
}

// RebuildForNote recomputes similarity_cache rows between noteID and
// every other embedded note. A no-op if noteID has no embedding yet.
func (s *Service) RebuildForNote(noteID string) error {
	embeddings, err := s.allEmbeddings()
	if err != nil {
		return err
	}
	target, ok := embeddings[noteID]
	if !ok {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	return s.db.Write(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`DELETE FROM similarity_cache WHERE note_id_a = ? OR note_id_b = ?`, noteID, noteID,
		); err != nil {
			return err
		}

		for otherID, otherVec := range embeddings {
			if otherID == noteID {
				continue
			}
			a, b := canonicalPair(noteID, otherID)
			sim := cosineSimilarity(target, otherVec)
			if _, err := tx.Exec(
				`INSERT INTO similarity_cache (note_id_a, note_id_b, similarity, updated_at) VALUES (?, ?, ?, ?)`,
				a, b, sim, now,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveForNote deletes every cached similarity row touching noteID.
// Callers must run this when a note is deleted: similarity_cache has
// no foreign-key cascade, so a stale edge would otherwise survive the
// note it pointed to.
func (s *Service) RemoveForNote(noteID string) error {
	err := s.db.Write(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`DELETE FROM similarity_cache WHERE note_id_a = ? OR note_id_b = ?`, noteID, noteID,
		)
		return err
	})
	if err != nil {
		return sundererr.DatabaseError(err)
	}
	return nil
}

// RebuildAll truncates and recomputes the entire similarity_cache from
// scratch, returning the number of pairs inserted.
func (s *Service) RebuildAll() (int, error) {
	embeddings, err := s.allEmbeddings()
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(embeddings))
	for id := range embeddings {
		ids = append(ids, id)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	count := 0
	err = s.db.Write(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM similarity_cache`); err != nil {
			return err
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := canonicalPair(ids[i], ids[j])
				sim := cosineSimilarity(embeddings[ids[i]], embeddings[ids[j]])
				if _, err := tx.Exec(
					`INSERT INTO similarity_cache (note_id_a, note_id_b, similarity, updated_at) VALUES (?, ?, ?, ?)`,
					a, b, sim, now,
				); err != nil {
					return err
				}
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, sundererr.DatabaseError(err)
	}
	return count, nil
}

func (s *Service) allEmbeddings() (map[string][]float32, error) {
	embeddings := make(map[string][]float32)
	err := s.db.Read(func(conn *sql.DB) error {
		rows, err := conn.Query(`SELECT note_id, vector FROM embeddings`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			var blob []byte
			if err := rows.Scan(&id, &blob); err != nil {
				return err
			}
			embeddings[id] = embedding.FromBlob(blob)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, sundererr.DatabaseError(err)
	}
	return embeddings, nil
}

// canonicalPair orders two note ids so similarity_cache's CHECK
// (note_id_a < note_id_b) constraint is always satisfied.
func canonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		da, db := float64(a[i]), float64(b[i])
		dot += da * db
		normA += da * da
		normB += db * db
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// unionFindClusters assigns each id a sequential cluster number,
// starting at 0, in the order its component is first encountered.
func unionFindClusters(ids []string, edges []Edge) map[string]int {
	idToIdx := make(map[string]int, len(ids))
	for i, id := range ids {
		idToIdx[id] = i
	}

	uf := newUnionFind(len(ids))
	for _, e := range edges {
		ai, aok := idToIdx[e.Source]
		bi, bok := idToIdx[e.Target]
		if aok && bok {
			uf.union(ai, bi)
		}
	}

	clusters := make(map[string]int, len(ids))
	rootToCluster := make(map[int]int)
	next := 0
	for _, id := range ids {
		root := uf.find(idToIdx[id])
		c, ok := rootToCluster[root]
		if !ok {
			c = next
			rootToCluster[root] = c
			next++
		}
		clusters[id] = c
	}
	return clusters
}
