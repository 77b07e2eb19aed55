// Package sqlite provides a SQLite-backed vector store. Vectors are
// stored as little-endian float32 blobs and searched by brute-force
// cosine similarity, which is adequate for per-project knowledge bases
// of a few thousand chunks.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Qq88537794/Xingyun/internal/adapters/driven/vector/sqlite/migrations"
	"github.com/Qq88537794/Xingyun/internal/core/domain"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-based vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite vector store at the specified data
// directory. If dataDir is empty, defaults to ~/.xingyun/data/vectors.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".xingyun", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert inserts or replaces points, creating the collection if needed.
// The whole batch is applied in one transaction so a query never sees a
// half-written resource. Replaced points keep their insertion order.
func (s *Store) Upsert(ctx context.Context, collection string, points []driven.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	dimensions := len(points[0].Vector)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO collections (name, dimensions) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, collection, dimensions)
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO points (id, collection, vector, text, resource_id, project_id, filename, chunk_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			vector = excluded.vector,
			text = excluded.text,
			resource_id = excluded.resource_id,
			project_id = excluded.project_id,
			filename = excluded.filename,
			chunk_index = excluded.chunk_index
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.ExecContext(ctx, p.ID, collection, encodeVector(p.Vector),
			p.Payload.Text, p.Payload.ResourceID, p.Payload.ProjectID,
			p.Payload.Filename, p.Payload.ChunkIndex)
		if err != nil {
			return fmt.Errorf("upserting point %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Query returns up to topK results by cosine similarity descending,
// ties broken by insertion order. A missing collection yields an empty
// result set.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists || topK <= 0 {
		return []domain.RetrievalResult{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT vector, text, resource_id, project_id, filename, chunk_index
		FROM points WHERE collection = ? ORDER BY seq
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	type scored struct {
		result domain.RetrievalResult
		score  float64
	}
	var candidates []scored
	for rows.Next() {
		var blob []byte
		var text, filename string
		var resourceID, projectID, chunkIndex int
		if err := rows.Scan(&blob, &text, &resourceID, &projectID, &filename, &chunkIndex); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}

		score := cosineSimilarity(vector, decodeVector(blob))
		candidates = append(candidates, scored{
			result: domain.RetrievalResult{
				Text:       text,
				Score:      clampScore(score),
				ResourceID: resourceID,
				Metadata: map[string]any{
					"project_id":  projectID,
					"filename":    filename,
					"chunk_index": chunkIndex,
				},
			},
			score: score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}

	// Stable sort preserves the seq order for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	results := make([]domain.RetrievalResult, len(candidates))
	for i, c := range candidates {
		results[i] = c.result
	}
	return results, nil
}

// DeleteByResource removes every point tagged with the resource id in
// one statement, so concurrent queries see all of the resource's chunks
// or none. Deleting an unknown resource is a no-op.
func (s *Store) DeleteByResource(ctx context.Context, collection string, resourceID int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM points WHERE collection = ? AND resource_id = ?
	`, collection, resourceID)
	if err != nil {
		return fmt.Errorf("deleting resource points: %w", err)
	}
	return nil
}

// CollectionExists reports whether the collection has been created.
func (s *Store) CollectionExists(ctx context.Context, collection string) (bool, error) {
	var name string
	row := s.db.QueryRowContext(ctx, "SELECT name FROM collections WHERE name = ?", collection)
	if err := row.Scan(&name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("checking collection: %w", err)
	}
	return true, nil
}

// encodeVector serialises a vector as little-endian float32 bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector deserialises little-endian float32 bytes.
func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
