// Package archive keeps every generated word cloud in PostgreSQL together
// with the ranking it was rendered from.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
	apperrors "github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/resilience"
)

const schema = `CREATE TABLE IF NOT EXISTS word_clouds (
    id          BIGSERIAL PRIMARY KEY,
    document_id TEXT NOT NULL,
    title       TEXT NOT NULL,
    k           INTEGER NOT NULL,
    ranking     JSONB NOT NULL,
    html        TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS word_clouds_document_idx ON word_clouds (document_id, created_at DESC)`

// Record is one archived word cloud.
type Record struct {
	ID         int64             `json:"id"`
	DocumentID string            `json:"document_id"`
	Title      string            `json:"title"`
	K          int               `json:"k"`
	Ranking    frequency.Ranking `json:"ranking"`
	HTML       string            `json:"-"`
	CreatedAt  time.Time         `json:"created_at"`
}

type Store struct {
	db           *postgres.Client
	writeTimeout time.Duration
	logger       *slog.Logger
}

func NewStore(db *postgres.Client, writeTimeout time.Duration) *Store {
	return &Store{
		db:           db,
		writeTimeout: writeTimeout,
		logger:       slog.Default().With("component", "cloud-archive"),
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating word_clouds: %w", err)
	}
	return nil
}

// Save inserts rec and returns its ID. The write is bounded by the store's
// write timeout.
func (s *Store) Save(ctx context.Context, rec Record) (int64, error) {
	ranking, err := json.Marshal(rec.Ranking)
	if err != nil {
		return 0, fmt.Errorf("marshaling ranking: %w", err)
	}
	var id int64
	err = resilience.WithTimeout(ctx, s.writeTimeout, "archive-save", func(ctx context.Context) error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			return tx.QueryRowContext(ctx,
				`INSERT INTO word_clouds (document_id, title, k, ranking, html, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
				rec.DocumentID, rec.Title, rec.K, ranking, rec.HTML, time.Now().UTC(),
			).Scan(&id)
		})
	})
	if err != nil {
		return 0, fmt.Errorf("archiving word cloud: %w", err)
	}
	s.logger.Debug("word cloud archived", "id", id, "document_id", rec.DocumentID, "k", rec.K)
	return id, nil
}

// Get loads a single record including its HTML.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	var rec Record
	var ranking []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT id, document_id, title, k, ranking, html, created_at FROM word_clouds WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.DocumentID, &rec.Title, &rec.K, &ranking, &rec.HTML, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFoundf("word cloud %d does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying word cloud %d: %w", id, err)
	}
	if err := json.Unmarshal(ranking, &rec.Ranking); err != nil {
		return nil, fmt.Errorf("unmarshaling ranking: %w", err)
	}
	return &rec, nil
}

// List returns the newest records for documentID (all documents when
// empty), without their HTML.
func (s *Store) List(ctx context.Context, documentID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, document_id, title, k, ranking, created_at FROM word_clouds
		 WHERE $1 = '' OR document_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`,
		documentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing word clouds: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		var ranking []byte
		if err := rows.Scan(&rec.ID, &rec.DocumentID, &rec.Title, &rec.K, &ranking, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning word cloud row: %w", err)
		}
		if err := json.Unmarshal(ranking, &rec.Ranking); err != nil {
			s.logger.Warn("skipping corrupt archive row", "id", rec.ID, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
