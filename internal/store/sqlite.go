package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS passages (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        collection TEXT NOT NULL,
        content TEXT NOT NULL,
        embedding_json TEXT -- JSON array of float32
    );
    CREATE INDEX IF NOT EXISTS idx_passages_collection ON passages (collection);

    CREATE TABLE IF NOT EXISTS transaction_groups (
        id TEXT PRIMARY KEY, -- UUID
        user_question TEXT NOT NULL,
        similarity_score REAL,
        operation TEXT CHECK (operation IS NULL OR operation IN ('web_search', 'knowledge_base')),
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS transaction_items (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        group_id TEXT NOT NULL,
        operation TEXT NOT NULL,
        model TEXT NOT NULL,
        tokens_input INTEGER NOT NULL DEFAULT 0,
        tokens_output INTEGER NOT NULL DEFAULT 0,
        cost REAL NOT NULL DEFAULT 0,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (group_id) REFERENCES transaction_groups (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Passage methods (knowledge base)

func (s *SQLiteStore) CreatePassage(ctx context.Context, p *Passage) error {
	embeddingBytes, err := json.Marshal(p.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	p.EmbeddingJSON = string(embeddingBytes)

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO passages (collection, content, embedding_json) VALUES (?, ?, ?)",
		p.Collection, p.Content, p.EmbeddingJSON)
	if err != nil {
		return fmt.Errorf("failed to insert passage: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	return nil
}

// GetPassages loads every passage of a collection. Rows with an unreadable embedding are
// returned with a nil Embedding.
func (s *SQLiteStore) GetPassages(ctx context.Context, collection string) ([]Passage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, collection, content, embedding_json FROM passages WHERE collection = ? ORDER BY id", collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query passages: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var p Passage
		var embeddingJSON sql.NullString
		if err := rows.Scan(&p.ID, &p.Collection, &p.Content, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan passage row: %w", err)
		}
		if embeddingJSON.Valid && embeddingJSON.String != "" {
			p.EmbeddingJSON = embeddingJSON.String
			if err := json.Unmarshal([]byte(embeddingJSON.String), &p.Embedding); err != nil {
				log.Warn().Err(err).Int64("passage_id", p.ID).Msg("failed to unmarshal embedding, passage will not be searchable")
				p.Embedding = nil
			}
		} else {
			log.Warn().Int64("passage_id", p.ID).Msg("empty embedding, passage will not be searchable")
		}
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

func (s *SQLiteStore) ClearCollection(ctx context.Context, collection string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM passages WHERE collection = ?", collection)
	if err != nil {
		return 0, fmt.Errorf("failed to delete passages: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Ledger methods

// EnsureGroup creates the group if it does not exist yet. A non-nil score fills an empty
// similarity_score on an existing group; the question of an existing group is never changed.
func (s *SQLiteStore) EnsureGroup(ctx context.Context, groupID, userQuestion string, similarityScore *float64) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO transaction_groups (id, user_question, similarity_score, created_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            similarity_score = COALESCE(transaction_groups.similarity_score, excluded.similarity_score)`,
		groupID, userQuestion, nullFloat(similarityScore), time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert transaction group: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordItem(ctx context.Context, item *TransactionItem) error {
	item.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO transaction_items (group_id, operation, model, tokens_input, tokens_output, cost, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.GroupID, string(item.Operation), item.Model, item.TokensInput, item.TokensOutput, item.Cost, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction item: %w", err)
	}
	item.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) SetGroupOperation(ctx context.Context, groupID string, op Operation) error {
	if op != OperationKnowledgeBase && op != OperationWebSearch {
		return fmt.Errorf("operation %q cannot tag a transaction group", op)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE transaction_groups SET operation = ? WHERE id = ?", string(op), groupID)
	if err != nil {
		return fmt.Errorf("failed to update group operation: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("transaction group %s not found, operation not updated", groupID)
	}
	return nil
}

// GetGroup returns nil, nil when the group does not exist.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*TransactionGroup, error) {
	var g TransactionGroup
	var score sql.NullFloat64
	var op sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_question, similarity_score, operation, created_at FROM transaction_groups WHERE id = ?", groupID).
		Scan(&g.ID, &g.UserQuestion, &score, &op, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction group: %w", err)
	}
	if score.Valid {
		g.SimilarityScore = &score.Float64
	}
	if op.Valid {
		o := Operation(op.String)
		g.Operation = &o
	}
	return &g, nil
}

// ListItems returns the items of one group, or of every group when groupID is empty.
func (s *SQLiteStore) ListItems(ctx context.Context, groupID string) ([]TransactionItem, error) {
	query := "SELECT id, group_id, operation, model, tokens_input, tokens_output, cost, created_at FROM transaction_items"
	var args []any
	if groupID != "" {
		query += " WHERE group_id = ?"
		args = append(args, groupID)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction items: %w", err)
	}
	defer rows.Close()

	var items []TransactionItem
	for rows.Next() {
		var it TransactionItem
		var op string
		if err := rows.Scan(&it.ID, &it.GroupID, &op, &it.Model, &it.TokensInput, &it.TokensOutput, &it.Cost, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction item row: %w", err)
		}
		it.Operation = Operation(op)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) CostSummary(ctx context.Context) (*CostSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT operation, COUNT(*), COALESCE(SUM(cost), 0), COALESCE(SUM(tokens_input), 0), COALESCE(SUM(tokens_output), 0)
        FROM transaction_items
        GROUP BY operation`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate costs: %w", err)
	}
	defer rows.Close()

	summary := &CostSummary{ByOperation: map[Operation]OperationCost{}}
	for rows.Next() {
		var op string
		var oc OperationCost
		if err := rows.Scan(&op, &oc.Count, &oc.Cost, &oc.TokensInput, &oc.TokensOutput); err != nil {
			return nil, fmt.Errorf("failed to scan cost row: %w", err)
		}
		summary.ByOperation[Operation(op)] = oc
		summary.Operations += oc.Count
		summary.TotalCost += oc.Cost
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if summary.Operations > 0 {
		summary.AverageCost = summary.TotalCost / float64(summary.Operations)
	}
	return summary, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
