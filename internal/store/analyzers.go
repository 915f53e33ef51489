package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// QueryAnalyzer is a saved query analysis definition. It mirrors Extractor
// but its examples are chat transcripts rather than raw text.
type QueryAnalyzer struct {
	ID          string          `json:"uuid"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
	Instruction string          `json:"instruction"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// QueryAnalyzerExample is a stored few-shot example for a query analyzer.
// Messages holds the serialized conversation that produced Output.
type QueryAnalyzerExample struct {
	ID         string          `json:"uuid"`
	AnalyzerID string          `json:"analyzer_id"`
	Messages   json.RawMessage `json:"messages"`
	Output     json.RawMessage `json:"output"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (s *Store) CreateQueryAnalyzer(ctx context.Context, name, description string, schema json.RawMessage, instruction string) (QueryAnalyzer, error) {
	rec := QueryAnalyzer{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Schema:      schema,
		Instruction: instruction,
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO query_analyzers (id, name, description, json_schema, instruction)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, rec.ID, rec.Name, rec.Description, []byte(rec.Schema), rec.Instruction)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return QueryAnalyzer{}, err
	}
	return rec, nil
}

func (s *Store) GetQueryAnalyzer(ctx context.Context, id string) (QueryAnalyzer, error) {
	var rec QueryAnalyzer
	var schema []byte
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, json_schema, instruction, created_at, updated_at
		FROM query_analyzers WHERE id = $1
	`, id)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Description, &schema, &rec.Instruction, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, ErrNotFound
		}
		return rec, err
	}
	rec.Schema = schema
	return rec, nil
}

func (s *Store) ListQueryAnalyzers(ctx context.Context, limit, offset int) ([]QueryAnalyzer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, json_schema, instruction, created_at, updated_at
		FROM query_analyzers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QueryAnalyzer
	for rows.Next() {
		var rec QueryAnalyzer
		var schema []byte
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &schema, &rec.Instruction, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Schema = schema
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) DeleteQueryAnalyzer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM query_analyzers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateQueryAnalyzerExample(ctx context.Context, analyzerID string, messages, output json.RawMessage) (QueryAnalyzerExample, error) {
	rec := QueryAnalyzerExample{
		ID:         uuid.NewString(),
		AnalyzerID: analyzerID,
		Messages:   messages,
		Output:     output,
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO query_analyzer_examples (id, analyzer_id, messages, output)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, rec.ID, rec.AnalyzerID, []byte(rec.Messages), []byte(rec.Output))
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return QueryAnalyzerExample{}, err
	}
	return rec, nil
}

func (s *Store) ListQueryAnalyzerExamples(ctx context.Context, analyzerID string) ([]QueryAnalyzerExample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, analyzer_id, messages, output, created_at
		FROM query_analyzer_examples
		WHERE analyzer_id = $1
		ORDER BY created_at ASC
	`, analyzerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QueryAnalyzerExample
	for rows.Next() {
		var rec QueryAnalyzerExample
		var messages, output []byte
		if err := rows.Scan(&rec.ID, &rec.AnalyzerID, &messages, &output, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Messages = messages
		rec.Output = output
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) DeleteQueryAnalyzerExample(ctx context.Context, analyzerID, exampleID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM query_analyzer_examples WHERE id = $1 AND analyzer_id = $2
	`, exampleID, analyzerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
