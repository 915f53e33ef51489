package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Extractor is a saved extraction definition: a JSON Schema describing the
// desired output plus an optional instruction prepended to the system prompt.
type Extractor struct {
	ID          string          `json:"uuid"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
	Instruction string          `json:"instruction"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExtractorExample is a stored few-shot example for an extractor.
type ExtractorExample struct {
	ID          string          `json:"uuid"`
	ExtractorID string          `json:"extractor_id"`
	Content     string          `json:"content"`
	Output      json.RawMessage `json:"output"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (s *Store) CreateExtractor(ctx context.Context, name, description string, schema json.RawMessage, instruction string) (Extractor, error) {
	rec := Extractor{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Schema:      schema,
		Instruction: instruction,
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO extractors (id, name, description, json_schema, instruction)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, rec.ID, rec.Name, rec.Description, []byte(rec.Schema), rec.Instruction)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Extractor{}, err
	}
	return rec, nil
}

func (s *Store) GetExtractor(ctx context.Context, id string) (Extractor, error) {
	var rec Extractor
	var schema []byte
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, json_schema, instruction, created_at, updated_at
		FROM extractors WHERE id = $1
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

func (s *Store) ListExtractors(ctx context.Context, limit, offset int) ([]Extractor, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, json_schema, instruction, created_at, updated_at
		FROM extractors
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Extractor
	for rows.Next() {
		var rec Extractor
		var schema []byte
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &schema, &rec.Instruction, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Schema = schema
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) UpdateExtractor(ctx context.Context, id, name, description string, schema json.RawMessage, instruction string) (Extractor, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE extractors
		SET name = $2, description = $3, json_schema = $4, instruction = $5, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, id, name, description, []byte(schema), instruction)
	rec := Extractor{ID: id, Name: name, Description: description, Schema: schema, Instruction: instruction}
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, ErrNotFound
		}
		return rec, err
	}
	return rec, nil
}

func (s *Store) DeleteExtractor(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM extractors WHERE id = $1`, id)
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

func (s *Store) CreateExtractorExample(ctx context.Context, extractorID, content string, output json.RawMessage) (ExtractorExample, error) {
	rec := ExtractorExample{
		ID:          uuid.NewString(),
		ExtractorID: extractorID,
		Content:     content,
		Output:      output,
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO extractor_examples (id, extractor_id, content, output)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, rec.ID, rec.ExtractorID, rec.Content, []byte(rec.Output))
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return ExtractorExample{}, err
	}
	return rec, nil
}

func (s *Store) ListExtractorExamples(ctx context.Context, extractorID string) ([]ExtractorExample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, extractor_id, content, output, created_at
		FROM extractor_examples
		WHERE extractor_id = $1
		ORDER BY created_at ASC
	`, extractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExtractorExample
	for rows.Next() {
		var rec ExtractorExample
		var output []byte
		if err := rows.Scan(&rec.ID, &rec.ExtractorID, &rec.Content, &output, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Output = output
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) DeleteExtractorExample(ctx context.Context, extractorID, exampleID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM extractor_examples WHERE id = $1 AND extractor_id = $2
	`, exampleID, extractorID)
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
