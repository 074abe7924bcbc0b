package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"interviewnotes/api/internal/notes"
	"interviewnotes/api/internal/util"
)

const noteColumns = `id, interview_id, COALESCE(comment_id, ''), COALESCE(anchor_text, ''), content, COALESCE(parent_id, ''), author_name, created_at, updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// GetTranscript returns sql.ErrNoRows when the interview has no stored document.
func (s *PostgresStore) GetTranscript(ctx context.Context, interviewID string) (Transcript, error) {
	var item Transcript
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT interview_id, document_json::text, updated_by_name, updated_at
		FROM interview_transcripts
		WHERE interview_id=$1
	`, interviewID).Scan(&item.InterviewID, &raw, &item.UpdatedBy, &item.UpdatedAt)
	if err != nil {
		return Transcript{}, err
	}
	item.Document = json.RawMessage(raw)
	return item, nil
}

func (s *PostgresStore) SaveTranscript(ctx context.Context, item Transcript) (Transcript, error) {
	if !json.Valid(item.Document) {
		return Transcript{}, fmt.Errorf("save transcript: document is not valid json")
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO interview_transcripts (interview_id, document_json, updated_by_name)
		VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (interview_id) DO UPDATE
		SET document_json=EXCLUDED.document_json, updated_by_name=EXCLUDED.updated_by_name, updated_at=NOW()
		RETURNING updated_at
	`, item.InterviewID, string(item.Document), item.UpdatedBy).Scan(&item.UpdatedAt)
	if err != nil {
		return Transcript{}, fmt.Errorf("save transcript: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListNotes(ctx context.Context, interviewID string) ([]notes.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM interview_notes
		WHERE interview_id=$1
		ORDER BY created_at ASC, id ASC
	`, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// ListAllNotes returns every note of every interview for full reindexing.
func (s *PostgresStore) ListAllNotes(ctx context.Context) ([]notes.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM interview_notes
		ORDER BY interview_id ASC, created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

func (s *PostgresStore) GetNote(ctx context.Context, noteID string) (notes.Note, error) {
	item, err := scanNote(s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM interview_notes WHERE id=$1`, noteID))
	if errors.Is(err, sql.ErrNoRows) {
		return notes.Note{}, notes.ErrNotFound
	}
	if err != nil {
		return notes.Note{}, fmt.Errorf("get note: %w", err)
	}
	return item, nil
}

// AddNote inserts a note or reply. Replies to a reply attach to the thread
// root so threads stay one level deep.
func (s *PostgresStore) AddNote(ctx context.Context, input notes.NewNote) (notes.Note, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return notes.Note{}, notes.ErrEmptyContent
	}

	parentID := strings.TrimSpace(input.ParentID)
	commentID := strings.TrimSpace(input.CommentID)
	anchorText := notes.NormalizeAnchorText(input.AnchorText)
	if parentID != "" {
		parent, err := s.GetNote(ctx, parentID)
		if err != nil {
			return notes.Note{}, err
		}
		if parent.InterviewID != input.InterviewID {
			return notes.Note{}, notes.ErrNotFound
		}
		if parent.IsReply() {
			parentID = parent.ParentID
		}
		commentID, anchorText = "", ""
	}

	item, err := scanNote(s.db.QueryRowContext(ctx, `
		INSERT INTO interview_notes (id, interview_id, comment_id, anchor_text, content, parent_id, author_name)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''), $7)
		RETURNING `+noteColumns,
		util.NewID("note"), input.InterviewID, commentID, anchorText, content, parentID, input.Author,
	))
	if err != nil {
		return notes.Note{}, fmt.Errorf("insert note: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateNote(ctx context.Context, noteID, content string) (notes.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return notes.Note{}, notes.ErrEmptyContent
	}
	item, err := scanNote(s.db.QueryRowContext(ctx, `
		UPDATE interview_notes
		SET content=$2, updated_at=NOW()
		WHERE id=$1
		RETURNING `+noteColumns,
		noteID, content,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return notes.Note{}, notes.ErrNotFound
	}
	if err != nil {
		return notes.Note{}, fmt.Errorf("update note: %w", err)
	}
	return item, nil
}

// DeleteNote removes a note; replies go with it through the parent_id cascade.
func (s *PostgresStore) DeleteNote(ctx context.Context, noteID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM interview_notes WHERE id=$1`, noteID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note rows: %w", err)
	}
	if affected == 0 {
		return notes.ErrNotFound
	}
	return nil
}

// SearchNotes matches content and anchor text case-insensitively. An empty
// interviewID searches every interview.
func (s *PostgresStore) SearchNotes(ctx context.Context, interviewID, query string, limit int) ([]notes.Note, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM interview_notes
		WHERE ($1 = '' OR interview_id=$1)
		  AND (content ILIKE $2 OR COALESCE(anchor_text, '') ILIKE $2)
		ORDER BY updated_at DESC, id ASC
		LIMIT $3
	`, interviewID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (notes.Note, error) {
	var item notes.Note
	err := row.Scan(
		&item.ID,
		&item.InterviewID,
		&item.CommentID,
		&item.AnchorText,
		&item.Content,
		&item.ParentID,
		&item.Author,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func scanNotes(rows *sql.Rows) ([]notes.Note, error) {
	items := make([]notes.Note, 0)
	for rows.Next() {
		item, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return items, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
