package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"interviewnotes/api/internal/notes"
	"interviewnotes/api/internal/store"
	"interviewnotes/api/internal/transcript"
)

type fakeStore struct {
	mu          sync.Mutex
	transcripts map[string]store.Transcript
	notes       []notes.Note
	seq         int
	pingFn      func(context.Context) error
	addErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{transcripts: map[string]store.Transcript{}}
}

func (f *fakeStore) withTranscript(interviewID, doc string) *fakeStore {
	f.transcripts[interviewID] = store.Transcript{InterviewID: interviewID, Document: json.RawMessage(doc)}
	return f
}

func (f *fakeStore) GetTranscript(_ context.Context, interviewID string) (store.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.transcripts[interviewID]
	if !ok {
		return store.Transcript{}, sql.ErrNoRows
	}
	return item, nil
}

func (f *fakeStore) SaveTranscript(_ context.Context, item store.Transcript) (store.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.UpdatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.transcripts[item.InterviewID] = item
	return item, nil
}

func (f *fakeStore) ListNotes(_ context.Context, interviewID string) ([]notes.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notes.Note, 0)
	for _, n := range f.notes {
		if n.InterviewID == interviewID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllNotes(context.Context) ([]notes.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notes.Note(nil), f.notes...), nil
}

func (f *fakeStore) GetNote(_ context.Context, noteID string) (notes.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notes {
		if n.ID == noteID {
			return n, nil
		}
	}
	return notes.Note{}, notes.ErrNotFound
}

func (f *fakeStore) AddNote(_ context.Context, input notes.NewNote) (notes.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return notes.Note{}, f.addErr
	}
	f.seq++
	n := notes.Note{
		ID:          fmt.Sprintf("note_%d", f.seq),
		InterviewID: input.InterviewID,
		CommentID:   input.CommentID,
		AnchorText:  input.AnchorText,
		Content:     input.Content,
		ParentID:    input.ParentID,
		Author:      input.Author,
	}
	f.notes = append(f.notes, n)
	return n, nil
}

func (f *fakeStore) UpdateNote(_ context.Context, noteID, content string) (notes.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		if f.notes[i].ID == noteID {
			f.notes[i].Content = content
			return f.notes[i], nil
		}
	}
	return notes.Note{}, notes.ErrNotFound
}

func (f *fakeStore) DeleteNote(_ context.Context, noteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.notes)
	f.notes = notes.WithoutNote(f.notes, noteID)
	if len(f.notes) == before {
		return notes.ErrNotFound
	}
	return nil
}

func (f *fakeStore) SearchNotes(_ context.Context, interviewID, query string, limit int) ([]notes.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notes.Note, 0)
	for _, n := range f.notes {
		if interviewID != "" && n.InterviewID != interviewID {
			continue
		}
		if strings.Contains(strings.ToLower(n.Content+" "+n.AnchorText), strings.ToLower(query)) {
			out = append(out, n)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	gets    int
	hits    int
}

func (c *fakeCache) Key(interviewID string, doc *transcript.Node, all []notes.Note) (string, error) {
	raw, _ := json.Marshal(doc)
	ids := make([]string, 0, len(all))
	for _, n := range all {
		ids = append(ids, n.ID+"/"+n.CommentID)
	}
	return interviewID + ":" + string(raw) + ":" + strings.Join(ids, ","), nil
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	html, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return html, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, html string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]string{}
	}
	c.entries[key] = html
	return nil
}

func (c *fakeCache) Ping(context.Context) error { return nil }

type fakeBlobs struct {
	objects map[string][]byte
	calls   int
}

func (b *fakeBlobs) FetchRaw(_ context.Context, interviewID string) ([]byte, error) {
	b.calls++
	raw, ok := b.objects[interviewID]
	if !ok {
		return nil, blobNotFound
	}
	return raw, nil
}
