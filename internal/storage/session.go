package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Generation run states, in pipeline order.
const (
	StateNoTOC        = "no_toc"
	StateTOCGenerated = "toc_generated"
	StateTOCReloaded  = "toc_reloaded"
	StateInProgress   = "chapters_in_progress"
	StateComplete     = "complete"
)

// Session records the parameters and current state of one generation
// run, persisted alongside the book so an operator can see what a
// partially written file belongs to.
type Session struct {
	ID        string    `json:"id"`
	BookTitle string    `json:"book_title"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session record with a fresh run ID.
func NewSession(bookTitle, provider, model string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		BookTitle: bookTitle,
		Provider:  provider,
		Model:     model,
		State:     StateNoTOC,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// ShortID returns the first segment of the run ID, used in logs.
func (s *Session) ShortID() string {
	if len(s.ID) < 8 {
		return s.ID
	}
	return s.ID[:8]
}

// SetState advances the run state.
func (s *Session) SetState(state string) {
	s.State = state
	s.UpdatedAt = time.Now().UTC()
}

// Save persists the session record under the given relative path.
func (s *Session) Save(ctx context.Context, fs *FileSystem, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	return fs.Save(ctx, path, data)
}
