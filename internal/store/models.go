package store

import (
	"encoding/json"
	"time"
)

// Transcript is the stored rich-text document of one interview.
type Transcript struct {
	InterviewID string          `json:"interview_id"`
	Document    json.RawMessage `json:"document"`
	UpdatedBy   string          `json:"updated_by,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
