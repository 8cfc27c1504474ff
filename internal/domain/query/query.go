package query

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/collabmatch/internal/domain/query/mode"
)

// MaxTextSize caps the raw input accepted for matching.
const MaxTextSize = 64 * 1024

// Query is a classified recommendation input (immutable value object).
type Query struct {
	id   string
	text string
	mode mode.Mode
}

// New validates and creates a Query with a fresh correlation ID.
func New(text string, m mode.Mode) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("query text is required")
	}
	if len(text) > MaxTextSize {
		return Query{}, fmt.Errorf("query text too large (max %d bytes)", MaxTextSize)
	}
	if !m.IsValid() {
		return Query{}, fmt.Errorf("invalid mode %q", m)
	}
	return Query{id: uuid.NewString(), text: text, mode: m}, nil
}

// ID returns the correlation identifier used in logs.
func (q *Query) ID() string { return q.id }

// Text returns the trimmed input text.
func (q *Query) Text() string { return q.text }

// Mode returns the classified mode.
func (q *Query) Mode() mode.Mode { return q.mode }
