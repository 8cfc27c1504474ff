package mode

import "fmt"

// Mode is the interpretation of a raw recommendation input.
type Mode string

// Query mode constants.
const (
	// Resume treats the input as a document describing a person; ranked by embedding similarity.
	Resume Mode = "resume"
	// KeywordSearch treats the input as a skill query; ranked by term overlap.
	KeywordSearch Mode = "keyword_search"
	// NameSearch treats the input as a person's name; ranked by fuzzy name similarity.
	NameSearch Mode = "name_search"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Resume || m == KeywordSearch || m == NameSearch
}

// Parse converts a wire value into a Mode.
func Parse(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}
