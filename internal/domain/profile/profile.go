package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Project is a piece of work an employee took part in.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tech        []string `json:"tech"`
}

// Profile is an employee record. Profiles are loaded once and never mutated;
// copies returned by the store share slices, so callers must not modify them.
type Profile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Title           string    `json:"title"`
	Seniority       string    `json:"seniority,omitempty"`
	Department      string    `json:"department"`
	Location        string    `json:"location"`
	Email           string    `json:"email"`
	Manager         string    `json:"manager,omitempty"`
	ExperienceYears int       `json:"experienceYears"`
	Summary         string    `json:"professionalSummary"`
	Skills          []string  `json:"skills"`
	PrimarySkills   []string  `json:"primarySkills"`
	SecondarySkills []string  `json:"secondarySkills"`
	Tools           []string  `json:"tools"`
	Projects        []Project `json:"projects"`
	Interests       []string  `json:"interests,omitempty"`
}

// Validate checks identity fields and that primary and secondary skills are drawn from Skills.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile ID is required")
	}
	if !idRegex.MatchString(p.ID) {
		return fmt.Errorf("profile ID %q must be alphanumeric with underscores and hyphens", p.ID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile %s: name is required", p.ID)
	}
	if p.ExperienceYears < 0 {
		return fmt.Errorf("profile %s: experience years must not be negative", p.ID)
	}

	skills := make(map[string]struct{}, len(p.Skills))
	for _, s := range p.Skills {
		skills[s] = struct{}{}
	}
	for _, group := range [][]string{p.PrimarySkills, p.SecondarySkills} {
		for _, s := range group {
			if _, ok := skills[s]; !ok {
				return fmt.Errorf("profile %s: skill %q is not listed in skills", p.ID, s)
			}
		}
	}
	return nil
}

// EmbeddingText is the text the profile embedding is computed from.
func (p *Profile) EmbeddingText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s", p.Name, p.Title)
	if p.Department != "" {
		fmt.Fprintf(&b, " in %s", p.Department)
	}
	b.WriteString(".")
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, " Skills: %s.", strings.Join(p.Skills, ", "))
	}
	if len(p.Tools) > 0 {
		fmt.Fprintf(&b, " Tools: %s.", strings.Join(p.Tools, ", "))
	}
	if len(p.Projects) > 0 {
		names := make([]string, len(p.Projects))
		for i, pr := range p.Projects {
			names[i] = pr.Name
		}
		fmt.Fprintf(&b, " Projects: %s.", strings.Join(names, ", "))
	}
	if p.Summary != "" {
		b.WriteString(" ")
		b.WriteString(p.Summary)
	}
	return b.String()
}

// Fingerprint identifies the embedding text so a changed profile never reuses a stale vector.
func (p *Profile) Fingerprint() string {
	sum := sha256.Sum256([]byte(p.EmbeddingText()))
	return hex.EncodeToString(sum[:8])
}

// FirstName returns the first token of the name.
func (p *Profile) FirstName() string {
	if f := strings.Fields(p.Name); len(f) > 0 {
		return f[0]
	}
	return ""
}

// AvatarURL returns a generated initials avatar for the profile.
func (p *Profile) AvatarURL() string {
	return "https://ui-avatars.com/api/?name=" + strings.Join(strings.Fields(p.Name), "+") + "&background=random"
}
