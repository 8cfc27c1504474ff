package rank

import (
	"testing"

	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
)

func TestFuzzyName_Similarity(t *testing.T) {
	f := NewFuzzyName(DefaultNameThreshold, 5)

	tests := []struct {
		query, name string
		accept      bool
	}{
		{"Josh Hart", "Joshua Hart", true},
		{"Joshua Hart", "Joshua Hart", true},
		{"joshua hart", "Joshua Hart", true},
		{"Hart Joshua", "Joshua Hart", true},
		{"Joshua Hart", "Joshua Michael Hart", true},
		{"Joshau Hart", "Joshua Hart", true},
		{"Josh Hart", "Brenda Lee", false},
		{"Brenda Lee", "Joshua Hart", false},
		{"David Lee", "Daniel Lee", false},
		{"John Smith", "Jane Smith", false},
		{"Emily Chen", "Emma Chen", false},
		{"Brenda Hart", "Joshua Hart", false},
	}

	for _, tc := range tests {
		got := f.Similarity(tc.query, tc.name)
		if (got >= DefaultNameThreshold) != tc.accept {
			t.Errorf("Similarity(%q, %q) = %f, accept=%v", tc.query, tc.name, got, tc.accept)
		}
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %f out of [0,1]", tc.query, tc.name, got)
		}
	}
}

func TestFuzzyName_Rank(t *testing.T) {
	profiles := []profile.Profile{
		{ID: "emp001", Name: "Joshua Hart"},
		{ID: "emp002", Name: "Brenda Lee"},
		{ID: "emp003", Name: "Ruby Chen"},
	}
	f := NewFuzzyName(DefaultNameThreshold, 5)

	ranked := f.Rank("Josh Hart", profiles)
	if len(ranked) != 1 || ranked[0].Profile.ID != "emp001" {
		t.Fatalf("expected only emp001, got %+v", ranked)
	}

	if got := f.Rank("Ruby Hart", profiles); len(got) != 0 {
		t.Errorf("a shared surname alone must not match, got %+v", got)
	}

	if got := f.Rank("Zanzibar Quill", profiles); len(got) != 0 {
		t.Errorf("expected no match, got %d results", len(got))
	}
}

func TestFuzzyName_Empty(t *testing.T) {
	f := NewFuzzyName(0, 0)
	if s := f.Similarity("", "Joshua Hart"); s != 0 {
		t.Errorf("expected 0 for empty query, got %f", s)
	}
}
