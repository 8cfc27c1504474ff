// Package rank scores candidate profiles against a query, one ranker per mode.
package rank

import (
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
)

// DefaultTopK is the number of results a ranker returns unless configured otherwise.
const DefaultTopK = 5

// Candidate is a profile paired with its embedding for similarity ranking.
type Candidate struct {
	Profile   profile.Profile
	Embedding []float32
}
