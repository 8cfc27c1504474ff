package explain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/collabmatch/internal/domain/vocab"
)

type band int

const (
	bandJunior band = iota + 1
	bandMid
	bandSenior
	bandStaff
	bandPrincipal
)

var yearsRegex = regexp.MustCompile(`(?i)\b(\d{1,2})\+?\s*(?:years|yrs)\b`)

var bandKeywords = []struct {
	word string
	band band
}{
	{"principal", bandPrincipal},
	{"staff", bandStaff},
	{"lead", bandStaff},
	{"senior", bandSenior},
	{"mid-level", bandMid},
	{"mid", bandMid},
	{"junior", bandJunior},
}

// bandOf maps years of experience onto a seniority band.
func bandOf(years int) band {
	switch {
	case years < 3:
		return bandJunior
	case years < 6:
		return bandMid
	case years < 10:
		return bandSenior
	case years < 15:
		return bandStaff
	default:
		return bandPrincipal
	}
}

// inferBand reads a seniority band from explicit years first, then from title keywords.
func inferBand(text string) (band, bool) {
	if m := yearsRegex.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return bandOf(n), true
		}
	}
	lower := strings.ToLower(text)
	for _, k := range bandKeywords {
		if vocab.IndexTerm(lower, k.word) >= 0 {
			return k.band, true
		}
	}
	return 0, false
}
