package citation

import (
	"regexp"
	"strconv"

	"github.com/nao1215/origincheck/internal/model"
)

// NoOverlaps is the sentinel the service sends when no sources overlap.
const NoOverlaps = "No overlaps."

// citationPattern matches "[F<fuzz>/C<cosine>] <url>". It is unanchored so a
// stray prefix before the bracket does not lose the record.
var citationPattern = regexp.MustCompile(`\[F(\d+)/C([\d.]+)\] (.*)`)

// Parse converts raw citation strings to structured records.
// The result is never nil. Empty input and the lone sentinel both yield
// an empty slice; otherwise sentinels are dropped and every remaining
// entry produces exactly one record, in input order.
func Parse(raw []string) []model.Citation {
	if IsEmpty(raw) {
		return []model.Citation{}
	}

	parsed := make([]model.Citation, 0, len(raw))
	for _, entry := range raw {
		if entry == NoOverlaps {
			continue
		}
		parsed = append(parsed, parseOne(entry))
	}
	return parsed
}

// IsEmpty reports whether the raw list means "no overlaps".
func IsEmpty(raw []string) bool {
	return len(raw) == 0 || (len(raw) == 1 && raw[0] == NoOverlaps)
}

// parseOne matches a single entry, falling back to an unmatched record.
func parseOne(entry string) model.Citation {
	fallback := model.Citation{URL: entry}

	m := citationPattern.FindStringSubmatch(entry)
	if m == nil {
		return fallback
	}

	fuzz, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}
	cosine, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		// "[F1/C1.2.3] x" passes the pattern but is not a number.
		return fallback
	}

	return model.Citation{
		Fuzz:    fuzz,
		Cosine:  cosine,
		URL:     m[3],
		Matched: true,
	}
}

// Format renders a matched citation in the wire format.
// Unmatched citations are returned as their raw URL.
func Format(c model.Citation) string {
	if !c.Matched {
		return c.URL
	}
	return "[F" + strconv.Itoa(c.Fuzz) + "/C" + strconv.FormatFloat(c.Cosine, 'f', -1, 64) + "] " + c.URL
}
