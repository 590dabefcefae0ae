package recognition

import "fmt"

// NotFoundText is how a result without a plate is rendered.
const NotFoundText = "Error 404"

// Reason explains why no plate text was produced.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoRegion
	ReasonNoCharacters
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoRegion:
		return "no_region"
	case ReasonNoCharacters:
		return "no_characters"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// MarshalText renders the reason by name in JSON output.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result is the outcome of a recognition.
type Result struct {
	Text   string `json:"text"`
	Votes  int    `json:"votes"`
	Found  bool   `json:"found"`
	Reason Reason `json:"reason"`
}

// String returns the plate text, or NotFoundText when nothing was found.
func (r Result) String() string {
	if !r.Found {
		return NotFoundText
	}
	return r.Text
}

// Vote picks the most frequent non-empty hypothesis.
//
// Ties go to the text seen first. When every hypothesis is empty the result
// is not found with ReasonNoCharacters.
func Vote(hypotheses []string) Result {
	counts := make(map[string]int)
	var order []string
	for _, h := range hypotheses {
		if h == "" {
			continue
		}
		if counts[h] == 0 {
			order = append(order, h)
		}
		counts[h]++
	}

	if len(order) == 0 {
		return Result{Reason: ReasonNoCharacters}
	}

	best := order[0]
	for _, h := range order[1:] {
		if counts[h] > counts[best] {
			best = h
		}
	}
	return Result{Text: best, Votes: counts[best], Found: true, Reason: ReasonNone}
}
