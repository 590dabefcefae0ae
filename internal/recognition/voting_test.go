package recognition

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVote(t *testing.T) {
	tests := []struct {
		name      string
		in        []string
		wantText  string
		wantVotes int
		wantFound bool
	}{
		{"majority", []string{"AB 12", "AB 12", "AB 12", "XY 99"}, "AB 12", 3, true},
		{"empties excluded", []string{"", "", "AB 12", ""}, "AB 12", 1, true},
		{"all empty", []string{"", "", "", ""}, "", 0, false},
		{"nil", nil, "", 0, false},
		{"tie goes to first seen", []string{"XY 99", "AB 12", "AB 12", "XY 99"}, "XY 99", 2, true},
		{"later majority wins", []string{"A", "B", "B", ""}, "B", 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Vote(tt.in)
			if got.Text != tt.wantText || got.Votes != tt.wantVotes || got.Found != tt.wantFound {
				t.Errorf("got %+v, want text=%q votes=%d found=%v", got, tt.wantText, tt.wantVotes, tt.wantFound)
			}
			if !got.Found && got.Reason != ReasonNoCharacters {
				t.Errorf("reason: got %v, want %v", got.Reason, ReasonNoCharacters)
			}
		})
	}
}

func TestResult_String(t *testing.T) {
	if got := (Result{Text: "AB 12", Found: true}).String(); got != "AB 12" {
		t.Errorf("found: got %q", got)
	}
	if got := (Result{Reason: ReasonNoRegion}).String(); got != NotFoundText {
		t.Errorf("not found: got %q, want %q", got, NotFoundText)
	}
}

func TestResult_JSONReason(t *testing.T) {
	data, err := json.Marshal(Result{Reason: ReasonNoRegion})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"reason":"no_region"`) {
		t.Errorf("unexpected JSON %s", data)
	}
}
