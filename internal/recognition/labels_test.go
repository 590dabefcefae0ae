package recognition

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLabelMap_Map(t *testing.T) {
	m := DefaultLabelMap()

	tests := []struct {
		label string
		want  string
	}{
		{"0", "٠"},
		{"7", "٧"},
		{"a", "أ"},
		{"sad", "ص"},
		{"h", "هـ"},
		{"y", "ي"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := m.Map(tt.label); got != tt.want {
			t.Errorf("Map(%q): got %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestDefaultLabelMap_IsDigit(t *testing.T) {
	m := DefaultLabelMap()

	for _, c := range []string{"٠", "٩", "0", "9"} {
		if !m.IsDigit(c) {
			t.Errorf("IsDigit(%q) = false, want true", c)
		}
	}
	for _, c := range []string{"أ", "هـ", "x", ""} {
		if m.IsDigit(c) {
			t.Errorf("IsDigit(%q) = true, want false", c)
		}
	}
}

func TestParseLabelMap(t *testing.T) {
	m, err := ParseLabelMap([]byte("chars:\n  one: \"1\"\n  alpha: A\n"))
	if err != nil {
		t.Fatalf("ParseLabelMap failed: %v", err)
	}
	if got := m.Map("alpha"); got != "A" {
		t.Errorf("Map(alpha): got %q, want A", got)
	}
	if !m.IsDigit(m.Map("one")) {
		t.Error("default digits should include ASCII 1")
	}

	m, err = ParseLabelMap([]byte("chars:\n  x: X\ndigits: \"X\"\n"))
	if err != nil {
		t.Fatalf("ParseLabelMap failed: %v", err)
	}
	if !m.IsDigit("X") || m.IsDigit("1") {
		t.Errorf("custom digits not honoured: %v", m.Digits)
	}
}

func TestParseLabelMap_Errors(t *testing.T) {
	for _, in := range []string{"", "digits: \"1\"\n", "chars: [1, 2\n"} {
		if _, err := ParseLabelMap([]byte(in)); err == nil {
			t.Errorf("ParseLabelMap(%q): expected error", in)
		}
	}
}

func TestLoadLabelMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	if err := os.WriteFile(path, []byte("chars:\n  b: ب\n"), 0o644); err != nil {
		t.Fatalf("failed to write labels: %v", err)
	}

	m, err := LoadLabelMap(path)
	if err != nil {
		t.Fatalf("LoadLabelMap failed: %v", err)
	}
	if got := m.Map("b"); got != "ب" {
		t.Errorf("Map(b): got %q, want ب", got)
	}

	if _, err := LoadLabelMap(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
