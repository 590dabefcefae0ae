package recognition

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/ironsheep/plate-reader/internal/detection"
)

func char(label string, x, conf float64) detection.Detection {
	return detection.Detection{Label: label, Confidence: conf, X: x, Y: 20, Width: 8, Height: 16}
}

func TestAssembler_DedupBelowDistance(t *testing.T) {
	a := NewAssembler(nil)

	tokens := a.Tokens([]detection.Detection{
		char("1", 100, 0.6),
		char("2", 110, 0.9),
	})
	if len(tokens) != 1 {
		t.Fatalf("got %d tokens, want 1", len(tokens))
	}
	if tokens[0].Label != "2" {
		t.Errorf("kept %q, want the more confident 2", tokens[0].Label)
	}
}

func TestAssembler_DedupAboveDistance(t *testing.T) {
	a := NewAssembler(nil)

	tokens := a.Tokens([]detection.Detection{
		char("1", 100, 0.6),
		char("2", 125, 0.9),
	})
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2", len(tokens))
	}
}

func TestAssembler_DedupExactDistanceKeepsBoth(t *testing.T) {
	a := NewAssembler(nil)

	got := a.AssembleDetections([]detection.Detection{
		char("1", 100, 0.6),
		char("2", 120, 0.9),
	})
	if got != "١٢" {
		t.Errorf("got %q, want ١٢", got)
	}
}

func TestAssembler_DedupTieKeepsFirst(t *testing.T) {
	a := NewAssembler(nil)

	tokens := a.Tokens([]detection.Detection{
		char("3", 50, 0.8),
		char("4", 55, 0.8),
	})
	if len(tokens) != 1 || tokens[0].Label != "3" {
		t.Errorf("got %+v, want only 3", tokens)
	}
}

func TestAssembler_Ordering(t *testing.T) {
	a := NewAssembler(nil)
	a.DedupDistance = 0

	got := a.AssembleDetections([]detection.Detection{
		char("1", 30, 0.9),
		char("a", 10, 0.9),
		char("2", 20, 0.9),
	})
	if got != "أ ٢١" {
		t.Errorf("single letter: got %q, want %q", got, "أ ٢١")
	}

	got = a.AssembleDetections([]detection.Detection{
		char("1", 30, 0.9),
		char("a", 10, 0.9),
		char("2", 20, 0.9),
		char("b", 5, 0.9),
		char("d", 40, 0.9),
	})
	if want := "د أ ب ٢١"; got != want {
		t.Errorf("reversed letters: got %q, want %q", got, want)
	}
}

func TestAssembler_FiltersConfidenceAndPlateLabel(t *testing.T) {
	a := NewAssembler(nil)

	got := a.AssembleDetections([]detection.Detection{
		char("1", 10, 0.3),
		char(PlateLabel, 50, 0.99),
		char("2", 100, 0.31),
	})
	if got != "٢" {
		t.Errorf("got %q, want ٢", got)
	}
}

func TestAssembler_LettersOnlyAndDigitsOnly(t *testing.T) {
	a := NewAssembler(nil)

	if got := a.AssembleDetections([]detection.Detection{char("sen", 10, 0.9), char("w", 50, 0.9)}); got != "و س" {
		t.Errorf("letters only: got %q, want %q", got, "و س")
	}
	if got := a.AssembleDetections([]detection.Detection{char("5", 10, 0.9), char("0", 50, 0.9)}); got != "٥٠" {
		t.Errorf("digits only: got %q, want %q", got, "٥٠")
	}
	if got := a.AssembleDetections(nil); got != "" {
		t.Errorf("no detections: got %q, want empty", got)
	}
}

func TestAssembler_UnmappedLabelsPassThrough(t *testing.T) {
	a := NewAssembler(nil)

	tokens := a.Tokens([]detection.Detection{char("zz", 10, 0.9), char("٣", 50, 0.9)})
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2", len(tokens))
	}
	if tokens[0].Char != "zz" || tokens[0].Kind != KindLetter {
		t.Errorf("token 0: got %q %v", tokens[0].Char, tokens[0].Kind)
	}
	if tokens[1].Kind != KindDigit {
		t.Errorf("token 1: got %v, want digit", tokens[1].Kind)
	}
}

func TestAssembler_Deterministic(t *testing.T) {
	a := NewAssembler(nil)
	dets := []detection.Detection{
		char("1", 30, 0.9), char("a", 70, 0.5), char("2", 50, 0.7), char("q", 90, 0.8),
	}

	first := a.AssembleDetections(dets)
	for i := 0; i < 10; i++ {
		if got := a.AssembleDetections(dets); got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}

func TestAssembler_Assemble(t *testing.T) {
	d := detection.NewScripted([]detection.Detection{char("k", 10, 0.9), char("9", 40, 0.9)})
	a := NewAssembler(d)

	got, err := a.Assemble(context.Background(), createPatternImage(60, 30))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if got != "ك ٩" {
		t.Errorf("got %q, want %q", got, "ك ٩")
	}

	got, err = a.Assemble(context.Background(), image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	if err != nil || got != "" {
		t.Errorf("empty image: got %q, %v", got, err)
	}
	if d.Calls() != 1 {
		t.Errorf("detector called %d times, want 1", d.Calls())
	}
}

func TestAssembler_AssembleError(t *testing.T) {
	boom := errors.New("boom")
	a := NewAssembler(detection.NewScripted().FailOn(0, boom))

	if _, err := a.Assemble(context.Background(), createPatternImage(10, 10)); !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}

func TestKind_String(t *testing.T) {
	if KindDigit.String() != "digit" || KindLetter.String() != "letter" {
		t.Errorf("got %q/%q", KindDigit, KindLetter)
	}
}
