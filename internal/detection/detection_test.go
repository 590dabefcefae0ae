package detection

import (
	"context"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDetection_Rect(t *testing.T) {
	tests := []struct {
		name string
		d    Detection
		want image.Rectangle
	}{
		{"centred", Detection{X: 50, Y: 40, Width: 20, Height: 10}, image.Rect(40, 35, 60, 45)},
		{"fractional truncates", Detection{X: 10.7, Y: 10.2, Width: 5, Height: 5}, image.Rect(8, 7, 13, 12)},
		{"zero size", Detection{X: 3, Y: 4}, image.Rect(3, 4, 3, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Rect(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromRect_RoundTrip(t *testing.T) {
	r := image.Rect(10, 20, 50, 40)
	d := FromRect("plate", 0.9, r)

	if d.X != 30 || d.Y != 30 || d.Width != 40 || d.Height != 20 {
		t.Errorf("geometry: got %+v", d)
	}
	if d.Rect() != r {
		t.Errorf("Rect: got %v, want %v", d.Rect(), r)
	}
}

func TestFunc_Adapter(t *testing.T) {
	var det Detector = Func(func(ctx context.Context, img image.Image) ([]Detection, error) {
		return []Detection{{Label: "x", Confidence: 1}}, nil
	})

	got, err := det.Detect(context.Background(), nil)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 1 || got[0].Label != "x" {
		t.Errorf("got %+v", got)
	}
}

func TestIoU(t *testing.T) {
	a := FromRect("a", 1, image.Rect(0, 0, 10, 10))

	tests := []struct {
		name string
		b    Detection
		want float64
	}{
		{"identical", a, 1},
		{"disjoint", FromRect("b", 1, image.Rect(20, 20, 30, 30)), 0},
		{"touching edges", FromRect("b", 1, image.Rect(10, 0, 20, 10)), 0},
		{"half overlap", FromRect("b", 1, image.Rect(5, 0, 15, 10)), 50.0 / 150.0},
		{"contained", FromRect("b", 1, image.Rect(0, 0, 5, 10)), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IoU(a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNMS(t *testing.T) {
	dets := []Detection{
		FromRect("plate", 0.6, image.Rect(0, 0, 100, 40)),
		FromRect("plate", 0.9, image.Rect(2, 1, 102, 41)),
		FromRect("plate", 0.7, image.Rect(300, 0, 400, 40)),
		FromRect("car", 0.8, image.Rect(0, 0, 100, 40)),
	}

	got := NMS(dets, 0.45)

	wantConf := []float64{0.9, 0.8, 0.7}
	if len(got) != len(wantConf) {
		t.Fatalf("got %d detections, want %d: %+v", len(got), len(wantConf), got)
	}
	for i, c := range wantConf {
		if got[i].Confidence != c {
			t.Errorf("detection %d: confidence %v, want %v", i, got[i].Confidence, c)
		}
	}

	// Input is left untouched.
	if dets[0].Confidence != 0.6 {
		t.Error("NMS reordered its input")
	}
}

func TestNMS_Empty(t *testing.T) {
	if got := NMS(nil, 0.5); len(got) != 0 {
		t.Errorf("got %d detections, want 0", len(got))
	}
}

func TestScripted_ReplaysInOrder(t *testing.T) {
	ctx := context.Background()
	first := []Detection{{Label: "plate", Confidence: 0.9}}
	second := []Detection{{Label: "1", Confidence: 0.8}, {Label: "2", Confidence: 0.7}}
	s := NewScripted(first, second)

	got, _ := s.Detect(ctx, image.NewNRGBA(image.Rect(0, 0, 4, 3)))
	if len(got) != 1 || got[0].Label != "plate" {
		t.Errorf("call 0: got %+v", got)
	}

	got, _ = s.Detect(ctx, nil)
	if len(got) != 2 {
		t.Errorf("call 1: got %d detections, want 2", len(got))
	}

	got, err := s.Detect(ctx, nil)
	if err != nil || got != nil {
		t.Errorf("exhausted script: got %+v, %v", got, err)
	}

	if s.Calls() != 3 {
		t.Errorf("Calls: got %d, want 3", s.Calls())
	}
	if seen := s.Seen(); len(seen) != 3 || seen[0].Dx() != 4 {
		t.Errorf("Seen: got %v", seen)
	}

	s.Reset()
	if s.Calls() != 0 {
		t.Error("Reset did not rewind the script")
	}
}

func TestScripted_ReturnsCopies(t *testing.T) {
	s := Repeat([]Detection{{Label: "a", Confidence: 0.5}})

	got, _ := s.Detect(context.Background(), nil)
	got[0].Label = "mutated"

	again, _ := s.Detect(context.Background(), nil)
	if again[0].Label != "a" {
		t.Errorf("script was mutated through a returned slice: %q", again[0].Label)
	}
}

func TestScripted_FailOn(t *testing.T) {
	boom := errors.New("boom")
	s := NewScripted(nil, nil).FailOn(1, boom)

	if _, err := s.Detect(context.Background(), nil); err != nil {
		t.Fatalf("call 0: unexpected error %v", err)
	}
	if _, err := s.Detect(context.Background(), nil); !errors.Is(err, boom) {
		t.Errorf("call 1: got %v, want boom", err)
	}
}

func TestScripted_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := Repeat(nil)
	if _, err := s.Detect(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if s.Calls() != 0 {
		t.Error("cancelled call should not consume a response")
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.json")
	data := `[[{"label":"car plate","confidence":0.93,"x":120,"y":80,"width":90,"height":30}],[]]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript failed: %v", err)
	}
	got, _ := s.Detect(context.Background(), nil)
	if len(got) != 1 || got[0].Label != "car plate" || got[0].Width != 90 {
		t.Errorf("got %+v", got)
	}

	if _, err := LoadScript(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing script")
	}
}
