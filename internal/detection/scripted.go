package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"sync"
)

// Scripted replays pre-recorded detections, one response per Detect call.
//
// Call n returns Responses[n]. Once the script is exhausted, further calls
// return no detections, or repeat the last response when Loop is set.
// Scripted is safe for concurrent use, but concurrent callers race for the
// next response, so tests that care about order should call it sequentially.
type Scripted struct {
	mu        sync.Mutex
	responses [][]Detection
	errs      map[int]error
	next      int
	loop      bool
	images    []image.Rectangle
}

// NewScripted returns a detector replaying responses in order.
func NewScripted(responses ...[]Detection) *Scripted {
	return &Scripted{responses: responses, errs: make(map[int]error)}
}

// Repeat returns a detector that answers every call with dets.
func Repeat(dets []Detection) *Scripted {
	s := NewScripted(dets)
	s.loop = true
	return s
}

// LoadScript reads a JSON array of responses, each an array of detections.
func LoadScript(path string) (*Scripted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	var responses [][]Detection
	if err := json.Unmarshal(data, &responses); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return NewScripted(responses...), nil
}

// FailOn makes call number n (0-based) return err instead of detections.
func (s *Scripted) FailOn(n int, err error) *Scripted {
	s.mu.Lock()
	s.errs[n] = err
	s.mu.Unlock()
	return s
}

// Detect returns the next scripted response.
func (s *Scripted) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.next
	s.next++
	if img != nil {
		s.images = append(s.images, img.Bounds())
	} else {
		s.images = append(s.images, image.Rectangle{})
	}

	if err, ok := s.errs[n]; ok {
		return nil, err
	}

	var resp []Detection
	switch {
	case n < len(s.responses):
		resp = s.responses[n]
	case s.loop && len(s.responses) > 0:
		resp = s.responses[len(s.responses)-1]
	default:
		return nil, nil
	}

	out := make([]Detection, len(resp))
	copy(out, resp)
	return out, nil
}

// Calls reports how many times Detect has been called.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Seen returns the bounds of every image passed to Detect, in call order.
func (s *Scripted) Seen() []image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]image.Rectangle(nil), s.images...)
}

// Reset rewinds the script to the first response.
func (s *Scripted) Reset() {
	s.mu.Lock()
	s.next = 0
	s.images = nil
	s.mu.Unlock()
}
