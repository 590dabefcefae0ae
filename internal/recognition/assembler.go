package recognition

import (
	"context"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/ironsheep/plate-reader/internal/detection"
	"github.com/ironsheep/plate-reader/internal/imaging"
)

// Assembler defaults.
const (
	DefaultCharThreshold = 0.3
	DefaultDedupDistance = 20
	PlateLabel           = "car plate"
)

// Kind classifies a character token.
type Kind int

const (
	KindLetter Kind = iota
	KindDigit
)

func (k Kind) String() string {
	if k == KindDigit {
		return "digit"
	}
	return "letter"
}

// Token is a character detection after label mapping.
type Token struct {
	detection.Detection
	Char string
	Kind Kind
}

// Assembler turns character detections into plate text.
//
// Digits are read left to right. Letters are read right to left, as Arabic
// is, and placed before the digits separated by single spaces.
type Assembler struct {
	Detector detection.Detector
	Labels   LabelMap
	// Threshold is exclusive: a detection must score strictly above it.
	Threshold float64
	// DedupDistance is the horizontal distance in pixels below which two
	// detections are treated as the same character.
	DedupDistance float64
	IgnoreLabels  []string
}

// NewAssembler returns an Assembler using the Arabic label table and the
// default thresholds.
func NewAssembler(d detection.Detector) *Assembler {
	return &Assembler{
		Detector:      d,
		Labels:        DefaultLabelMap(),
		Threshold:     DefaultCharThreshold,
		DedupDistance: DefaultDedupDistance,
		IgnoreLabels:  []string{PlateLabel},
	}
}

// Assemble detects characters in img and composes them into text.
// An empty image or no surviving detection yields "".
func (a *Assembler) Assemble(ctx context.Context, img image.Image) (string, error) {
	if imaging.IsEmpty(img) {
		return "", nil
	}
	dets, err := a.Detector.Detect(ctx, img)
	if err != nil {
		return "", err
	}
	return a.AssembleDetections(dets), nil
}

// AssembleDetections composes text from detections without running a detector.
func (a *Assembler) AssembleDetections(dets []detection.Detection) string {
	return Compose(a.Tokens(dets))
}

// Tokens filters, maps and de-duplicates dets, returning tokens sorted by x.
//
// Among detections closer than DedupDistance horizontally only the most
// confident survives; on equal confidence the earlier detection wins.
func (a *Assembler) Tokens(dets []detection.Detection) []Token {
	kept := make([]detection.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence > a.Threshold && !a.ignored(d.Label) {
			kept = append(kept, d)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	tokens := make([]Token, 0, len(kept))
	for _, d := range kept {
		dup := false
		for _, t := range tokens {
			if math.Abs(d.X-t.X) < a.DedupDistance {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		char := a.Labels.Map(d.Label)
		kind := KindLetter
		if a.Labels.IsDigit(char) {
			kind = KindDigit
		}
		tokens = append(tokens, Token{Detection: d, Char: char, Kind: kind})
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].X < tokens[j].X
	})
	return tokens
}

func (a *Assembler) ignored(label string) bool {
	for _, l := range a.IgnoreLabels {
		if l == label {
			return true
		}
	}
	return false
}

// Compose builds plate text from tokens already sorted by x.
func Compose(tokens []Token) string {
	var digits strings.Builder
	var letters []string
	for _, t := range tokens {
		if t.Kind == KindDigit {
			digits.WriteString(t.Char)
		} else {
			letters = append(letters, t.Char)
		}
	}
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return strings.TrimSpace(strings.Join(letters, " ") + " " + digits.String())
}
