package recognition

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/ironsheep/plate-reader/internal/detection"
	"github.com/ironsheep/plate-reader/internal/enhance"
	"github.com/ironsheep/plate-reader/internal/imaging"
	"github.com/ironsheep/plate-reader/internal/logging"
)

// MaxConcurrency bounds how many variants are assembled at once.
const MaxConcurrency = 4

// Hypothesis is the text read from one variant.
type Hypothesis struct {
	Variant string `json:"variant"`
	Text    string `json:"text"`
	// Error is set when the variant abstained because its detector failed.
	Error string `json:"error,omitempty"`
}

// RegionInfo describes a located region without its pixels.
type RegionInfo struct {
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label,omitempty"`
	CropWidth  int     `json:"crop_width"`
	CropHeight int     `json:"crop_height"`
}

// Debug is the full trace of one recognition.
type Debug struct {
	Result     Result                   `json:"result"`
	Frame      imaging.DimensionsResult `json:"frame"`
	Regions    []RegionInfo             `json:"regions"`
	Best       int                      `json:"best_region"`
	Hypotheses []Hypothesis             `json:"hypotheses"`

	// Enhanced is the frame the regions were located in.
	Enhanced image.Image `json:"-"`
	// Located holds the regions with their crops.
	Located []Region `json:"-"`
	// Variants are the views of the best region.
	Variants []enhance.Variant `json:"-"`
}

// Options tune a Recognizer.
type Options struct {
	// Concurrency is how many variants are assembled at once, 1 to
	// MaxConcurrency. Zero means 1.
	Concurrency int
	Logger      *logging.Logger
}

// Recognizer runs the full pipeline: enhance, locate, generate variants,
// assemble each and vote.
//
// A Recognizer holds no mutable state and may be shared between goroutines
// as long as its detectors are safe for concurrent use.
type Recognizer struct {
	Enhancer  enhance.Enhancer
	Localizer *Localizer
	Variants  *enhance.Variants
	Assembler *Assembler

	concurrency int
	logger      *logging.Logger
}

// New wires a Recognizer with default localizer and assembler settings.
// plates finds plate regions and chars finds characters inside them; they
// may be the same detector.
func New(e enhance.Enhancer, plates, chars detection.Detector, opts Options) *Recognizer {
	return NewWith(e, NewLocalizer(plates), enhance.NewVariants(e), NewAssembler(chars), opts)
}

// NewWith wires a Recognizer from preconfigured stages.
func NewWith(e enhance.Enhancer, l *Localizer, v *enhance.Variants, a *Assembler, opts Options) *Recognizer {
	c := opts.Concurrency
	if c < 1 {
		c = 1
	}
	if c > MaxConcurrency {
		c = MaxConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Recognizer{
		Enhancer:    e,
		Localizer:   l,
		Variants:    v,
		Assembler:   a,
		concurrency: c,
		logger:      logger,
	}
}

// Recognize reads the plate in img.
//
// Not finding a plate is not an error: the Result reports Found=false with
// the reason. Errors come from the detectors or from ctx.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (Result, error) {
	d, err := r.run(ctx, img)
	if err != nil {
		return Result{}, err
	}
	return d.Result, nil
}

// RecognizeDebug is Recognize with the intermediate results attached.
func (r *Recognizer) RecognizeDebug(ctx context.Context, img image.Image) (*Debug, error) {
	return r.run(ctx, img)
}

func (r *Recognizer) run(ctx context.Context, img image.Image) (*Debug, error) {
	d := &Debug{Best: -1, Result: Result{Reason: ReasonNoRegion}}
	if imaging.IsEmpty(img) {
		return d, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enhanced := r.Enhancer.Enhance(img)
	d.Enhanced = enhanced
	d.Frame = imaging.Dimensions(enhanced)

	regions, err := r.Localizer.Locate(ctx, enhanced)
	if err != nil {
		return nil, fmt.Errorf("locate plate: %w", err)
	}
	d.Located = regions
	d.Regions = describeRegions(regions)
	d.Best = bestIndex(regions)
	if d.Best < 0 {
		r.logger.Debug("no plate region", "width", d.Frame.Width, "height", d.Frame.Height)
		return d, nil
	}
	best := regions[d.Best]

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.Variants = r.Variants.Generate(best.Image)

	hyps, err := r.assembleAll(ctx, d.Variants)
	if err != nil {
		return nil, err
	}
	d.Hypotheses = hyps

	texts := make([]string, len(hyps))
	for i, h := range hyps {
		texts[i] = h.Text
	}
	d.Result = Vote(texts)
	r.logger.Debug("plate voted",
		"text", d.Result.Text, "votes", d.Result.Votes, "found", d.Result.Found,
		"confidence", fmt.Sprintf("%.2f", best.Confidence))
	return d, nil
}

// assembleAll reads every variant, at most r.concurrency at a time. The
// returned hypotheses follow variant order whatever the completion order.
func (r *Recognizer) assembleAll(ctx context.Context, variants []enhance.Variant) ([]Hypothesis, error) {
	hyps := make([]Hypothesis, len(variants))
	errs := make([]error, len(variants))

	read := func(i int) {
		v := variants[i]
		hyps[i].Variant = v.Name
		text, err := r.Assembler.Assemble(ctx, v.Image)
		if err != nil {
			errs[i] = err
			hyps[i].Error = err.Error()
			r.logger.Warn("variant abstained", "variant", v.Name, "error", err)
			return
		}
		hyps[i].Text = text
	}

	if r.concurrency <= 1 {
		for i := range variants {
			read(i)
		}
	} else {
		sem := make(chan struct{}, r.concurrency)
		var wg sync.WaitGroup
		for i := range variants {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				read(i)
			}(i)
		}
		wg.Wait()
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if len(variants) > 0 && failed == len(variants) {
		return nil, fmt.Errorf("read characters: %w", errs[0])
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return hyps, nil
}

func describeRegions(regions []Region) []RegionInfo {
	out := make([]RegionInfo, len(regions))
	for i, reg := range regions {
		dims := imaging.Dimensions(reg.Image)
		out[i] = RegionInfo{
			X1:         reg.Bounds.Min.X,
			Y1:         reg.Bounds.Min.Y,
			X2:         reg.Bounds.Max.X,
			Y2:         reg.Bounds.Max.Y,
			Confidence: reg.Confidence,
			Label:      reg.Label,
			CropWidth:  dims.Width,
			CropHeight: dims.Height,
		}
	}
	return out
}
