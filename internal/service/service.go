// Package service ties recognition to storage, captures and notifications.
//
// It reproduces the gate workflow: a photo is read, checked against the
// disallow list, saved as a capture and recorded in the history.
package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/plate-reader/internal/imaging"
	"github.com/ironsheep/plate-reader/internal/logging"
	"github.com/ironsheep/plate-reader/internal/notify"
	"github.com/ironsheep/plate-reader/internal/recognition"
	"github.com/ironsheep/plate-reader/internal/storage"
)

var (
	// ErrInvalidImage is returned when uploaded bytes are not a decodable image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrNoPlate is returned when a photo meant to name a plate shows none.
	ErrNoPlate = errors.New("no plate detected")
	// ErrInvalidPlate is returned for empty plate text.
	ErrInvalidPlate = errors.New("plate text is empty")
)

// DefaultHistoryLimit is how many records History returns by default.
const DefaultHistoryLimit = 5

// Recognizer reads plates. *recognition.Recognizer implements it.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (recognition.Result, error)
	RecognizeDebug(ctx context.Context, img image.Image) (*recognition.Debug, error)
}

// Options configure a Plates service.
type Options struct {
	// CaptureDir receives a JPEG copy of every predicted image. Empty
	// disables captures.
	CaptureDir   string
	HistoryLimit int
	Publisher    notify.Publisher
	Logger       *logging.Logger
	// Now and NewName are overridable clocks and name sources for tests.
	Now     func() time.Time
	NewName func() string
}

// Plates is the application service behind every transport.
type Plates struct {
	rec          Recognizer
	store        storage.Store
	pub          notify.Publisher
	logger       *logging.Logger
	captureDir   string
	historyLimit int
	now          func() time.Time
	newName      func() string
}

// Prediction is the outcome of Predict.
type Prediction struct {
	Plate     string `json:"plate"`
	Found     bool   `json:"found"`
	Votes     int    `json:"votes"`
	Allowed   bool   `json:"allowed"`
	ImageName string `json:"image_name,omitempty"`
	RecordID  int64  `json:"record_id"`
}

// BlacklistResult is the outcome of adding to the disallow list.
type BlacklistResult struct {
	Entry   storage.BlacklistEntry `json:"entry"`
	Created bool                   `json:"created"`
}

// New returns a service over rec and store.
func New(rec Recognizer, store storage.Store, opts Options) *Plates {
	p := &Plates{
		rec:          rec,
		store:        store,
		pub:          opts.Publisher,
		logger:       opts.Logger,
		captureDir:   opts.CaptureDir,
		historyLimit: opts.HistoryLimit,
		now:          opts.Now,
		newName:      opts.NewName,
	}
	if p.pub == nil {
		p.pub = notify.Nop{}
	}
	if p.logger == nil {
		p.logger = logging.Nop()
	}
	if p.historyLimit <= 0 {
		p.historyLimit = DefaultHistoryLimit
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newName == nil {
		p.newName = func() string { return uuid.NewString() + ".jpg" }
	}
	return p
}

// Predict reads the plate in an uploaded photo, checks it against the
// disallow list, saves a capture and records the result.
//
// A photo without a readable plate is still recorded, with empty text.
func (p *Plates) Predict(ctx context.Context, data []byte) (*Prediction, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	res, err := p.rec.Recognize(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to recognize plate: %w", err)
	}

	blacklist, err := p.store.ListBlacklist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}
	allowed := storage.IsAllowed(res.Text, blacklist)

	name := p.saveCapture(img)

	rec, err := p.store.SaveRecord(ctx, storage.PlateRecord{
		Text:      res.Text,
		Timestamp: p.now().UTC(),
		Allowed:   allowed,
		ImageName: name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	p.logger.Info("plate predicted", "plate", res.String(), "votes", res.Votes, "allowed", allowed, "image", name)

	if res.Found {
		ev := notify.Event{Plate: res.Text, Allowed: allowed, Votes: res.Votes, Image: name, Timestamp: rec.Timestamp}
		if err := p.pub.Publish(ctx, ev); err != nil {
			p.logger.Warn("failed to publish event", "plate", res.Text, "error", err)
		}
	}

	return &Prediction{
		Plate:     res.Text,
		Found:     res.Found,
		Votes:     res.Votes,
		Allowed:   allowed,
		ImageName: name,
		RecordID:  rec.ID,
	}, nil
}

// PredictDebug returns the full recognition trace without recording anything.
func (p *Plates) PredictDebug(ctx context.Context, data []byte) (*recognition.Debug, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	d, err := p.rec.RecognizeDebug(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to recognize plate: %w", err)
	}
	return d, nil
}

// RecognizeImage reads an already decoded image without recording it.
func (p *Plates) RecognizeImage(ctx context.Context, img image.Image) (recognition.Result, error) {
	return p.rec.Recognize(ctx, img)
}

// RecognizeImageDebug is RecognizeImage with the recognition trace.
func (p *Plates) RecognizeImageDebug(ctx context.Context, img image.Image) (*recognition.Debug, error) {
	return p.rec.RecognizeDebug(ctx, img)
}

// AddBlacklistByPhoto reads the plate in a photo and adds it to the
// disallow list. ErrNoPlate is returned when nothing is read.
func (p *Plates) AddBlacklistByPhoto(ctx context.Context, data []byte) (*BlacklistResult, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return p.AddBlacklistByImage(ctx, img)
}

// AddBlacklistByImage is AddBlacklistByPhoto for a decoded image.
func (p *Plates) AddBlacklistByImage(ctx context.Context, img image.Image) (*BlacklistResult, error) {
	res, err := p.rec.Recognize(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to recognize plate: %w", err)
	}
	if !res.Found {
		return nil, ErrNoPlate
	}
	return p.AddBlacklist(ctx, res.Text)
}

// AddBlacklist adds text to the disallow list unless it is already there.
func (p *Plates) AddBlacklist(ctx context.Context, text string) (*BlacklistResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidPlate
	}
	entry, created, err := p.store.AddBlacklist(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to add to blacklist: %w", err)
	}
	if created {
		p.logger.Info("blacklist entry added", "id", entry.ID, "plate", entry.PlateText)
	}
	return &BlacklistResult{Entry: entry, Created: created}, nil
}

// Blacklist returns the disallow list.
func (p *Plates) Blacklist(ctx context.Context) ([]storage.BlacklistEntry, error) {
	entries, err := p.store.ListBlacklist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist: %w", err)
	}
	if entries == nil {
		entries = []storage.BlacklistEntry{}
	}
	return entries, nil
}

// RemoveBlacklist deletes an entry by ID. storage.ErrNotFound is passed
// through wrapped when it does not exist.
func (p *Plates) RemoveBlacklist(ctx context.Context, id int64) error {
	if err := p.store.RemoveBlacklist(ctx, id); err != nil {
		return fmt.Errorf("failed to remove blacklist entry %d: %w", id, err)
	}
	p.logger.Info("blacklist entry removed", "id", id)
	return nil
}

// History returns the most recent records, newest first.
func (p *Plates) History(ctx context.Context) ([]storage.PlateRecord, error) {
	records, err := p.store.RecentRecords(ctx, p.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if records == nil {
		records = []storage.PlateRecord{}
	}
	return records, nil
}

// CaptureDir is where captures are written, empty when disabled.
func (p *Plates) CaptureDir() string {
	return p.captureDir
}

// saveCapture writes img into the capture directory and returns its name.
// Failures are logged and yield an empty name.
func (p *Plates) saveCapture(img image.Image) string {
	if p.captureDir == "" {
		return ""
	}
	if err := os.MkdirAll(p.captureDir, 0o755); err != nil {
		p.logger.Warn("failed to create capture directory", "dir", p.captureDir, "error", err)
		return ""
	}
	name := p.newName()
	if err := imaging.SaveJPEG(img, filepath.Join(p.captureDir, name)); err != nil {
		p.logger.Warn("failed to save capture", "name", name, "error", err)
		return ""
	}
	return name
}

func decode(data []byte) (image.Image, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}
