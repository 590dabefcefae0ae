package yolo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ironsheep/plate-reader/internal/detection"
)

// Defaults for Options fields left at zero.
const (
	DefaultInputSize    = 640
	DefaultMinScore     = 0.25
	DefaultIoUThreshold = 0.45
)

// ErrClosed is returned by Detect after Close.
var ErrClosed = errors.New("yolo: detector closed")

var (
	envOnce sync.Once
	envErr  error
)

// initEnvironment loads the ONNX Runtime library. The runtime environment is
// process-wide, so only the first library path takes effect.
func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}

// Options configure a Detector.
type Options struct {
	// ModelPath is the .onnx file.
	ModelPath string
	// LibraryPath is the onnxruntime shared library. Empty uses the
	// platform default search.
	LibraryPath string
	// ClassNames maps class indices to labels. Missing names become "class_N".
	ClassNames []string
	// InputSize is the square model input edge in pixels.
	InputSize int
	// MinScore drops anchors whose best class score is lower.
	MinScore float64
	// IoUThreshold is the class-aware NMS overlap limit.
	IoUThreshold float64
	// Threads limits intra-op parallelism; zero lets the runtime decide.
	Threads int
}

// Detector is a detection.Detector backed by an ONNX Runtime session.
type Detector struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	options *ort.SessionOptions
	names   []string
	size    int
	classes int
	anchors int
	minConf float64
	iou     float64
}

var _ detection.Detector = (*Detector)(nil)

// New loads the model and creates a session. The caller must Close it.
func New(opts Options) (*Detector, error) {
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("yolo: model path is required")
	}
	if opts.InputSize <= 0 {
		opts.InputSize = DefaultInputSize
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}
	if opts.IoUThreshold <= 0 {
		opts.IoUThreshold = DefaultIoUThreshold
	}

	if err := initEnvironment(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("yolo: expected 1 input and 1 output, got %d and %d", len(inputs), len(outputs))
	}

	classes, anchors, err := outputLayout(outputs[0].Dimensions, opts.InputSize)
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	if err := setThreads(options, opts.Threads); err != nil {
		options.Destroy()
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(
		opts.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		options,
	)
	if err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Detector{
		session: session,
		options: options,
		names:   opts.ClassNames,
		size:    opts.InputSize,
		classes: classes,
		anchors: anchors,
		minConf: opts.MinScore,
		iou:     opts.IoUThreshold,
	}, nil
}

// threadSetter is the part of ort.SessionOptions that controls threading.
type threadSetter interface {
	SetIntraOpNumThreads(n int) error
	SetInterOpNumThreads(n int) error
}

// setThreads limits intra-op threads to n and inter-op threads to one. n <= 0
// keeps the runtime defaults.
func setThreads(o threadSetter, n int) error {
	if n <= 0 {
		return nil
	}
	if err := o.SetIntraOpNumThreads(n); err != nil {
		return fmt.Errorf("failed to set intra-op threads: %w", err)
	}
	if err := o.SetInterOpNumThreads(1); err != nil {
		return fmt.Errorf("failed to set inter-op threads: %w", err)
	}
	return nil
}

// outputLayout extracts the class and anchor counts from a [1,4+C,N] shape.
// Dynamic anchor dimensions are derived from the YOLOv8 strides 8, 16, 32.
func outputLayout(shape ort.Shape, inputSize int) (int, int, error) {
	if len(shape) != 3 || shape[1] < 5 {
		return 0, 0, fmt.Errorf("yolo: unsupported output shape %v", shape)
	}
	classes := int(shape[1]) - 4
	anchors := int(shape[2])
	if anchors <= 0 {
		for _, stride := range []int{8, 16, 32} {
			n := inputSize / stride
			anchors += n * n
		}
	}
	return classes, anchors, nil
}

// Detect runs the model on img and returns detections after NMS, in
// descending confidence order.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]detection.Detection, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	lb := newLetterbox(b.Dx(), b.Dy(), d.size)
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(d.size), int64(d.size)), lb.tensor(img, d.size))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	d.mu.Lock()
	if d.session == nil {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	outputs := []ort.Value{nil}
	err = d.session.Run([]ort.Value{input}, outputs)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("inference produced no output")
	}
	defer outputs[0].Destroy()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unsupported output tensor type %T", outputs[0])
	}

	data := tensor.GetData()
	anchors := d.anchors
	if shape := tensor.GetShape(); len(shape) == 3 {
		anchors = int(shape[2])
	}
	if len(data) < (4+d.classes)*anchors {
		return nil, fmt.Errorf("output has %d values, want %d", len(data), (4+d.classes)*anchors)
	}

	dets := lb.decode(data, d.classes, anchors, d.names, d.minConf)
	return detection.NMS(dets, d.iou), nil
}

// Close releases the session. Detect returns ErrClosed afterwards.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.session != nil {
		err = d.session.Destroy()
		d.session = nil
	}
	if d.options != nil {
		if oerr := d.options.Destroy(); err == nil {
			err = oerr
		}
		d.options = nil
	}
	return err
}
