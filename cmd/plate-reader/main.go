package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/plate-reader/internal/config"
	"github.com/ironsheep/plate-reader/internal/detection"
	"github.com/ironsheep/plate-reader/internal/detection/tesseract"
	"github.com/ironsheep/plate-reader/internal/detection/yolo"
	"github.com/ironsheep/plate-reader/internal/enhance"
	"github.com/ironsheep/plate-reader/internal/httpapi"
	"github.com/ironsheep/plate-reader/internal/logging"
	"github.com/ironsheep/plate-reader/internal/notify"
	"github.com/ironsheep/plate-reader/internal/recognition"
	"github.com/ironsheep/plate-reader/internal/server"
	"github.com/ironsheep/plate-reader/internal/service"
	"github.com/ironsheep/plate-reader/internal/storage"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	mode := "mcp"
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("plate-reader %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "serve":
			mode = "http"
		case "mcp":
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q, see --help\n", os.Args[1])
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "plate-reader: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New("plate-reader", logging.ParseLevel(cfg.LogLevel))
	logger.Info("starting", "version", Version, "commit", GitCommit, "mode", mode, "detector", cfg.Detector)

	if err := run(mode, cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(mode string, cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close failed", "error", err)
			}
		}
	}()

	plates, chars, detClosers, err := buildDetectors(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, detClosers...)

	labels := recognition.DefaultLabelMap()
	if cfg.LabelsFile != "" {
		if labels, err = recognition.LoadLabelMap(cfg.LabelsFile); err != nil {
			return err
		}
	}

	enhancer := newEnhancer()

	localizer := recognition.NewLocalizer(plates)
	localizer.Threshold = cfg.RegionThreshold
	localizer.Padding = cfg.RegionPadding
	if cfg.Detector == "tesseract" || cfg.CharModelPath == cfg.ModelPath {
		// One model reports plates and characters together.
		localizer.PlateLabels = []string{recognition.PlateLabel}
	}

	assembler := recognition.NewAssembler(chars)
	assembler.Labels = labels
	assembler.Threshold = cfg.CharThreshold
	assembler.DedupDistance = cfg.DedupDistance

	variants := enhance.NewVariants(enhancer)
	variants.Aggressive = cfg.AggressiveCrops

	rec := recognition.NewWith(enhancer, localizer, variants, assembler, recognition.Options{
		Concurrency: cfg.Concurrency,
		Logger:      logger.With("recognition"),
	})

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	closers = append(closers, store)

	var pub notify.Publisher = notify.Nop{}
	if cfg.MQTTBroker != "" {
		m, err := notify.NewMQTT(notify.MQTTOptions{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		})
		if err != nil {
			return err
		}
		pub = m
		closers = append(closers, m)
		logger.Info("publishing events", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
	}

	svc := service.New(rec, store, service.Options{
		CaptureDir:   cfg.CaptureDir,
		HistoryLimit: cfg.HistoryLimit,
		Publisher:    pub,
		Logger:       logger.With("service"),
	})

	if mode == "http" {
		router := httpapi.NewRouter(svc, httpapi.Options{Logger: logger.With("http"), CORS: true})
		logger.Info("listening", "addr", cfg.HTTPAddr)
		return httpapi.Serve(ctx, cfg.HTTPAddr, router)
	}

	srv := server.New(svc, enhancer, server.Options{
		Version:  Version,
		Logger:   logger.With("mcp"),
		Variants: variants,
	})
	return srv.Run(ctx)
}

// buildDetectors returns the plate and character detectors plus anything
// that must be closed on exit.
func buildDetectors(cfg *config.Config) (detection.Detector, detection.Detector, []io.Closer, error) {
	if cfg.Detector == "tesseract" {
		opts := tesseract.Options{Language: cfg.TesseractLang}
		chars := tesseract.New(opts)
		opts.Plate = recognition.PlateLabel
		return tesseract.New(opts), chars, nil, nil
	}

	classes, err := cfg.Classes()
	if err != nil {
		return nil, nil, nil, err
	}
	plates, err := yolo.New(yolo.Options{
		ModelPath:   cfg.ModelPath,
		LibraryPath: cfg.ONNXLibraryPath,
		ClassNames:  classes,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load plate model: %w", err)
	}
	if cfg.CharModelPath == cfg.ModelPath {
		return plates, plates, []io.Closer{plates}, nil
	}

	chars, err := yolo.New(yolo.Options{
		ModelPath:   cfg.CharModelPath,
		LibraryPath: cfg.ONNXLibraryPath,
		ClassNames:  classes,
	})
	if err != nil {
		plates.Close()
		return nil, nil, nil, fmt.Errorf("failed to load character model: %w", err)
	}
	return plates, chars, []io.Closer{plates, chars}, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.DatabaseURL == "" {
		return storage.NewMemoryStore(), nil
	}
	pg, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

func printHelp() {
	fmt.Println("plate-reader - Arabic license plate recognition")
	fmt.Println()
	fmt.Println("Usage: plate-reader [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  mcp              Serve MCP tools over stdin/stdout (default)")
	fmt.Println("  serve            Serve the HTTP API on PLATE_HTTP_ADDR")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (a .env file is also read):")
	fmt.Println("  PLATE_LOG_LEVEL=debug          Log level")
	fmt.Println("  PLATE_DETECTOR=yolo            yolo or tesseract")
	fmt.Println("  PLATE_MODEL_PATH               Plate detection model (ONNX)")
	fmt.Println("  PLATE_CHAR_MODEL_PATH          Character model, defaults to PLATE_MODEL_PATH")
	fmt.Println("  PLATE_CLASSES_FILE             YAML or text list of class names")
	fmt.Println("  PLATE_LABELS_FILE              YAML label to character map")
	fmt.Println("  PLATE_DATABASE_URL             PostgreSQL URL, in-memory when empty")
	fmt.Println("  PLATE_MQTT_BROKER              Publish recognitions to this broker")
}
