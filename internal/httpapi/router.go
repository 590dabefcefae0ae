// Package httpapi serves the plate service over HTTP with gin.
//
// The routes mirror the gate web application: photo uploads for prediction
// and blacklisting, blacklist management, the recent history, and the saved
// captures as static files.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/plate-reader/internal/logging"
	"github.com/ironsheep/plate-reader/internal/service"
)

// MaxUploadBytes bounds multipart memory for uploaded photos.
const MaxUploadBytes = 32 << 20

// Options configure the router.
type Options struct {
	Logger *logging.Logger
	// CORS enables permissive cross-origin headers for browser frontends.
	CORS bool
}

// NewRouter builds the gin engine for plates.
func NewRouter(plates *service.Plates, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	r := gin.New()
	r.MaxMultipartMemory = MaxUploadBytes
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())
	if opts.CORS {
		r.Use(cors())
	}

	h := &Handler{plates: plates, logger: logger}

	r.POST("/predict", h.Predict)
	r.POST("/predict/debug", h.PredictDebug)
	r.GET("/history", h.History)

	bl := r.Group("/blacklist")
	{
		bl.GET("", h.ListBlacklist)
		bl.POST("/add", h.AddBlacklist)
		bl.POST("/add-by-photo", h.AddBlacklistByPhoto)
		bl.DELETE("/remove/:id", h.RemoveBlacklist)
	}

	if dir := plates.CaptureDir(); dir != "" {
		r.Static("/static/captures", dir)
	}
	return r
}

func requestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully, allowing in-flight requests up to 10 seconds.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
