// Package api exposes keyed comparisons over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/TFMV/keydiff/config"
	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/diff"
	"github.com/TFMV/keydiff/pkg/readers"
	"github.com/TFMV/keydiff/pkg/writers"
	"github.com/TFMV/keydiff/version"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Server holds the Fiber app instance
type Server struct {
	app    *fiber.App
	opts   config.ServerOptions
	logger *zap.Logger
	differ core.Differ
}

// NewServer initializes a new Fiber instance. A nil logger discards output.
func NewServer(opts config.ServerOptions, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BodyLimitMB <= 0 {
		opts.BodyLimitMB = 64
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:           10 * time.Second,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		Prefork:               opts.Prefork,
		BodyLimit:             opts.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:    app,
		opts:   opts,
		logger: logger,
		differ: diff.NewKeyedDiffer(logger),
	}

	// Middleware
	app.Use(recover.New())
	app.Use(s.requestLogger)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "keydiff API",
			"version": version.GetVersion(),
			"build":   version.GetBuildDate(),
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Post("/diff", s.handleDiff)

	return s
}

// GetApp returns the underlying Fiber app.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start listens on the configured port until the server is shut down.
func (s *Server) Start() error {
	port := s.opts.Port
	if port == "" {
		port = "3000"
	}
	s.logger.Info("keydiff API listening", zap.String("port", port))
	return s.app.Listen(":" + port)
}

// Shutdown stops the server, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
	)
	return err
}

// diffRequest is the parsed form of a POST /diff request.
type diffRequest struct {
	options       core.Options
	withHeaders   bool
	showUnchanged bool
	delimiter     rune
	orig          *multipart.FileHeader
	diff          *multipart.FileHeader
}

// handleDiff compares the uploaded "orig" and "diff" files and responds with
// the JSON document of the result.
func (s *Server) handleDiff(c *fiber.Ctx) error {
	req, err := parseDiffRequest(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	ctx := c.UserContext()
	origTable, err := readUpload(ctx, req.orig, core.Orig, req)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}
	diffTable, err := readUpload(ctx, req.diff, core.Diff, req)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	result, err := s.differ.Diff(ctx, origTable, diffTable, req.options)
	if err != nil {
		if errors.Is(err, core.ErrColumnOutOfRange) || errors.Is(err, core.ErrMalformedRow) {
			return errorResponse(c, fiber.StatusUnprocessableEntity, err)
		}
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	return c.JSON(writers.NewDocument(result, req.showUnchanged))
}

func parseDiffRequest(c *fiber.Ctx) (*diffRequest, error) {
	req := &diffRequest{delimiter: ','}

	origIndex, err := strconv.Atoi(c.FormValue("orig_index", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid orig_index: %w", err)
	}
	req.options.OrigIndex = origIndex

	if raw := c.FormValue("diff_index"); raw != "" {
		diffIndex, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid diff_index: %w", err)
		}
		req.options.DiffIndex = &diffIndex
	}
	if err := diff.ValidateOptions(req.options); err != nil {
		return nil, err
	}

	if prefix := c.FormValue("with_prefix"); prefix != "" {
		req.options.Prefix = &prefix
	}
	req.options.KeyDelimiter = c.FormValue("key_delimiter")

	if req.withHeaders, err = formBool(c, "with_headers"); err != nil {
		return nil, err
	}
	if req.showUnchanged, err = formBool(c, "show_unchanged"); err != nil {
		return nil, err
	}

	if raw := c.FormValue("delimiter"); raw != "" {
		if utf8.RuneCountInString(raw) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", raw)
		}
		req.delimiter, _ = utf8.DecodeRuneInString(raw)
	}

	if req.orig, err = c.FormFile("orig"); err != nil {
		return nil, fmt.Errorf("missing file \"orig\": %w", err)
	}
	if req.diff, err = c.FormFile("diff"); err != nil {
		return nil, fmt.Errorf("missing file \"diff\": %w", err)
	}
	return req, nil
}

func formBool(c *fiber.Ctx, key string) (bool, error) {
	raw := c.FormValue(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func readUpload(ctx context.Context, fh *multipart.FileHeader, side core.Side, req *diffRequest) (*core.Table, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s upload: %w", side, err)
	}

	// The reader owns f from here on.
	reader := readers.NewCSVStreamReader(core.ReaderConfig{
		Type:        "csv",
		Path:        fh.Filename,
		Side:        side,
		WithHeaders: req.withHeaders,
		Delimiter:   req.delimiter,
	}, f)
	defer reader.Close()

	return reader.ReadTable(ctx)
}

func errorResponse(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
