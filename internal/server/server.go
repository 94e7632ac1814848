// Package server exposes the conversion pipeline over HTTP.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"

	"github.com/cleared-dev/cfonb120/internal/account"
	"github.com/cleared-dev/cfonb120/internal/amount"
	"github.com/cleared-dev/cfonb120/internal/buildinfo"
	"github.com/cleared-dev/cfonb120/internal/convert"
	"github.com/cleared-dev/cfonb120/internal/logger"
	"github.com/cleared-dev/cfonb120/internal/model"
	"github.com/cleared-dev/cfonb120/internal/normalize"
	"github.com/cleared-dev/cfonb120/internal/output"
	"github.com/cleared-dev/cfonb120/internal/rows"
	"github.com/cleared-dev/cfonb120/internal/statement"
)

const shutdownTimeout = 5 * time.Second

// Options tunes the HTTP service.
type Options struct {
	RequestsPerSecond float64
	Burst             int
	CacheTTL          time.Duration
	MaxUploadBytes    int
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Server serves /api/health and /api/convert.
type Server struct {
	app     *fiber.App
	svc     *convert.Service
	results *cache.Cache
	log     *slog.Logger
}

// New builds the fiber app around svc.
func New(svc *convert.Service, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}

	s := &Server{
		svc:     svc,
		results: cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		log:     log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "cfonb120",
		BodyLimit:             opts.MaxUploadBytes,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(s.requestLogger)
	s.app.Get("/api/health", s.handleHealth)
	s.app.Post("/api/convert", newRateLimiter(opts.RequestsPerSecond, opts.Burst).Handler, s.handleConvert)
	return s
}

// App returns the underlying fiber app, for tests and embedding.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() { errc <- s.app.Listen(addr) }()

	s.log.Info("listening", "addr", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	}
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	l := s.log.With("method", c.Method(), "path", c.Path(), "ip", c.IP())
	c.SetUserContext(logger.ToContext(c.UserContext(), l))

	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		status = statusFor(err)
	}
	l.Info("request", "status", status, "duration", time.Since(start))
	return err
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

type cachedResult struct {
	data         []byte
	runID        string
	transactions int
	records      int
}

func (s *Server) handleConvert(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "no file uploaded, use form field 'file'")
	}

	opts, err := overrides(s.svc.Options(), c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}

	name := output.PathFor("", fh.Filename)
	key := cacheKey(fh.Filename, data, opts)
	if v, ok := s.results.Get(key); ok {
		return s.sendResult(c, name, v.(cachedResult), true)
	}

	res, err := s.svc.WithOptions(opts).Convert(c.UserContext(), fh.Filename, data)
	if err != nil {
		return err
	}

	cr := cachedResult{
		data:         res.Data,
		runID:        res.RunID,
		transactions: res.Transactions,
		records:      res.Records,
	}
	s.results.Set(key, cr, cache.DefaultExpiration)
	return s.sendResult(c, name, cr, false)
}

// sendResult writes r as an attachment named after the current upload.
func (s *Server) sendResult(c *fiber.Ctx, filename string, r cachedResult, hit bool) error {
	cacheStatus := "MISS"
	if hit {
		cacheStatus = "HIT"
	}
	c.Set(fiber.HeaderContentType, "text/plain; charset=iso-8859-1")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Set("X-Run-Id", r.runID)
	c.Set("X-Transactions", strconv.Itoa(r.transactions))
	c.Set("X-Records", strconv.Itoa(r.records))
	c.Set("X-Cache", cacheStatus)
	return c.Send(r.data)
}

// overrides applies the optional balance_mode, amount_encoding and line_ending form
// values to base.
func overrides(base convert.Options, c *fiber.Ctx) (convert.Options, error) {
	opts := base
	if v := c.FormValue("balance_mode"); v != "" {
		m, err := model.ParseBalanceMode(v)
		if err != nil {
			return base, err
		}
		opts.BalanceMode = m
	}
	if v := c.FormValue("amount_encoding"); v != "" {
		m, err := amount.ParseMode(v)
		if err != nil {
			return base, err
		}
		opts.Encoding = m
	}
	if v := c.FormValue("line_ending"); v != "" {
		e, err := output.ParseLineEnding(v)
		if err != nil {
			return base, err
		}
		opts.LineEnding = e
	}
	return opts, nil
}

func cacheKey(filename string, data []byte, opts convert.Options) string {
	h := sha256.New()
	h.Write(data)
	fmt.Fprintf(h, "|%s|%s|%s|%s", strings.ToLower(filepath.Ext(filename)), opts.BalanceMode, opts.Encoding, opts.LineEnding)
	return hex.EncodeToString(h.Sum(nil))
}

// statusFor maps pipeline errors to HTTP statuses: bad input data is 422, an
// unrecognized file 415, anything else 500.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, rows.ErrUnsupportedFormat):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, normalize.ErrInvalidAmount),
		errors.Is(err, normalize.ErrInvalidDate),
		errors.Is(err, statement.ErrNoTransactions),
		errors.Is(err, amount.ErrOverflow),
		errors.Is(err, account.ErrMalformedIBAN),
		errors.Is(err, account.ErrInvalidIdentity):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		logger.FromContext(c.UserContext()).Error("request failed", "error", err)
		msg = "internal error"
	}
	return c.Status(status).JSON(ErrorResponse{Success: false, Error: msg})
}
