package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/agenthands/platformid/internal/config"
	"github.com/agenthands/platformid/internal/identity"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text", "console":
		return slog.New(slog.NewTextHandler(out, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates a logger from the [logging] section.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	return New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MatchObserver logs the resolver's decisions. Near misses are logged at
// info so weight tuning can be done from production logs.
type MatchObserver struct {
	Logger *slog.Logger
}

func NewMatchObserver(logger *slog.Logger) *MatchObserver {
	return &MatchObserver{Logger: logger.With(slog.String("component", "resolver"))}
}

func (o *MatchObserver) OnExactMatch(ctx context.Context, rec *identity.Record) {
	o.Logger.DebugContext(ctx, "exact match",
		slog.String("identity_id", rec.ID),
	)
}

func (o *MatchObserver) OnWeightedMatch(ctx context.Context, rec *identity.Record, score int, minimum float64, candidates int) {
	o.Logger.InfoContext(ctx, "weighted match",
		slog.String("identity_id", rec.ID),
		slog.Int("score", score),
		slog.Float64("minimum_score", minimum),
		slog.Int("candidates", candidates),
	)
}

func (o *MatchObserver) OnNearMiss(ctx context.Context, best *identity.Record, score int, minimum float64, candidates int) {
	o.Logger.InfoContext(ctx, "near miss",
		slog.String("best_identity_id", best.ID),
		slog.Int("best_score", score),
		slog.Float64("minimum_score", minimum),
		slog.Int("candidates", candidates),
	)
}

func (o *MatchObserver) OnNoCandidates(ctx context.Context) {
	o.Logger.DebugContext(ctx, "no stored identities to score")
}
