package command

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dennisdiepolder/monti/calldesk/internal/config"
	"github.com/dennisdiepolder/monti/calldesk/internal/telemetry"
	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/dennisdiepolder/monti/calldesk/internal/view"
	"github.com/dennisdiepolder/monti/calldesk/pkg/client"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gopkg.in/natefinch/lumberjack.v2"
)

// CommandContext carries what every subcommand needs
type CommandContext struct {
	Config   *config.Config
	Client   *client.Client
	Logger   zerolog.Logger
	JSONMode bool

	closers []func() error
}

// contextOptions tune GetContext for a subcommand
type contextOptions struct {
	// logToFile sends logs to a rotating file instead of stderr
	logToFile bool
}

// GetContext loads configuration, applies flag overrides and builds the
// record client.
func GetContext(cmd *cobra.Command, opts contextOptions) (*CommandContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("api-url"); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("status-set"); v != "" {
		if cfg.Vocabulary, err = types.ParseVocabulary(v); err != nil {
			return nil, err
		}
	}
	jsonMode, _ := cmd.Flags().GetBool("json")

	ctx := &CommandContext{Config: cfg, JSONMode: jsonMode}
	ctx.Logger = ctx.newLogger(cmd.ErrOrStderr(), opts.logToFile)

	shutdown := telemetry.Setup(cmd.Context(), AppName, ctx.Logger)
	ctx.closers = append(ctx.closers, func() error {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdown(sctx)
	})

	ctx.Client = client.NewClient(cfg.APIBaseURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(ctx.Logger),
		client.WithTransport(func(rt http.RoundTripper) http.RoundTripper {
			return otelhttp.NewTransport(rt)
		}),
	)
	return ctx, nil
}

func (c *CommandContext) newLogger(stderr io.Writer, toFile bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer
	if toFile {
		path := c.Config.LogFile
		if path == "" {
			path = filepath.Join(os.TempDir(), "calldesk-tui.log")
		}
		rotator := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
		c.closers = append(c.closers, rotator.Close)
		out = rotator
	} else {
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// NewManager builds a view manager in mode over the context's client
func (c *CommandContext) NewManager(mode types.ViewMode) *view.Manager {
	return view.NewManager(c.Client, view.Options{
		Mode:       mode,
		Vocabulary: c.Config.Vocabulary,
	}, c.Logger)
}

// Close flushes telemetry and closes the log file, if any
func (c *CommandContext) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}
