// Package app is the fil-spid command line: it issues a single credential and prints it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-softwarelab/common/pkg/to"
	"github.com/ribasushi/go-fil-spid/pkg/apiinfo"
	"github.com/ribasushi/go-fil-spid/pkg/chain/lotus"
	"github.com/ribasushi/go-fil-spid/pkg/config"
	"github.com/ribasushi/go-fil-spid/pkg/defs"
	"github.com/ribasushi/go-fil-spid/pkg/internal/logging"
	"github.com/ribasushi/go-fil-spid/pkg/spid"
	"github.com/urfave/cli/v2"
)

// Exit codes of the command.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
)

const envPrefix = "FIL_SPID_"

const (
	flagConfig          = "config"
	flagAPIInfo         = "api-info"
	flagTimeout         = "timeout"
	flagRetries         = "retries"
	flagRetryMaxElapsed = "retry-max-elapsed"
	flagLogLevel        = "log-level"
	flagLogHandler      = "log-handler"
	flagHeaderName      = "header-name"
)

var errUsage = errors.New("usage error")

// Options configures the process plumbing of the command.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Clock  func() time.Time
}

// WithIO replaces the standard streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) func(*Options) {
	return func(opts *Options) {
		opts.Stdin = stdin
		opts.Stdout = stdout
		opts.Stderr = stderr
	}
}

// WithClock replaces the wall clock handed to the issuer.
func WithClock(now func() time.Time) func(*Options) {
	if now == nil {
		panic("clock must be provided")
	}

	return func(opts *Options) {
		opts.Clock = now
	}
}

type application struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

// Run executes the command with args (program name included) and returns the process exit code.
func Run(ctx context.Context, args []string, opts ...func(*Options)) int {
	options := to.OptionsWithDefault(Options{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Clock:  time.Now,
	}, opts...)

	a := &application{
		stdin:  options.Stdin,
		stdout: options.Stdout,
		stderr: options.Stderr,
		now:    options.Clock,
	}

	err := a.cli().RunContext(ctx, args)

	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, spid.ErrInvalidInput), errors.Is(err, errUsage):
		return ExitInvalidInput
	default:
		return ExitFailure
	}
}

func (a *application) cli() *cli.App {
	return &cli.App{
		Name:      "fil-spid",
		Usage:     "issue a FIL-SPID-V0 authorization header for a storage provider",
		ArgsUsage: "<storage-provider-id>",
		Description: "Prints a header proving control of the worker key of the given storage provider.\n" +
			"Up to 2048 bytes piped to stdin are bound into the header as payload.",
		Reader:          a.stdin,
		Writer:          a.stdout,
		ErrWriter:       a.stderr,
		HideHelpCommand: true,
		Flags:           flags(),
		Action:          a.issue,
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return fmt.Errorf("%w: %w", errUsage, err)
		},
		// exit codes are decided by Run, never by the cli package
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Usage:   "YAML configuration file",
			EnvVars: []string{envPrefix + "CONFIG"},
		},
		&cli.StringFlag{
			Name:    flagAPIInfo,
			Usage:   "daemon connection info `TOKEN:MULTIADDR`, defaults to " + apiinfo.EnvFullNodeAPIInfo + " or the Lotus repository",
			EnvVars: []string{envPrefix + "API_INFO"},
		},
		&cli.DurationFlag{
			Name:    flagTimeout,
			Usage:   "timeout of every chain daemon call",
			EnvVars: []string{envPrefix + "TIMEOUT"},
		},
		&cli.UintFlag{
			Name:    flagRetries,
			Usage:   "attempts per step on transient chain failures, 0 or 1 fails fast",
			EnvVars: []string{envPrefix + "RETRIES"},
		},
		&cli.DurationFlag{
			Name:    flagRetryMaxElapsed,
			Usage:   "upper bound of the time spent retrying a single step",
			EnvVars: []string{envPrefix + "RETRY_MAX_ELAPSED"},
		},
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "log level: debug, info, warn, error",
			EnvVars: []string{envPrefix + "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    flagLogHandler,
			Usage:   "log format: text, json",
			EnvVars: []string{envPrefix + "LOG_HANDLER"},
		},
		&cli.StringFlag{
			Name:    flagHeaderName,
			Usage:   "print `NAME: value` instead of the bare header value",
			EnvVars: []string{envPrefix + "HEADER_NAME"},
		},
	}
}

func (a *application) issue(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		err := fmt.Errorf("%w: expected exactly one storage provider id, got %d arguments", spid.ErrInvalidInput, cCtx.NArg())
		a.reportFailure(err)
		return err
	}
	providerID := cCtx.Args().First()

	// a malformed id is reported before any configuration or network work
	if _, err := spid.ParseProviderID(providerID); err != nil {
		a.reportFailure(err)
		return err
	}

	cfg, err := loadConfig(cCtx)
	if err != nil {
		err = fmt.Errorf("%w: %w", errUsage, err)
		a.reportFailure(err)
		return err
	}

	logger := logging.New(a.stderr, cfg.Log.Level, cfg.Log.Handler)

	payload, truncated, err := spid.ReadPayload(a.payloadSource())
	if err != nil {
		logger.Error("Failed to read payload", logging.Error(err))
		return err
	}

	log := logger.With(slog.String("provider", providerID), slog.Int("payload_size", len(payload)))
	// the payload size is reported at the default level, stdout carries only the header
	switch {
	case truncated:
		log.Warn("Payload exceeds the maximum size, truncated")
	case len(payload) > 0:
		log.Warn("Binding payload read from stdin")
	}

	info, err := resolveAPIInfo(cfg)
	if err != nil {
		log.Error("Failed to locate chain daemon", logging.Error(err))
		return err
	}

	client := lotus.New(info,
		lotus.WithTimeout(cfg.Timeout),
		lotus.WithLogger(logger),
	)

	issuer := spid.NewIssuer(client,
		spid.WithLogger(logger),
		spid.WithClock(a.now),
		spid.WithRetry(spid.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			MaxElapsed:  cfg.Retry.MaxElapsed,
		}),
	)

	credential, err := issuer.Issue(cCtx.Context, providerID, payload)
	if err != nil {
		log.Error("Failed to issue credential", logging.Error(err))
		return err
	}

	log.Info("Issued credential",
		slog.Int64("epoch", int64(credential.Epoch)),
		slog.String("worker", credential.Worker.String()),
	)

	if name := cCtx.String(flagHeaderName); name != "" {
		_, err = fmt.Fprintf(a.stdout, "%s: %s\n", name, credential.Header())
	} else {
		_, err = fmt.Fprintln(a.stdout, credential.Header())
	}
	return err
}

// reportFailure prints failures happening before the configured logger exists.
func (a *application) reportFailure(err error) {
	_, _ = fmt.Fprintf(a.stderr, "fil-spid: %s\n", err)
}

// payloadSource returns stdin unless it is an interactive terminal.
func (a *application) payloadSource() io.Reader {
	if f, ok := a.stdin.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return nil
		}
	}
	return a.stdin
}

// loadConfig applies flags on top of the config file on top of defaults.
func loadConfig(cCtx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := cCtx.String(flagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if cCtx.IsSet(flagAPIInfo) {
		cfg.APIInfo = cCtx.String(flagAPIInfo)
	}
	if cCtx.IsSet(flagTimeout) {
		cfg.Timeout = cCtx.Duration(flagTimeout)
	}
	if cCtx.IsSet(flagRetries) {
		cfg.Retry.MaxAttempts = cCtx.Uint(flagRetries)
	}
	if cCtx.IsSet(flagRetryMaxElapsed) {
		cfg.Retry.MaxElapsed = cCtx.Duration(flagRetryMaxElapsed)
	}
	if cCtx.IsSet(flagLogLevel) {
		cfg.Log.Level = defs.LogLevel(cCtx.String(flagLogLevel))
	}
	if cCtx.IsSet(flagLogHandler) {
		cfg.Log.Handler = defs.LogHandler(cCtx.String(flagLogHandler))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func resolveAPIInfo(cfg config.Config) (apiinfo.APIInfo, error) {
	if cfg.APIInfo != "" {
		return apiinfo.Parse(cfg.APIInfo)
	}
	return apiinfo.Discover()
}
