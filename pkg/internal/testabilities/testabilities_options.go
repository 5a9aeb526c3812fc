package testabilities

import "log/slog"

type Options struct {
	logger *slog.Logger
}

// WithLogger makes fixtures log through logger instead of the test output.
func WithLogger(logger *slog.Logger) func(*Options) {
	return func(options *Options) {
		options.logger = logger
	}
}

// WithoutLogging silences issuer, client and RPC fixture logs.
func WithoutLogging() func(*Options) {
	return func(options *Options) {
		options.logger = slog.New(slog.DiscardHandler)
	}
}
