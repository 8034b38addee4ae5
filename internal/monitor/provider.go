package monitor

import "context"

// Provider is one brightness control channel.
//
// Exactly two implementations exist: the WMI provider (channels/wmi) and
// the DDC/CI provider (channels/ddc). The dispatcher selects the
// implementation per record via the record's Channel tag; there is no
// dynamic dispatch by name.
//
// Index arguments refer to the provider's own enumeration order, i.e. a
// Record.ChannelIndex produced by the same provider. Indexes are only
// valid against a current enumeration snapshot.
type Provider interface {
	// Channel identifies which channel this provider implements.
	Channel() Channel

	// Enumerate returns all monitors addressable through this channel.
	// An error means the whole channel is unavailable; the resolver
	// absorbs it and the channel contributes zero records.
	Enumerate(ctx context.Context) ([]Record, error)

	// GetBrightness reads the brightness of the monitor at index.
	// ok is false when the channel answered but the monitor produced no
	// usable value (e.g. the feature is unsupported); err reports an
	// actual call failure.
	GetBrightness(ctx context.Context, index int) (value int, ok bool, err error)

	// SetBrightness writes a brightness percentage to the monitor at
	// index. The value must already be clamped to [0,100]; the hardware
	// channels perform no validation of their own.
	SetBrightness(ctx context.Context, index, value int) error
}

// Logger is the minimal logging interface the monitor package needs.
// It is satisfied by infrastructure/logging.Logger and by slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger returns a Logger that discards all output. Channel
// providers use it as their default until a real logger is wired in.
func NopLogger() Logger { return noopLogger{} }

// noopLogger discards all log output. Used until a real logger is set.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
