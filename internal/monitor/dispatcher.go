package monitor

import (
	"context"
	"fmt"
)

// Recorder persists successful brightness changes. Implementations must
// be thread-safe; the history package provides the SQLite one.
type Recorder interface {
	RecordBrightness(ctx context.Context, rec Record, value int) error
}

// Publisher announces brightness state to interested parties (MQTT).
type Publisher interface {
	PublishBrightness(rec Record, value int) error
}

// Dispatcher is the top-level entry point for brightness operations.
//
// Each call resolves the query to a set of records, routes every record
// to its own channel's provider, and folds the per-record outcomes into
// one result or one aggregate error. Channel calls are issued
// sequentially — each one is a hardware round trip of 10ms to 2s, there
// is no retry, no timeout, and a hung channel blocks the operation.
type Dispatcher struct {
	resolver  *Resolver
	cache     *Cache
	logger    Logger
	recorder  Recorder  // optional
	publisher Publisher // optional
}

// NewDispatcher creates a dispatcher over the given channel providers
// with a fresh shared cache.
func NewDispatcher(providers ...Provider) *Dispatcher {
	cache := NewCache()
	return &Dispatcher{
		resolver: NewResolver(cache, providers...),
		cache:    cache,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher and its resolver.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
	d.resolver.SetLogger(logger)
}

// SetRecorder wires a brightness history recorder. Recording is best
// effort: a recorder failure is logged, never surfaced.
func (d *Dispatcher) SetRecorder(rec Recorder) {
	d.recorder = rec
}

// SetPublisher wires a state publisher. Publishing is best effort.
func (d *Dispatcher) SetPublisher(pub Publisher) {
	d.publisher = pub
}

// Resolver exposes the underlying resolver, mainly for tests and the API
// layer's monitor listing.
func (d *Dispatcher) Resolver() *Resolver {
	return d.resolver
}

// Flush drops all cached enumerations and readings.
func (d *Dispatcher) Flush() {
	d.cache.Flush()
}

// ListMonitorsInfo returns the merged, deduplicated monitor list,
// optionally restricted to one channel.
func (d *Dispatcher) ListMonitorsInfo(ctx context.Context, constraint Channel) []Record {
	records, err := Filter(All(), d.resolver.Merge(ctx), constraint)
	if err != nil {
		// All() cannot fail to filter; keep the compiler honest.
		d.logger.Error("listing monitors", "error", err)
		return nil
	}
	return records
}

// ListMonitors returns the display names of every addressable monitor.
func (d *Dispatcher) ListMonitors(ctx context.Context, constraint Channel) []string {
	records := d.ListMonitorsInfo(ctx, constraint)
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Name)
	}
	return names
}

// GetBrightness reads the brightness of every monitor matching query.
//
// Resolution failures (ErrQueryType, ErrQueryIndex, ErrQueryLookup)
// surface immediately. Per-record read failures are absorbed: the slot is
// kept in the result as an invalid Reading so callers can still tell
// which monitor it belongs to. Only when not a single usable value was
// produced does the call fail, with an AggregateError listing every
// collected failure.
func (d *Dispatcher) GetBrightness(ctx context.Context, query Query, constraint Channel) ([]Reading, error) {
	records, err := d.resolver.Resolve(ctx, query, constraint)
	if err != nil {
		return nil, err
	}

	readings := make([]Reading, 0, len(records))
	var failures []Failure
	usable := 0

	for _, rec := range records {
		value, ok, readErr := d.readBrightness(ctx, rec)
		if readErr != nil {
			failures = append(failures, Failure{
				Monitor: fmt.Sprintf("%s (%s)", rec.Name, rec.Serial),
				Op:      "get",
				Err:     readErr,
			})
			readings = append(readings, Reading{Monitor: rec})
			continue
		}
		readings = append(readings, Reading{Monitor: rec, Value: value, Valid: ok})
		if ok {
			usable++
		}
	}

	if usable == 0 {
		return nil, &AggregateError{Failures: failures}
	}
	return readings, nil
}

// SetBrightness writes value (clamped to [0,100]) to every monitor
// matching query.
//
// Per-record failures are collected rather than aborting the loop. When
// at least one record succeeded and readback is true, the paired
// GetBrightness flow runs for the same query and its result is returned;
// with readback false the readings are nil. When every record failed the
// call returns an AggregateError listing each failure.
func (d *Dispatcher) SetBrightness(ctx context.Context, value int, query Query, constraint Channel, readback bool) ([]Reading, error) {
	records, err := d.resolver.Resolve(ctx, query, constraint)
	if err != nil {
		return nil, err
	}

	value = clampPercent(value)

	var failures []Failure
	succeeded := 0

	for _, rec := range records {
		provider, ok := d.resolver.Provider(rec.Channel)
		if !ok {
			failures = append(failures, Failure{
				Monitor: fmt.Sprintf("%s (%s)", rec.Name, rec.Serial),
				Op:      "set",
				Err:     fmt.Errorf("no provider for channel %q", rec.Channel),
			})
			continue
		}

		if setErr := provider.SetBrightness(ctx, rec.ChannelIndex, value); setErr != nil {
			failures = append(failures, Failure{
				Monitor: fmt.Sprintf("%s (%s)", rec.Name, rec.Serial),
				Op:      "set",
				Err:     setErr,
			})
			continue
		}

		succeeded++
		// The cached reading is stale the moment the write lands.
		d.cache.invalidate(brightnessKey(rec.Channel, rec.ChannelIndex))
		d.logger.Info("brightness set", "monitor", rec.Name, "serial", rec.Serial, "value", value)

		if d.recorder != nil {
			if recErr := d.recorder.RecordBrightness(ctx, rec, value); recErr != nil {
				d.logger.Warn("recording brightness history", "monitor", rec.Name, "error", recErr)
			}
		}
		if d.publisher != nil {
			if pubErr := d.publisher.PublishBrightness(rec, value); pubErr != nil {
				d.logger.Warn("publishing brightness state", "monitor", rec.Name, "error", pubErr)
			}
		}
	}

	if succeeded == 0 {
		return nil, &AggregateError{Failures: failures}
	}
	if !readback {
		return nil, nil
	}
	return d.GetBrightness(ctx, query, constraint)
}

// readBrightness reads one record's brightness through its channel,
// serving repeated reads from the short-lived cache. Only usable values
// are cached; absence and failure are always re-queried.
func (d *Dispatcher) readBrightness(ctx context.Context, rec Record) (int, bool, error) {
	key := brightnessKey(rec.Channel, rec.ChannelIndex)
	if v, ok := d.cache.get(key); ok {
		if value, ok := v.(int); ok {
			return value, true, nil
		}
	}

	provider, ok := d.resolver.Provider(rec.Channel)
	if !ok {
		return 0, false, fmt.Errorf("no provider for channel %q", rec.Channel)
	}

	value, ok, err := provider.GetBrightness(ctx, rec.ChannelIndex)
	if err != nil {
		return 0, false, err
	}
	if ok {
		d.cache.store(key, value, brightnessTTL)
	}
	return value, ok, nil
}
