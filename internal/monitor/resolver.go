package monitor

import (
	"context"
	"fmt"
	"strings"
)

// Resolver translates a user query into the concrete set of monitor
// records the dispatcher will act on.
//
// It consults every registered channel provider (cached), merges the two
// channel views of the same hardware into one list, and filters that list
// down to the records matching the query.
type Resolver struct {
	providers []Provider
	cache     *Cache
	logger    Logger
}

// NewResolver creates a resolver over the given providers, memoising
// enumerations in cache.
func NewResolver(cache *Cache, providers ...Provider) *Resolver {
	return &Resolver{
		providers: providers,
		cache:     cache,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger used for enumeration diagnostics.
func (r *Resolver) SetLogger(logger Logger) {
	r.logger = logger
}

// Provider returns the provider implementing the given channel.
func (r *Resolver) Provider(ch Channel) (Provider, bool) {
	for _, p := range r.providers {
		if p.Channel() == ch {
			return p, true
		}
	}
	return nil, false
}

// enumerate returns one provider's records, served from cache when the
// channel has been enumerated before in this process.
//
// A failed enumeration is absorbed here, deliberately and loudly: the
// channel contributes zero records and a warning is logged, but discovery
// as a whole continues. One dead channel must never hide the monitors the
// other channel can still see. Failures are not cached, so a channel that
// recovers is picked up by the next resolve.
func (r *Resolver) enumerate(ctx context.Context, p Provider) []Record {
	key := enumerationKey(p.Channel())
	if v, ok := r.cache.get(key); ok {
		if records, ok := v.([]Record); ok {
			return records
		}
	}

	records, err := p.Enumerate(ctx)
	if err != nil {
		r.logger.Warn("channel enumeration failed",
			"channel", p.Channel(),
			"error", err,
		)
		return nil
	}

	r.cache.store(key, records, 0)
	r.logger.Debug("channel enumerated", "channel", p.Channel(), "monitors", len(records))
	return records
}

// Merge returns the deduplicated union of every channel's monitor list.
//
// Channel order follows provider registration order. Records sharing a
// non-nil identity block describe the same physical display; the first
// one seen wins and keeps its original channel and channel index for
// dispatch. Records without an identity block are never deduplicated
// against anything: over-reporting an unidentifiable monitor is preferred
// to silently dropping it.
func (r *Resolver) Merge(ctx context.Context) []Record {
	var merged []Record
	seen := make(map[string]bool)

	for _, p := range r.providers {
		for _, rec := range r.enumerate(ctx, p) {
			if key := rec.EDIDHex(); key != "" {
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			merged = append(merged, rec)
		}
	}
	return merged
}

// Resolve merges both channels and filters to the records matching query.
func (r *Resolver) Resolve(ctx context.Context, query Query, constraint Channel) ([]Record, error) {
	return Filter(query, r.Merge(ctx), constraint)
}

// Filter selects the records in haystack matching query, optionally
// restricted to a single channel first.
//
// String queries match case-insensitively and exactly against one field
// at a time, in priority order: serial, name, model, identity block hex.
// The first field that matches any record wins and ALL records matching
// on that field are returned. The precedence is load-bearing: model
// numbers collide across manufacturers, serials are assumed unique per
// channel, and the identity block is last because nobody types EDID hex
// by hand — it exists for automated matching.
//
// Errors: ErrQueryIndex for an out-of-range index, ErrQueryLookup when a
// string matches nothing, ErrQueryType for a malformed query.
func Filter(query Query, haystack []Record, constraint Channel) ([]Record, error) {
	if constraint != ChannelAny {
		restricted := make([]Record, 0, len(haystack))
		for _, rec := range haystack {
			if rec.Channel == constraint {
				restricted = append(restricted, rec)
			}
		}
		haystack = restricted
	}

	switch query.kind {
	case queryAll:
		return haystack, nil

	case queryIndex:
		if query.index < 0 || query.index >= len(haystack) {
			return nil, fmt.Errorf("%w: index %d with %d display(s) detected", ErrQueryIndex, query.index, len(haystack))
		}
		return []Record{haystack[query.index]}, nil

	case queryString:
		fields := []func(Record) string{
			func(rec Record) string { return rec.Serial },
			func(rec Record) string { return rec.Name },
			func(rec Record) string { return rec.Model },
			func(rec Record) string { return rec.EDIDHex() },
		}
		for _, field := range fields {
			var matches []Record
			for _, rec := range haystack {
				if v := field(rec); v != "" && strings.EqualFold(v, query.text) {
					matches = append(matches, rec)
				}
			}
			if len(matches) > 0 {
				return matches, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrQueryLookup, query)

	default:
		return nil, fmt.Errorf("%w: unknown query kind %d", ErrQueryType, query.kind)
	}
}
