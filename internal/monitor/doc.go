// Package monitor is the core of luxd: monitor resolution and dispatch.
//
// Windows exposes monitor brightness through two unrelated subsystems
// that describe the same physical hardware by different keys. The WMI
// brightness classes address monitors by firmware identity (instance
// paths, serials); the DDC/CI path addresses them by physical monitor
// handles obtained from display enumeration. Neither enumeration is a
// superset of the other and there is no shared primary key beyond the
// raw EDID block, when the firmware bothers to expose one.
//
// This package owns the hard part of unifying the two views:
//
//   - Record: one monitor as seen through one channel, tagged with the
//     channel and the channel-local index needed to address it.
//   - Resolver: merges both channels' enumerations, deduplicates by EDID,
//     and filters by user query (index, serial, name, model or EDID hex).
//   - Dispatcher: top-level get/set entry points; fans out to the correct
//     provider per record and folds partial failures into either a
//     partial result or a single AggregateError.
//   - Cache: process-wide memoisation of enumerations (expensive, stable)
//     and brightness readings (cheap-ish, drifting, 500ms TTL).
//
// The channel providers themselves live in internal/channels/wmi and
// internal/channels/ddc and implement the Provider interface; this
// package never touches a syscall.
//
// # Error discipline
//
// Failures below the resolution step are absorbed: a channel that fails
// to enumerate contributes zero records, a record that fails a get/set is
// collected and reported alongside the records that worked. Failures at
// or above resolution (bad query type, index out of range, lookup miss)
// and total dispatch failure are fatal and carry full detail. An
// operation never returns a silent nothing: "no brightness value" and
// "operation failed" are distinct outcomes.
package monitor
