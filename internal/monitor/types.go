package monitor

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Channel identifies one of the two brightness control channels.
type Channel string

// Channel constants. The empty string acts as "no constraint" where a
// channel filter is optional.
const (
	// ChannelWMI addresses laptop-style panels through the WMI brightness
	// classes (firmware identity channel).
	ChannelWMI Channel = "wmi"

	// ChannelDDC addresses external monitors through physical monitor
	// handles and DDC/CI (handle enumeration channel).
	ChannelDDC Channel = "ddc"

	// ChannelAny applies no channel constraint.
	ChannelAny Channel = ""
)

// ParseChannel converts a string into a Channel constraint.
// An empty string means "any channel"; anything else must be a known channel.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(s)) {
	case ChannelAny:
		return ChannelAny, nil
	case ChannelWMI:
		return ChannelWMI, nil
	case ChannelDDC:
		return ChannelDDC, nil
	default:
		return ChannelAny, fmt.Errorf("%w: channel must be %q or %q, got %q", ErrQueryType, ChannelWMI, ChannelDDC, s)
	}
}

// Record describes one physical monitor as seen through one channel.
//
// A Record is created fresh on every enumeration and never mutated. The
// ChannelIndex is only meaningful against the enumeration snapshot that
// produced it; it is the position handed back to the owning channel for
// get/set calls, not a stable identifier.
type Record struct {
	// Name is the derived display string: manufacturer plus model.
	Name string `json:"name"`

	// Model is the model code reported by the channel (e.g. "GL2450H").
	Model string `json:"model"`

	// ModelName is a friendlier model name when the channel can supply one.
	// The DDC channel cannot populate this.
	ModelName string `json:"model_name,omitempty"`

	// Serial is unique within a channel's enumeration only. Two channels
	// may report different serials for the same physical display.
	Serial string `json:"serial"`

	// Manufacturer is the resolved brand name, empty when the PNP code is
	// not in the brand table.
	Manufacturer string `json:"manufacturer,omitempty"`

	// ManufacturerID is the raw three-letter PNP code, empty when unknown.
	ManufacturerID string `json:"manufacturer_id,omitempty"`

	// EDID is the raw display identity block. When present on records from
	// both channels it is the only safe cross-channel join key; name, model
	// and serial formatting differ between channels ("Benq" vs "BenQ").
	// Nil when the firmware does not expose it.
	EDID []byte `json:"edid,omitempty"`

	// ChannelIndex is the record's position within its channel's
	// enumeration order.
	ChannelIndex int `json:"channel_index"`

	// Channel is the control channel this record was enumerated through.
	Channel Channel `json:"channel"`
}

// EDIDHex returns the identity block as a lowercase hex string, or the
// empty string when the block is absent. This is the form used for
// deduplication and string-query matching.
func (r Record) EDIDHex() string {
	if len(r.EDID) == 0 {
		return ""
	}
	return hex.EncodeToString(r.EDID)
}

// Reading is the brightness of a single monitor.
//
// Valid is false when the channel answered but produced no usable value,
// e.g. a monitor that does not implement the brightness feature. That is
// distinct from a failed operation, which is reported as an error.
type Reading struct {
	Monitor Record `json:"monitor"`
	Value   int    `json:"value"`
	Valid   bool   `json:"valid"`
}

// queryKind is the closed set of query shapes.
type queryKind int

const (
	queryAll queryKind = iota
	queryIndex
	queryString
)

// Query selects a subset of the merged monitor list. The zero value
// matches all monitors.
//
// Queries are ephemeral and caller supplied: either nothing (all
// monitors), a non-negative index into the merged list, or a string
// matched case-insensitively against serial, name, model and identity
// block, in that order of precedence.
type Query struct {
	kind  queryKind
	index int
	text  string
}

// All returns the query matching every monitor.
func All() Query { return Query{} }

// ByIndex returns a query selecting the monitor at position i in the
// merged (and optionally channel-constrained) list.
func ByIndex(i int) Query { return Query{kind: queryIndex, index: i} }

// ByString returns a query matching s against serial, name, model and
// identity block.
func ByString(s string) Query { return Query{kind: queryString, text: s} }

// NewQuery builds a Query from a loosely typed value: nil selects all
// monitors, an int selects by index and a string selects by match.
// Any other type is rejected with ErrQueryType.
func NewQuery(v any) (Query, error) {
	switch q := v.(type) {
	case nil:
		return All(), nil
	case int:
		return ByIndex(q), nil
	case string:
		return ByString(q), nil
	default:
		return Query{}, fmt.Errorf("%w: got %T", ErrQueryType, v)
	}
}

// ParseQuery interprets a command-line argument as a Query: empty means
// all monitors, a bare integer selects by index, anything else matches
// as a string.
func ParseQuery(s string) Query {
	if s == "" {
		return All()
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 0 {
		return ByIndex(i)
	}
	return ByString(s)
}

// IsAll reports whether the query matches every monitor.
func (q Query) IsAll() bool { return q.kind == queryAll }

// String renders the query for log and error messages.
func (q Query) String() string {
	switch q.kind {
	case queryIndex:
		return fmt.Sprintf("index %d", q.index)
	case queryString:
		return fmt.Sprintf("%q", q.text)
	default:
		return "all displays"
	}
}

// clampPercent forces a brightness value into the [0,100] range the
// hardware channels expect. Neither channel validates natively; values
// outside the range produce undefined hardware behaviour.
func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
