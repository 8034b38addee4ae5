package ddc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/luxd/internal/brand"
	"github.com/nerrad567/luxd/internal/channels/wmi"
	"github.com/nerrad567/luxd/internal/monitor"
)

// vcpBrightness is the VCP feature code for luminance.
const vcpBrightness = 0x10

// Handle is an opaque physical monitor handle. Valid only for the
// duration of a single VisitHandles pass.
type Handle uintptr

// errStopVisit signals VisitHandles to stop early. Every handle opened
// so far is still destroyed.
var errStopVisit = errors.New("ddc: stop visiting")

// displayAPI abstracts the operating system surface the provider
// needs. The Windows implementation is in api_windows.go.
type displayAPI interface {
	// VisitHandles opens the physical monitor handles in enumeration
	// order and calls visit for each. A non-nil return from visit stops
	// the walk and is returned as-is; handles never outlive the call.
	VisitHandles(ctx context.Context, visit func(Handle) error) error

	// DeviceInstanceIDs returns the device path segment of each display
	// in the same order VisitHandles produces handles.
	DeviceInstanceIDs(ctx context.Context) ([]string, error)

	// Identities returns the firmware identification instances.
	Identities(ctx context.Context) ([]wmi.Identity, error)

	// Descriptors returns the raw identity block per instance name.
	Descriptors(ctx context.Context) (map[string][]byte, error)

	// Capabilities reads the capability string of a handle.
	Capabilities(h Handle) (string, error)

	// ReadFeature reads the current value of a VCP feature.
	ReadFeature(h Handle, code byte) (uint32, error)

	// WriteFeature writes a VCP feature value.
	WriteFeature(h Handle, code byte, value uint32) error
}

// Provider implements monitor.Provider over the DDC/CI channel.
type Provider struct {
	api    displayAPI
	logger monitor.Logger
}

// New returns a Provider bound to the host's display APIs. On
// platforms without them the provider reports every operation as
// unsupported.
func New() *Provider {
	return &Provider{api: defaultAPI(), logger: monitor.NopLogger()}
}

// SetLogger replaces the provider's logger.
func (p *Provider) SetLogger(logger monitor.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Channel identifies this provider as the DDC/CI channel.
func (p *Provider) Channel() monitor.Channel { return monitor.ChannelDDC }

// Enumerate lists the monitors reachable over DDC/CI.
//
// Physical handles carry no identity, so the firmware identification
// instances are reordered to match the handle enumeration order via
// the shared device path segment. Identities whose device path does
// not appear in the handle order are skipped, as are identities whose
// friendly name cannot be decoded.
func (p *Provider) Enumerate(ctx context.Context) ([]monitor.Record, error) {
	order, err := p.api.DeviceInstanceIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("ddc: enumerating display devices: %w", err)
	}

	identities, err := p.api.Identities(ctx)
	if err != nil {
		return nil, fmt.Errorf("ddc: reading monitor identities: %w", err)
	}

	descriptors, err := p.api.Descriptors(ctx)
	if err != nil {
		p.logger.Warn("reading monitor descriptors", "error", err)
		descriptors = nil
	}

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	ordered := make([]*wmi.Identity, len(order))
	for i := range identities {
		ident := &identities[i]
		pos, ok := position[devicePathSegment(ident.InstanceName)]
		if !ok {
			p.logger.Debug("identity has no matching display device", "instance", ident.InstanceName)
			continue
		}
		ordered[pos] = ident
	}

	records := make([]monitor.Record, 0, len(ordered))
	for _, ident := range ordered {
		if ident == nil {
			continue
		}
		rec, ok := recordFromIdentity(*ident, len(records))
		if !ok {
			p.logger.Debug("skipping undecodable identity", "instance", ident.InstanceName)
			continue
		}
		rec.EDID = descriptors[ident.InstanceName]
		records = append(records, rec)
	}
	return records, nil
}

// GetBrightness reads VCP feature 0x10 from the handle at index.
// A failed read or a missing handle reports no value rather than an
// error; many displays expose a handle but ignore the protocol.
func (p *Provider) GetBrightness(ctx context.Context, index int) (int, bool, error) {
	var (
		value int
		ok    bool
	)
	i := 0
	err := p.api.VisitHandles(ctx, func(h Handle) error {
		if i != index {
			i++
			return nil
		}
		v, readErr := p.api.ReadFeature(h, vcpBrightness)
		if readErr != nil {
			p.logger.Debug("vcp read failed", "index", index, "error", readErr)
			return errStopVisit
		}
		value, ok = int(v), true
		return errStopVisit
	})
	if err != nil && !errors.Is(err, errStopVisit) {
		return 0, false, fmt.Errorf("ddc: enumerating physical handles: %w", err)
	}
	return value, ok, nil
}

// SetBrightness writes VCP feature 0x10 on the handle at index.
// Unlike reads, a failed write is an error: the caller asked for a
// state change and did not get one.
func (p *Provider) SetBrightness(ctx context.Context, index, value int) error {
	applied := false
	i := 0
	err := p.api.VisitHandles(ctx, func(h Handle) error {
		if i != index {
			i++
			return nil
		}
		if writeErr := p.api.WriteFeature(h, vcpBrightness, uint32(value)); writeErr != nil {
			return writeErr
		}
		applied = true
		return errStopVisit
	})
	if err != nil && !errors.Is(err, errStopVisit) {
		return fmt.Errorf("ddc: writing vcp feature: %w", err)
	}
	if !applied {
		return fmt.Errorf("ddc: no display handle at index %d", index)
	}
	return nil
}

// Capabilities reads the capability string of the handle at index, e.g.
// "(prot(monitor)type(LCD)model(GL2450HM)...)". Displays that do not
// answer the request yield an empty string, not an error.
func (p *Provider) Capabilities(ctx context.Context, index int) (string, error) {
	var caps string
	i := 0
	err := p.api.VisitHandles(ctx, func(h Handle) error {
		if i != index {
			i++
			return nil
		}
		c, capErr := p.api.Capabilities(h)
		if capErr != nil {
			p.logger.Debug("capabilities request failed", "index", index, "error", capErr)
			return errStopVisit
		}
		caps = c
		return errStopVisit
	})
	if err != nil && !errors.Is(err, errStopVisit) {
		return "", fmt.Errorf("ddc: enumerating physical handles: %w", err)
	}
	return caps, nil
}

// devicePathSegment extracts the shared correlation key from a WMI
// instance name: drop the first "_0" marker, then take the third
// backslash-separated segment, which matches the middle segment of the
// GDI device interface path.
func devicePathSegment(instanceName string) string {
	parts := strings.Split(strings.Replace(instanceName, "_0", "", 1), `\`)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// recordFromIdentity builds a Record from a firmware identity. The
// friendly name is "<manufacturer> <model>"; an identity without both
// halves is unusable and reported as not ok.
func recordFromIdentity(ident wmi.Identity, index int) (monitor.Record, bool) {
	manufacturer, model, ok := strings.Cut(ident.FriendlyName, " ")
	if !ok || manufacturer == "" || model == "" {
		return monitor.Record{}, false
	}

	manufacturer = capitalise(manufacturer)
	manufacturerID := ""
	if id, name, err := brand.Lookup(manufacturer); err == nil {
		manufacturerID = id
		manufacturer = name
	}

	return monitor.Record{
		Name:           manufacturer + " " + model,
		Model:          model,
		Serial:         ident.Serial,
		Manufacturer:   manufacturer,
		ManufacturerID: manufacturerID,
		ChannelIndex:   index,
		Channel:        monitor.ChannelDDC,
	}, true
}

// capitalise normalises vendor strings such as "BENQ" to "Benq" so the
// brand table can match them by name.
func capitalise(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
