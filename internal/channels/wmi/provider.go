package wmi

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/luxd/internal/brand"
	"github.com/nerrad567/luxd/internal/monitor"
)

// BrightnessInstance is one row of the firmware brightness class: the
// PNP instance name plus the current brightness percentage.
type BrightnessInstance struct {
	InstanceName string
	Current      int
}

// Identity is one row of the monitor identification class. The DDC/CI
// channel also consumes these to correlate its display handles with
// firmware identity data.
type Identity struct {
	InstanceName string
	Serial       string
	FriendlyName string
}

// systemAPI abstracts the WMI service calls the provider needs.
// The Windows implementation is in api_windows.go.
type systemAPI interface {
	// BrightnessInstances lists the firmware brightness instances in
	// enumeration order.
	BrightnessInstances(ctx context.Context) ([]BrightnessInstance, error)

	// Descriptors returns the raw 128-byte identity block per instance
	// name, for the instances whose firmware exposes one.
	Descriptors(ctx context.Context) (map[string][]byte, error)

	// ApplyBrightness writes a brightness percentage to the instance at
	// the given enumeration position.
	ApplyBrightness(ctx context.Context, index, value int) error
}

// Provider implements monitor.Provider over the firmware channel.
type Provider struct {
	api    systemAPI
	logger monitor.Logger
}

// New returns a Provider bound to the host's WMI service. On platforms
// without one the provider reports every operation as unsupported.
func New() *Provider {
	return &Provider{api: defaultAPI(), logger: monitor.NopLogger()}
}

// SetLogger replaces the provider's logger.
func (p *Provider) SetLogger(logger monitor.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Channel identifies this provider as the firmware channel.
func (p *Provider) Channel() monitor.Channel { return monitor.ChannelWMI }

// Enumerate lists the monitors the firmware channel can address.
// Identity descriptors are best effort: when the descriptor query
// fails the records are still returned, just without identity blocks.
func (p *Provider) Enumerate(ctx context.Context) ([]monitor.Record, error) {
	instances, err := p.api.BrightnessInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("wmi: enumerating brightness instances: %w", err)
	}

	descriptors, err := p.api.Descriptors(ctx)
	if err != nil {
		p.logger.Warn("reading monitor descriptors", "error", err)
		descriptors = nil
	}

	records := make([]monitor.Record, 0, len(instances))
	for i, inst := range instances {
		rec := recordFromInstance(inst.InstanceName, i)
		rec.EDID = descriptors[inst.InstanceName]
		records = append(records, rec)
	}
	return records, nil
}

// GetBrightness reads the current brightness of the instance at index.
// The firmware reports a value for every instance it lists, so ok is
// only false when the instance has disappeared since enumeration.
func (p *Provider) GetBrightness(ctx context.Context, index int) (int, bool, error) {
	instances, err := p.api.BrightnessInstances(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("wmi: reading brightness: %w", err)
	}
	if index < 0 || index >= len(instances) {
		return 0, false, nil
	}
	return instances[index].Current, true, nil
}

// SetBrightness writes a brightness percentage to the instance at index.
func (p *Provider) SetBrightness(ctx context.Context, index, value int) error {
	if err := p.api.ApplyBrightness(ctx, index, value); err != nil {
		return fmt.Errorf("wmi: applying brightness: %w", err)
	}
	return nil
}

// recordFromInstance builds a Record from a PNP instance name such as
// "DISPLAY\BNQ78A7\4&2e490a7&0&UID200_0". The second path segment is
// the model identifier and starts with the three-letter manufacturer
// code; the last segment is the Windows-assigned serial.
func recordFromInstance(instanceName string, index int) monitor.Record {
	rec := monitor.Record{
		ChannelIndex: index,
		Channel:      monitor.ChannelWMI,
	}

	parts := strings.Split(instanceName, `\`)
	if len(parts) >= 2 {
		rec.Model = parts[1]
		rec.Serial = parts[len(parts)-1]
	}

	if len(rec.Model) >= brand.CodeLength {
		code := rec.Model[:brand.CodeLength]
		rec.ManufacturerID = strings.ToUpper(code)
		if id, name, err := brand.Lookup(code); err == nil {
			rec.ManufacturerID = id
			rec.Manufacturer = name
		}
	}

	rec.Name = strings.TrimSpace(rec.Manufacturer + " " + rec.Model)
	return rec
}
