//go:build !windows

package wmi

import (
	"context"

	"github.com/nerrad567/luxd/internal/monitor"
)

// stubAPI stands in for the WMI service on platforms without one.
// Enumeration errors are absorbed by the resolver, so on these
// platforms the channel simply contributes no monitors.
type stubAPI struct{}

func defaultAPI() systemAPI { return stubAPI{} }

func (stubAPI) BrightnessInstances(context.Context) ([]BrightnessInstance, error) {
	return nil, monitor.ErrUnsupported
}

func (stubAPI) Descriptors(context.Context) (map[string][]byte, error) {
	return nil, monitor.ErrUnsupported
}

func (stubAPI) ApplyBrightness(context.Context, int, int) error {
	return monitor.ErrUnsupported
}
