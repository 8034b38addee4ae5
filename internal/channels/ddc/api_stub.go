//go:build !windows

package ddc

import (
	"context"

	"github.com/nerrad567/luxd/internal/channels/wmi"
	"github.com/nerrad567/luxd/internal/monitor"
)

// stubAPI stands in for the display APIs on platforms without them.
type stubAPI struct{}

func defaultAPI() displayAPI { return stubAPI{} }

func (stubAPI) VisitHandles(context.Context, func(Handle) error) error {
	return monitor.ErrUnsupported
}

func (stubAPI) DeviceInstanceIDs(context.Context) ([]string, error) {
	return nil, monitor.ErrUnsupported
}

func (stubAPI) Identities(context.Context) ([]wmi.Identity, error) {
	return nil, monitor.ErrUnsupported
}

func (stubAPI) Descriptors(context.Context) (map[string][]byte, error) {
	return nil, monitor.ErrUnsupported
}

func (stubAPI) Capabilities(Handle) (string, error) {
	return "", monitor.ErrUnsupported
}

func (stubAPI) ReadFeature(Handle, byte) (uint32, error) {
	return 0, monitor.ErrUnsupported
}

func (stubAPI) WriteFeature(Handle, byte, uint32) error {
	return monitor.ErrUnsupported
}
