//go:build windows

package ddc

import (
	"context"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/nerrad567/luxd/internal/channels/wmi"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	dxva2  = windows.NewLazySystemDLL("dxva2.dll")

	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
	procEnumDisplayDevicesW = user32.NewProc("EnumDisplayDevicesW")

	procGetNumberOfPhysicalMonitors = dxva2.NewProc("GetNumberOfPhysicalMonitorsFromHMONITOR")
	procGetPhysicalMonitors         = dxva2.NewProc("GetPhysicalMonitorsFromHMONITOR")
	procDestroyPhysicalMonitor      = dxva2.NewProc("DestroyPhysicalMonitor")

	procGetCapabilitiesStringLength = dxva2.NewProc("GetCapabilitiesStringLength")
	procCapabilitiesRequest         = dxva2.NewProc("CapabilitiesRequestAndCapabilitiesReply")
	procGetVCPFeature               = dxva2.NewProc("GetVCPFeatureAndVCPFeatureReply")
	procSetVCPFeature               = dxva2.NewProc("SetVCPFeature")
)

// eddGetDeviceInterfaceName makes EnumDisplayDevices return the device
// interface path in DeviceID instead of the GPU description.
const eddGetDeviceInterfaceName = 0x00000001

type rect struct {
	left, top, right, bottom int32
}

type monitorInfoEx struct {
	size    uint32
	monitor rect
	work    rect
	flags   uint32
	device  [32]uint16
}

type displayDevice struct {
	cb           uint32
	deviceName   [32]uint16
	deviceString [128]uint16
	stateFlags   uint32
	deviceID     [128]uint16
	deviceKey    [128]uint16
}

type physicalMonitor struct {
	handle      windows.Handle
	description [128]uint16
}

// windowsAPI implements displayAPI against the live GDI and monitor
// configuration APIs.
type windowsAPI struct{}

func defaultAPI() displayAPI { return windowsAPI{} }

// enumHMonitors lists the logical monitor handles.
func enumHMonitors() ([]windows.Handle, error) {
	var handles []windows.Handle
	callback := windows.NewCallback(func(hMonitor, hdc, rc, lparam uintptr) uintptr {
		handles = append(handles, windows.Handle(hMonitor))
		return 1
	})
	ret, _, err := procEnumDisplayMonitors.Call(0, 0, callback, 0)
	if ret == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}
	return handles, nil
}

func (windowsAPI) VisitHandles(ctx context.Context, visit func(Handle) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logical, err := enumHMonitors()
	if err != nil {
		return err
	}

	for _, hm := range logical {
		var count uint32
		ret, _, callErr := procGetNumberOfPhysicalMonitors.Call(uintptr(hm), uintptr(unsafe.Pointer(&count)))
		if ret == 0 {
			return fmt.Errorf("GetNumberOfPhysicalMonitorsFromHMONITOR: %w", callErr)
		}
		if count == 0 {
			continue
		}

		physical := make([]physicalMonitor, count)
		ret, _, callErr = procGetPhysicalMonitors.Call(uintptr(hm), uintptr(count), uintptr(unsafe.Pointer(&physical[0])))
		if ret == 0 {
			return fmt.Errorf("GetPhysicalMonitorsFromHMONITOR: %w", callErr)
		}

		visitErr := error(nil)
		for _, pm := range physical {
			if visitErr == nil {
				visitErr = visit(Handle(pm.handle))
			}
			procDestroyPhysicalMonitor.Call(uintptr(pm.handle))
		}
		if visitErr != nil {
			return visitErr
		}
	}
	return nil
}

func (windowsAPI) DeviceInstanceIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logical, err := enumHMonitors()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(logical))
	for _, hm := range logical {
		var info monitorInfoEx
		info.size = uint32(unsafe.Sizeof(info))
		ret, _, callErr := procGetMonitorInfoW.Call(uintptr(hm), uintptr(unsafe.Pointer(&info)))
		if ret == 0 {
			return nil, fmt.Errorf("GetMonitorInfoW: %w", callErr)
		}

		var dev displayDevice
		dev.cb = uint32(unsafe.Sizeof(dev))
		ret, _, callErr = procEnumDisplayDevicesW.Call(
			uintptr(unsafe.Pointer(&info.device[0])),
			0,
			uintptr(unsafe.Pointer(&dev)),
			eddGetDeviceInterfaceName,
		)
		if ret == 0 {
			return nil, fmt.Errorf("EnumDisplayDevicesW: %w", callErr)
		}

		// The interface path looks like
		// \\?\DISPLAY#BNQ78A7#4&2e490a7&0&UID200#{...}; the third
		// hash-separated segment is the device path shared with WMI.
		parts := strings.Split(windows.UTF16ToString(dev.deviceID[:]), "#")
		if len(parts) < 3 {
			ids = append(ids, "")
			continue
		}
		ids = append(ids, parts[2])
	}
	return ids, nil
}

func (windowsAPI) Identities(ctx context.Context) ([]wmi.Identity, error) {
	return wmi.QueryIdentities(ctx)
}

func (windowsAPI) Descriptors(ctx context.Context) (map[string][]byte, error) {
	return wmi.QueryDescriptors(ctx)
}

func (windowsAPI) Capabilities(h Handle) (string, error) {
	var length uint32
	ret, _, err := procGetCapabilitiesStringLength.Call(uintptr(h), uintptr(unsafe.Pointer(&length)))
	if ret == 0 {
		return "", fmt.Errorf("GetCapabilitiesStringLength: %w", err)
	}
	if length == 0 {
		return "", nil
	}

	buf := make([]byte, length)
	ret, _, err = procCapabilitiesRequest.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(length))
	if ret == 0 {
		return "", fmt.Errorf("CapabilitiesRequestAndCapabilitiesReply: %w", err)
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

func (windowsAPI) ReadFeature(h Handle, code byte) (uint32, error) {
	var current, maximum uint32
	ret, _, err := procGetVCPFeature.Call(
		uintptr(h),
		uintptr(code),
		0,
		uintptr(unsafe.Pointer(&current)),
		uintptr(unsafe.Pointer(&maximum)),
	)
	if ret == 0 {
		return 0, fmt.Errorf("GetVCPFeatureAndVCPFeatureReply(0x%02x): %w", code, err)
	}
	return current, nil
}

func (windowsAPI) WriteFeature(h Handle, code byte, value uint32) error {
	ret, _, err := procSetVCPFeature.Call(uintptr(h), uintptr(code), uintptr(value))
	if ret == 0 {
		return fmt.Errorf("SetVCPFeature(0x%02x): %w", code, err)
	}
	return nil
}
