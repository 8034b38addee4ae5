//go:build windows

package wmi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// COM HRESULTs tolerated from CoInitializeEx: S_FALSE means the thread
// was already initialised, RPC_E_CHANGED_MODE means another component
// initialised it with a different apartment model. Both leave a usable
// COM runtime behind.
const (
	hrSFalse      = 0x00000001
	hrChangedMode = 0x80010106
)

// connection is the process-wide WMI session. COM initialisation and
// the SWbemServices object are expensive, so the first caller pays and
// everyone after reuses. Guarded by connMu.
var (
	connMu sync.Mutex
	conn   *wmiConnection
)

type wmiConnection struct {
	locator *ole.IUnknown
	wbem    *ole.IDispatch
	service *ole.IDispatch
}

// connect returns the shared WMI session, establishing it on first use.
func connect() (*wmiConnection, error) {
	connMu.Lock()
	defer connMu.Unlock()

	if conn != nil {
		return conn, nil
	}

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || (oleErr.Code() != hrSFalse && oleErr.Code() != hrChangedMode) {
			return nil, fmt.Errorf("initialising COM: %w", err)
		}
	}

	locator, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		return nil, fmt.Errorf("creating WMI locator: %w", err)
	}

	wbem, err := locator.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		locator.Release()
		return nil, fmt.Errorf("querying WMI locator interface: %w", err)
	}

	serviceRaw, err := oleutil.CallMethod(wbem, "ConnectServer", ".", `root\wmi`)
	if err != nil {
		wbem.Release()
		locator.Release()
		return nil, fmt.Errorf(`connecting to root\wmi: %w`, err)
	}

	conn = &wmiConnection{
		locator: locator,
		wbem:    wbem,
		service: serviceRaw.ToIDispatch(),
	}
	return conn, nil
}

// query runs a WQL query and returns the matching objects. The caller
// releases every returned object.
func (c *wmiConnection) query(wql string) ([]*ole.IDispatch, error) {
	resultRaw, err := oleutil.CallMethod(c.service, "ExecQuery", wql)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	result := resultRaw.ToIDispatch()
	defer result.Release()

	countVar, err := oleutil.GetProperty(result, "Count")
	if err != nil {
		return nil, fmt.Errorf("reading result count: %w", err)
	}
	count := int(countVar.Val)

	items := make([]*ole.IDispatch, 0, count)
	for i := 0; i < count; i++ {
		itemRaw, err := oleutil.CallMethod(result, "ItemIndex", i)
		if err != nil {
			releaseAll(items)
			return nil, fmt.Errorf("reading result item %d: %w", i, err)
		}
		items = append(items, itemRaw.ToIDispatch())
	}
	return items, nil
}

// execMethod invokes a WMI method on obj with named input parameters
// and returns the out-parameter object, or nil for void methods.
func (c *wmiConnection) execMethod(obj *ole.IDispatch, method string, args map[string]any) (*ole.IDispatch, error) {
	methodVar, err := oleutil.GetProperty(obj, "Methods_", method)
	if err != nil {
		return nil, fmt.Errorf("looking up method %s: %w", method, err)
	}
	methodObj := methodVar.ToIDispatch()
	defer methodObj.Release()

	inDefVar, err := oleutil.GetProperty(methodObj, "InParameters")
	if err != nil {
		return nil, fmt.Errorf("reading %s parameter definition: %w", method, err)
	}
	inDef := inDefVar.ToIDispatch()
	defer inDef.Release()

	inVar, err := oleutil.CallMethod(inDef, "SpawnInstance_")
	if err != nil {
		return nil, fmt.Errorf("spawning %s parameters: %w", method, err)
	}
	in := inVar.ToIDispatch()
	defer in.Release()

	for name, value := range args {
		if _, err := oleutil.PutProperty(in, name, value); err != nil {
			return nil, fmt.Errorf("setting %s parameter %s: %w", method, name, err)
		}
	}

	outVar, err := oleutil.CallMethod(obj, "ExecMethod_", method, in)
	if err != nil {
		return nil, fmt.Errorf("invoking %s: %w", method, err)
	}
	return outVar.ToIDispatch(), nil
}

func releaseAll(items []*ole.IDispatch) {
	for _, item := range items {
		item.Release()
	}
}

func stringProperty(obj *ole.IDispatch, name string) (string, error) {
	v, err := oleutil.GetProperty(obj, name)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return v.ToString(), nil
}

func arrayProperty(obj *ole.IDispatch, name string) ([]any, error) {
	v, err := oleutil.GetProperty(obj, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	arr := v.ToArray()
	if arr == nil {
		return nil, nil
	}
	return arr.ToValueArray(), nil
}

// windowsAPI implements systemAPI against the live WMI service.
type windowsAPI struct{}

func defaultAPI() systemAPI { return windowsAPI{} }

func (windowsAPI) BrightnessInstances(ctx context.Context) ([]BrightnessInstance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := connect()
	if err != nil {
		return nil, err
	}

	items, err := c.query("SELECT InstanceName, CurrentBrightness FROM WmiMonitorBrightness")
	if err != nil {
		return nil, err
	}
	defer releaseAll(items)

	instances := make([]BrightnessInstance, 0, len(items))
	for _, item := range items {
		name, err := stringProperty(item, "InstanceName")
		if err != nil {
			return nil, err
		}
		current, err := oleutil.GetProperty(item, "CurrentBrightness")
		if err != nil {
			return nil, fmt.Errorf("reading CurrentBrightness: %w", err)
		}
		instances = append(instances, BrightnessInstance{
			InstanceName: name,
			Current:      int(current.Val),
		})
	}
	return instances, nil
}

func (windowsAPI) Descriptors(ctx context.Context) (map[string][]byte, error) {
	return QueryDescriptors(ctx)
}

func (windowsAPI) ApplyBrightness(ctx context.Context, index, value int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := connect()
	if err != nil {
		return err
	}

	items, err := c.query("SELECT * FROM WmiMonitorBrightnessMethods")
	if err != nil {
		return err
	}
	defer releaseAll(items)

	if index < 0 || index >= len(items) {
		return fmt.Errorf("no brightness method instance at index %d", index)
	}

	out, err := c.execMethod(items[index], "WmiSetBrightness", map[string]any{
		"Timeout":    0,
		"Brightness": value,
	})
	if err != nil {
		return err
	}
	if out != nil {
		out.Release()
	}
	return nil
}

// QueryIdentities lists the monitor identification instances: instance
// name, decoded serial and decoded friendly name. The DDC/CI channel
// uses these to attach firmware identity to its display handles.
func QueryIdentities(ctx context.Context) ([]Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := connect()
	if err != nil {
		return nil, err
	}

	items, err := c.query("SELECT InstanceName, SerialNumberID, UserFriendlyName FROM WmiMonitorID")
	if err != nil {
		return nil, err
	}
	defer releaseAll(items)

	identities := make([]Identity, 0, len(items))
	for _, item := range items {
		name, err := stringProperty(item, "InstanceName")
		if err != nil {
			return nil, err
		}
		serialRaw, err := arrayProperty(item, "SerialNumberID")
		if err != nil {
			return nil, err
		}
		friendlyRaw, err := arrayProperty(item, "UserFriendlyName")
		if err != nil {
			return nil, err
		}
		identities = append(identities, Identity{
			InstanceName: name,
			Serial:       stringFromCodepoints(serialRaw),
			FriendlyName: stringFromCodepoints(friendlyRaw),
		})
	}
	return identities, nil
}

// QueryDescriptors fetches the first raw identity block for every
// monitor that exposes descriptor access, keyed by instance name.
// Monitors whose firmware rejects the block request are skipped.
func QueryDescriptors(ctx context.Context) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := connect()
	if err != nil {
		return nil, err
	}

	items, err := c.query("SELECT * FROM WmiMonitorDescriptorMethods")
	if err != nil {
		return nil, err
	}
	defer releaseAll(items)

	descriptors := make(map[string][]byte, len(items))
	for _, item := range items {
		name, err := stringProperty(item, "InstanceName")
		if err != nil {
			return nil, err
		}

		out, err := c.execMethod(item, "WmiGetMonitorRawEEdidV1Block", map[string]any{
			"BlockId": 0,
		})
		if err != nil || out == nil {
			continue
		}
		content, err := arrayProperty(out, "BlockContent")
		out.Release()
		if err != nil {
			continue
		}
		if block := bytesFromValues(content); len(block) > 0 {
			descriptors[name] = block
		}
	}
	return descriptors, nil
}
