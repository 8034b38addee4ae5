// Package wmi implements the firmware brightness channel.
//
// It talks to the Windows Management Instrumentation service in the
// root\wmi namespace, where monitor firmware exposes the
// WmiMonitorBrightness family of classes. Laptop panels and other
// internally connected displays are typically only reachable this way.
//
// The provider addresses monitors positionally: the instance order
// returned by a WMI query is the channel index recorded on each
// monitor.Record. Identity fields are parsed from the WMI instance
// name, which carries the PNP device path, and the 128-byte display
// descriptor block is fetched per instance where the firmware offers
// it.
//
// All operating system access sits behind the systemAPI interface so
// the enumeration and identity logic is testable without a Windows
// host. The real implementation lives in api_windows.go; every other
// platform gets a stub that reports the channel as unsupported.
package wmi
