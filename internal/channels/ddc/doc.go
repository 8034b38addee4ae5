// Package ddc implements the DDC/CI brightness channel.
//
// It enumerates physical display handles through the GDI monitor APIs
// and speaks the VCP (Virtual Control Panel) protocol over DDC/CI to
// read and write feature 0x10, the luminance control. Externally
// connected displays that ignore the firmware channel usually respond
// here.
//
// Display handles carry no identity of their own, so enumeration
// correlates them with the firmware identification class: the GDI
// device interface path and the WMI instance name share a device path
// segment, which yields firmware identity records in physical handle
// order. Handles themselves are opened per operation and destroyed
// before the call returns; only their positional index is kept.
//
// The operating system surface sits behind the displayAPI interface so
// the correlation and protocol logic is testable anywhere. The real
// implementation is in api_windows.go with a stub elsewhere.
package ddc
