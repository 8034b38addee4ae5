package mqtt

import "fmt"

// Topic prefixes for the luxd topic hierarchy.
//
// All topics live under a single "luxd" root so brokers shared with other
// services can apply ACLs per prefix.
const (
	// TopicPrefix is the base for all daemon topics.
	TopicPrefix = "luxd"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "luxd/system"

	// TopicPrefixMonitor is the base for per-monitor topics.
	TopicPrefixMonitor = "luxd/monitor"
)

// Topics provides builders for luxd MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.MonitorState("H1AK30037")
//	// Returns: "luxd/monitor/H1AK30037/state"
type Topics struct{}

// MonitorState returns the retained state topic for a monitor.
//
// Example: luxd/monitor/H1AK30037/state
func (Topics) MonitorState(serial string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixMonitor, serial)
}

// CommandSet returns the topic for remote brightness commands.
//
// Example: luxd/command/set
func (Topics) CommandSet() string {
	return fmt.Sprintf("%s/command/set", TopicPrefix)
}

// SystemStatus returns the system status topic. The daemon publishes
// online/offline payloads here and registers its LWT against it.
//
// Example: luxd/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllMonitorStates returns a pattern matching every monitor state topic.
//
// Pattern: luxd/monitor/+/state
func (Topics) AllMonitorStates() string {
	return fmt.Sprintf("%s/+/state", TopicPrefixMonitor)
}

// AllTopics returns a pattern matching all daemon topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: luxd/#
func (Topics) AllTopics() string {
	return "luxd/#"
}
