// Package mqtt provides MQTT client connectivity for luxd.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is an optional integration surface: when enabled, luxd publishes
// retained per-monitor brightness state and accepts remote set commands,
// which lets home-automation systems treat monitors like any other
// dimmable light.
//
//	luxd ↔ MQTT Broker ↔ Automation / dashboards
//
// # Security Considerations
//
//   - TLS is recommended for anything beyond localhost (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to remote brightness commands
//	err = client.Subscribe(mqtt.Topics{}.CommandSet(), 1,
//	    func(topic string, payload []byte) error {
//	        return applyCommand(payload)
//	    })
//
//	// Publish retained monitor state
//	topic := mqtt.Topics{}.MonitorState("H1AK30037")
//	client.PublishRetained(topic, []byte(`{"value":70}`))
package mqtt
