//go:build integration

package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/luxd/internal/infrastructure/config"
)

// Integration tests for broker-dependent behaviour.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...
//
// Note: Some tests may be flaky in CI due to timing dependencies.
// Consider running with: go test -tags=integration -count=1 -v ...

func integrationConfig() config.MQTTConfig {
	cfg := testConfig()
	cfg.Broker.ClientID = "luxd-integration-test"
	return cfg
}

func TestIntegration_ConnectAndClose(t *testing.T) {
	client, err := Connect(integrationConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

func TestIntegration_SubscriptionTracking(t *testing.T) {
	cfg := integrationConfig()
	cfg.Broker.ClientID = "luxd-int-sub-track"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck

	topics := []string{
		Topics{}.CommandSet(),
		Topics{}.AllMonitorStates(),
	}

	for _, topic := range topics {
		err := client.Subscribe(topic, 1, func(string, []byte) error { return nil })
		if err != nil {
			t.Fatalf("Subscribe(%q) error = %v", topic, err)
		}
	}

	if got := client.SubscriptionCount(); got != len(topics) {
		t.Errorf("SubscriptionCount() = %d, want %d", got, len(topics))
	}
	for _, topic := range topics {
		if !client.HasSubscription(topic) {
			t.Errorf("HasSubscription(%q) = false, want true", topic)
		}
	}

	if err := client.Unsubscribe(topics[0]); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if client.HasSubscription(topics[0]) {
		t.Error("HasSubscription() = true after Unsubscribe(), want false")
	}
}

func TestIntegration_MessageRoundtrip(t *testing.T) {
	cfg := integrationConfig()
	cfg.Broker.ClientID = "luxd-int-roundtrip"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck

	var (
		mu       sync.Mutex
		received []byte
	)
	done := make(chan struct{})

	topic := Topics{}.MonitorState("INT-TEST")
	err = client.Subscribe(topic, 1, func(_ string, payload []byte) error {
		mu.Lock()
		received = payload
		mu.Unlock()
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := []byte(`{"value":70}`)
	if err := client.Publish(topic, want, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message delivery")
	}

	mu.Lock()
	got := string(received)
	mu.Unlock()
	if got != string(want) {
		t.Errorf("received payload = %q, want %q", got, want)
	}
}

func TestIntegration_OnConnectCallback(t *testing.T) {
	cfg := integrationConfig()
	cfg.Broker.ClientID = "luxd-int-callbacks"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck

	client.SetOnConnect(func() {})
	client.SetOnDisconnect(func(error) {})

	client.callbackMu.RLock()
	defer client.callbackMu.RUnlock()
	if client.onConnect == nil {
		t.Error("onConnect callback not registered")
	}
	if client.onDisconnect == nil {
		t.Error("onDisconnect callback not registered")
	}
}
