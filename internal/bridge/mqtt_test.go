package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/feederworks/petfeeder-core/internal/infrastructure/config"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/mqtt"
)

// fakeMQTT mimics a broker with retained messages. PublishRetained stores
// the payload and delivers it to a registered handler; Subscribe replays
// the retained payload synchronously, like a broker does on subscription.
type fakeMQTT struct {
	mu       sync.Mutex
	retained map[string][]byte
	handlers map[string]mqtt.MessageHandler

	published   []string
	unsubcribed []string
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{
		retained: make(map[string][]byte),
		handlers: make(map[string]mqtt.MessageHandler),
	}
}

func (f *fakeMQTT) PublishRetained(topic string, payload []byte) error {
	f.mu.Lock()
	f.retained[topic] = payload
	f.published = append(f.published, topic)
	handler := f.handlers[topic]
	f.mu.Unlock()

	if handler != nil {
		return handler(topic, payload)
	}
	return nil
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	f.handlers[topic] = handler
	payload, ok := f.retained[topic]
	f.mu.Unlock()

	if ok {
		return handler(topic, payload)
	}
	return nil
}

func (f *fakeMQTT) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	f.unsubcribed = append(f.unsubcribed, topic)
	return nil
}

// inject simulates a message arriving from the broker, e.g. published by
// feeder firmware.
func (f *fakeMQTT) inject(t *testing.T, topic string, payload []byte) {
	t.Helper()
	f.mu.Lock()
	f.retained[topic] = payload
	handler := f.handlers[topic]
	f.mu.Unlock()

	if handler == nil {
		t.Fatalf("no handler registered for topic %s", topic)
	}
	if err := handler(topic, payload); err != nil {
		t.Fatalf("handler error for topic %s: %v", topic, err)
	}
}

func newTestBridge(client mqttClient) *MQTT {
	cfg := config.BridgeConfig{
		Provider:    "mqtt",
		TopicPrefix: "petfeeder",
		GetTimeout:  1,
	}
	b := NewMQTT(client, cfg, 1)
	// Tests that hit the unset-path timeout shouldn't wait a full second.
	b.getTimeout = 50 * time.Millisecond
	return b
}

func TestMQTT_SetValue_PublishesRetainedJSON(t *testing.T) {
	fake := newFakeMQTT()
	b := newTestBridge(fake)

	path := DevicePath("uid-1", "alice_esp01", FieldLED)
	if err := b.SetValue(context.Background(), path, true); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}

	wantTopic := "petfeeder/users/uid-1/devices/alice_esp01/led"
	payload, ok := fake.retained[wantTopic]
	if !ok {
		t.Fatalf("no retained message on %s, published: %v", wantTopic, fake.published)
	}
	if string(payload) != "true" {
		t.Errorf("retained payload = %s, want true", payload)
	}
}

func TestMQTT_GetValue_AfterSetValue(t *testing.T) {
	fake := newFakeMQTT()
	b := newTestBridge(fake)
	ctx := context.Background()

	path := DevicePath("uid-1", "alice_esp01", FieldFoodLevel)
	if err := b.SetValue(ctx, path, 75.5); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}

	// Served from the write-through cache, no broker roundtrip needed.
	value, err := b.GetValue(ctx, path)
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if value != 75.5 {
		t.Errorf("GetValue() = %v, want 75.5", value)
	}
}

func TestMQTT_GetValue_RetainedReplay(t *testing.T) {
	fake := newFakeMQTT()
	// Broker already holds state from a previous session.
	fake.retained["petfeeder/users/uid-1/devices/alice_esp01/status"] = []byte(`"online"`)

	b := newTestBridge(fake)

	value, err := b.GetValue(context.Background(), DevicePath("uid-1", "alice_esp01", FieldStatus))
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if value != "online" {
		t.Errorf("GetValue() = %v, want online", value)
	}
}

func TestMQTT_GetValue_UnsetTimesOutToNil(t *testing.T) {
	fake := newFakeMQTT()
	b := newTestBridge(fake)

	start := time.Now()
	value, err := b.GetValue(context.Background(), DevicePath("uid-1", "alice_esp01", FieldLastFed))
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if value != nil {
		t.Errorf("GetValue() unset path = %v, want nil", value)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("GetValue() took %v, want bounded wait", elapsed)
	}
}

func TestMQTT_GetValue_EmptyPath(t *testing.T) {
	b := newTestBridge(newFakeMQTT())

	if _, err := b.GetValue(context.Background(), ""); err != ErrInvalidPath {
		t.Errorf("GetValue() error = %v, want ErrInvalidPath", err)
	}
}

func TestMQTT_Subscribe_ReceivesCurrentAndUpdates(t *testing.T) {
	fake := newFakeMQTT()
	fake.retained["petfeeder/users/uid-1/devices/alice_esp01/status"] = []byte(`"offline"`)

	b := newTestBridge(fake)
	path := DevicePath("uid-1", "alice_esp01", FieldStatus)

	var got []any
	cancel, err := b.Subscribe(path, func(value any) {
		got = append(got, value)
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()

	// Retained replay delivers the current value on subscribe.
	if len(got) != 1 || got[0] != "offline" {
		t.Fatalf("after Subscribe got = %v, want [offline]", got)
	}

	// Device comes online and publishes directly to the broker.
	fake.inject(t, "petfeeder/users/uid-1/devices/alice_esp01/status", []byte(`"online"`))

	if len(got) != 2 || got[1] != "online" {
		t.Errorf("after update got = %v, want [offline online]", got)
	}
}

func TestMQTT_Subscribe_CancelReleasesClientSubscription(t *testing.T) {
	fake := newFakeMQTT()
	b := newTestBridge(fake)
	path := DevicePath("uid-1", "alice_esp01", FieldLED)
	topic := "petfeeder/users/uid-1/devices/alice_esp01/led"

	cancelA, err := b.Subscribe(path, func(any) {})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	cancelB, err := b.Subscribe(path, func(any) {})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	cancelA()
	if len(fake.unsubcribed) != 0 {
		t.Fatalf("client unsubscribed while a handler remains: %v", fake.unsubcribed)
	}

	cancelB()
	if len(fake.unsubcribed) != 1 || fake.unsubcribed[0] != topic {
		t.Errorf("unsubscribed = %v, want [%s]", fake.unsubcribed, topic)
	}
}

func TestMQTT_SetValue_NotifiesSubscribers(t *testing.T) {
	fake := newFakeMQTT()
	b := newTestBridge(fake)
	ctx := context.Background()
	path := DevicePath("uid-1", "alice_esp01", FieldLED)

	var got []any
	cancel, err := b.Subscribe(path, func(value any) {
		got = append(got, value)
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()

	if err := b.SetValue(ctx, path, true); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}

	// The fake echoes the publish back through the subscription, and the
	// write-through cache dispatches as well; subscribers must see the
	// value at least once and never a stale one.
	if len(got) == 0 {
		t.Fatal("subscriber not notified after SetValue")
	}
	for i, v := range got {
		if v != true {
			t.Errorf("notification %d = %v, want true", i, v)
		}
	}
}

func TestMQTT_Closed(t *testing.T) {
	b := newTestBridge(newFakeMQTT())
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := b.GetValue(context.Background(), "users/x"); err != ErrClosed {
		t.Errorf("GetValue() after Close error = %v, want ErrClosed", err)
	}
	if _, err := b.Subscribe("users/x", func(any) {}); err != ErrClosed {
		t.Errorf("Subscribe() after Close error = %v, want ErrClosed", err)
	}
}

func TestMQTT_SetValue_NilValue(t *testing.T) {
	fake := newFakeMQTT()
	b := newTestBridge(fake)
	ctx := context.Background()

	path := DevicePath("uid-1", "alice_esp01", FieldLastFed)
	if err := b.SetValue(ctx, path, nil); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}

	topic := "petfeeder/users/uid-1/devices/alice_esp01/lastFed"
	if string(fake.retained[topic]) != "null" {
		t.Errorf("retained payload = %s, want null", fake.retained[topic])
	}

	value, err := b.GetValue(ctx, path)
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if value != nil {
		t.Errorf("GetValue() = %v, want nil", value)
	}
}
