package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/feederworks/petfeeder-core/internal/infrastructure/config"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/mqtt"
)

// defaultGetTimeout bounds how long GetValue waits for a retained value
// when the config doesn't say otherwise.
const defaultGetTimeout = 2 * time.Second

// mqttClient is the subset of the MQTT client the bridge needs.
// *mqtt.Client satisfies it.
type mqttClient interface {
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// MQTT implements Bridge over retained MQTT messages.
//
// Each tree path maps to one topic under the configured prefix. Writes
// publish retained JSON so the broker holds current state; reads are
// served from a local cache fed by the broker's retained replay, with a
// bounded wait for paths not yet seen.
type MQTT struct {
	client     mqttClient
	topics     mqtt.Topics
	qos        byte
	getTimeout time.Duration

	mu     sync.Mutex
	cache  map[string]any
	cached map[string]bool
	subs   map[string]map[int]Handler
	waits  map[string][]chan any
	nextID int
	closed bool
}

// NewMQTT creates a bridge backed by the given MQTT client.
func NewMQTT(client mqttClient, cfg config.BridgeConfig, qos byte) *MQTT {
	timeout := defaultGetTimeout
	if cfg.GetTimeout > 0 {
		timeout = time.Duration(cfg.GetTimeout) * time.Second
	}

	return &MQTT{
		client:     client,
		topics:     mqtt.Topics{Prefix: cfg.TopicPrefix},
		qos:        qos,
		getTimeout: timeout,
		cache:      make(map[string]any),
		cached:     make(map[string]bool),
		subs:       make(map[string]map[int]Handler),
		waits:      make(map[string][]chan any),
	}
}

// SetValue publishes a retained JSON value and updates the local cache.
func (b *MQTT) SetValue(_ context.Context, path string, value any) error {
	if path == "" {
		return ErrInvalidPath
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding bridge value: %w", err)
	}

	if err := b.client.PublishRetained(b.topics.Value(path), payload); err != nil {
		return fmt.Errorf("publishing bridge value: %w", err)
	}

	// Write through the cache so a GetValue right after SetValue doesn't
	// depend on the broker echoing the message back.
	b.storeAndDispatch(path, value)
	return nil
}

// GetValue returns the current value at path, or (nil, nil) when unset.
//
// The first read of a path subscribes to its topic and waits up to the
// configured timeout for the broker's retained replay. Later reads are
// served from the cache.
func (b *MQTT) GetValue(ctx context.Context, path string) (any, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	if b.cached[path] {
		value := b.cache[path]
		b.mu.Unlock()
		return value, nil
	}

	wait := make(chan any, 1)
	b.waits[path] = append(b.waits[path], wait)
	needSubscribe := len(b.subs[path]) == 0
	b.mu.Unlock()

	if needSubscribe {
		if err := b.ensureTopicSubscription(path); err != nil {
			return nil, err
		}
	}

	timer := time.NewTimer(b.getTimeout)
	defer timer.Stop()

	select {
	case value := <-wait:
		return value, nil
	case <-timer.C:
		// No retained value on the broker: the path is unset.
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe registers a handler for the path and fires it immediately
// when a current value is cached.
func (b *MQTT) Subscribe(path string, handler Handler) (func(), error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	if b.subs[path] == nil {
		b.subs[path] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[path][id] = handler
	firstForPath := len(b.subs[path]) == 1
	hasValue := b.cached[path]
	current := b.cache[path]
	b.mu.Unlock()

	if firstForPath {
		if err := b.ensureTopicSubscription(path); err != nil {
			b.mu.Lock()
			delete(b.subs[path], id)
			b.mu.Unlock()
			return nil, err
		}
	}

	if hasValue {
		handler(current)
	}

	cancel := func() {
		b.mu.Lock()
		handlers, ok := b.subs[path]
		if ok {
			delete(handlers, id)
		}
		lastForPath := ok && len(handlers) == 0
		if lastForPath {
			delete(b.subs, path)
		}
		b.mu.Unlock()

		if lastForPath {
			// Keep the cache; only the broker subscription is released.
			b.client.Unsubscribe(b.topics.Value(path)) //nolint:errcheck // best effort
		}
	}
	return cancel, nil
}

// Close marks the bridge closed. The underlying MQTT client is owned by
// the caller and is not closed here.
func (b *MQTT) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// ensureTopicSubscription subscribes the underlying client to the path's
// topic. Retained messages (if any) arrive through the handler.
func (b *MQTT) ensureTopicSubscription(path string) error {
	topic := b.topics.Value(path)
	return b.client.Subscribe(topic, b.qos, func(_ string, payload []byte) error {
		var value any
		if err := json.Unmarshal(payload, &value); err != nil {
			return fmt.Errorf("decoding bridge value at %s: %w", path, err)
		}
		b.storeAndDispatch(path, value)
		return nil
	})
}

// storeAndDispatch caches a value, releases pending GetValue waiters,
// and notifies subscribers.
func (b *MQTT) storeAndDispatch(path string, value any) {
	b.mu.Lock()
	b.cache[path] = value
	b.cached[path] = true

	waiters := b.waits[path]
	delete(b.waits, path)

	var handlers []Handler
	for _, h := range b.subs[path] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, w := range waiters {
		w <- value
	}
	for _, h := range handlers {
		h(value)
	}
}
