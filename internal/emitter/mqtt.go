// Package emitter publishes pipeline run events to an MQTT broker.
//
// Events are queued and published from a single goroutine, so Emit never
// blocks the bus loop. When the queue is full the event is dropped and
// counted.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/config"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/pipeline"
)

const (
	queueSize      = 64
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	quiesceMillis  = 250
)

// Publisher is the part of mqtt.Client the emitter needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTEmitter publishes run events to <topic>/<kind>.
type MQTTEmitter struct {
	client Publisher
	topic  string
	qos    byte
	encode Encoder

	queue chan pipeline.Event
	done  chan struct{}

	// mu guards closed against a concurrent Close.
	mu     sync.RWMutex
	closed bool

	statsMu sync.Mutex
	stats   Stats
}

// Stats contains emitter statistics.
type Stats struct {
	Published uint64
	Dropped   uint64
	Errors    uint64
}

// Connect dials the broker in cfg and returns an emitter publishing to it.
func Connect(ctx context.Context, cfg config.MQTTConfig) (*MQTTEmitter, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		slog.Warn("emitter: mqtt connection lost, will auto-reconnect",
			"broker", cfg.Broker,
			"error", err,
		)
	}

	client := mqtt.NewClient(opts)
	slog.Info("emitter: connecting to mqtt broker", "broker", cfg.Broker, "client_id", cfg.ClientID)

	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return nil, fmt.Errorf("mqtt connection aborted: %w", ctx.Err())
	case <-time.After(connectTimeout):
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	e, err := New(client, cfg)
	if err != nil {
		client.Disconnect(quiesceMillis)
		return nil, err
	}
	return e, nil
}

// New returns an emitter publishing through client. It starts the publish
// goroutine; Close stops it.
func New(client Publisher, cfg config.MQTTConfig) (*MQTTEmitter, error) {
	encode, err := EncoderFor(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	e := &MQTTEmitter{
		client: client,
		topic:  cfg.Topic,
		qos:    cfg.QoS,
		encode: encode,
		queue:  make(chan pipeline.Event, queueSize),
		done:   make(chan struct{}),
	}
	go e.loop()
	return e, nil
}

// Emit queues ev for publishing. It never blocks.
func (e *MQTTEmitter) Emit(ev pipeline.Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.countDrop(ev)
		return
	}
	select {
	case e.queue <- ev:
	default:
		e.countDrop(ev)
	}
}

func (e *MQTTEmitter) countDrop(ev pipeline.Event) {
	e.statsMu.Lock()
	e.stats.Dropped++
	e.statsMu.Unlock()
	slog.Debug("emitter: event dropped", "kind", ev.Kind, "run_id", ev.RunID)
}

// Close publishes what is still queued, then disconnects. It is safe to
// call more than once.
func (e *MQTTEmitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	<-e.done
	e.client.Disconnect(quiesceMillis)

	s := e.Stats()
	slog.Info("emitter: closed",
		"published", s.Published,
		"dropped", s.Dropped,
		"errors", s.Errors,
	)
}

// Stats returns emitter statistics.
func (e *MQTTEmitter) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

func (e *MQTTEmitter) loop() {
	defer close(e.done)
	for ev := range e.queue {
		err := e.publish(ev)

		e.statsMu.Lock()
		if err != nil {
			e.stats.Errors++
		} else {
			e.stats.Published++
		}
		e.statsMu.Unlock()

		if err != nil {
			slog.Warn("emitter: publish failed", "kind", ev.Kind, "error", err)
		}
	}
}

func (e *MQTTEmitter) publish(ev pipeline.Event) error {
	payload, err := e.encode(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	topic := fmt.Sprintf("%s/%s", e.topic, ev.Kind)
	token := e.client.Publish(topic, e.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	slog.Debug("emitter: event published", "topic", topic, "qos", e.qos, "size", len(payload))
	return nil
}

var _ pipeline.EventSink = (*MQTTEmitter)(nil)
