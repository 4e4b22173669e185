// Package notify publishes recognition outcomes to an MQTT broker so other
// systems (door controllers, dashboards) can react to them.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/config"
)

// ErrNotConnected is returned by PublishRecognition before Connect succeeds.
var ErrNotConnected = errors.New("mqtt not connected")

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Publisher is told about every successful recognition.
type Publisher interface {
	PublishRecognition(ctx context.Context, captureID string, results []api.RecognitionResult) error
}

// RecognitionEvent is the JSON payload published for one capture.
type RecognitionEvent struct {
	CaptureID   string                  `json:"capture_id"`
	Results     []api.RecognitionResult `json:"results"`
	PublishedAt time.Time               `json:"published_at"`
}

// MQTTPublisher publishes recognition events to one topic
type MQTTPublisher struct {
	cfg    config.MQTTConfig
	logger *slog.Logger

	// newClient is replaced in tests
	newClient func(*mqtt.ClientOptions) mqtt.Client

	mu        sync.RWMutex
	client    mqtt.Client
	connected bool
	published uint64
	errors    uint64
}

// NewMQTTPublisher creates a publisher. An empty client ID gets a random one.
func NewMQTTPublisher(cfg config.MQTTConfig, logger *slog.Logger) *MQTTPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "face-kiosk-" + uuid.NewString()[:8]
	}
	return &MQTTPublisher{cfg: cfg, logger: logger, newClient: mqtt.NewClient}
}

// brokerURL adds the tcp scheme when the broker is given as host:port
func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Connect establishes the broker connection. The client reconnects on its own afterwards.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(p.cfg.Broker))
	opts.SetClientID(p.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		p.setConnected(true)
		p.logger.Info("mqtt connection established", "broker", p.cfg.Broker, "client_id", p.cfg.ClientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		p.setConnected(false)
		p.logger.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", p.cfg.Broker)
	}

	client := p.newClient(opts)
	p.logger.Info("connecting to mqtt broker", "broker", p.cfg.Broker)

	if err := waitToken(ctx, client.Connect(), connectTimeout); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	p.mu.Lock()
	p.client = client
	p.connected = true
	p.mu.Unlock()
	return nil
}

// PublishRecognition publishes one recognition event with QoS 1.
func (p *MQTTPublisher) PublishRecognition(ctx context.Context, captureID string, results []api.RecognitionResult) error {
	p.mu.RLock()
	client, connected := p.client, p.connected
	p.mu.RUnlock()
	if !connected || client == nil {
		p.countError()
		return ErrNotConnected
	}

	if results == nil {
		results = []api.RecognitionResult{}
	}
	payload, err := json.Marshal(RecognitionEvent{CaptureID: captureID, Results: results, PublishedAt: time.Now().UTC()})
	if err != nil {
		p.countError()
		return fmt.Errorf("failed to marshal recognition event: %w", err)
	}

	if err := waitToken(ctx, client.Publish(p.cfg.Topic, 1, false, payload), publishTimeout); err != nil {
		p.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	p.mu.Lock()
	p.published++
	p.mu.Unlock()
	p.logger.Debug("recognition published", "topic", p.cfg.Topic, "capture_id", captureID, "size", len(payload))
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.mu.Lock()
	client := p.client
	p.connected = false
	p.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(250) // 250ms grace period
		p.logger.Info("mqtt disconnected")
	}
}

// Stats contains publisher statistics
type Stats struct {
	Connected bool
	Published uint64
	Errors    uint64
}

// Stats returns publisher statistics.
func (p *MQTTPublisher) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{Connected: p.connected, Published: p.published, Errors: p.errors}
}

func (p *MQTTPublisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

func (p *MQTTPublisher) countError() {
	p.mu.Lock()
	p.errors++
	p.mu.Unlock()
}

func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return errors.New("timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}
