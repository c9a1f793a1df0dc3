package telemetry

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// bufferCapacity bounds how many samples are held while the broker is
// unreachable. At one sample per PID cycle this is a couple of minutes.
const bufferCapacity = 512

// RealPublisher publishes to an actual MQTT broker, buffering samples
// while disconnected and replaying them on reconnect.
type RealPublisher struct {
	client paho.Client
	log    *zap.SugaredLogger

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker, clientID string, log *zap.SugaredLogger) (*RealPublisher, error) {
	p := &RealPublisher{
		log: log,
		buf: newRingBuffer(bufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// PublishSample sends a control sample, or buffers it while the broker
// is unreachable.
func (p *RealPublisher) PublishSample(s Sample) error {
	payload, err := FormatSample(s)
	if err != nil {
		return fmt.Errorf("format sample: %w", err)
	}

	if !p.client.IsConnected() {
		p.bufferMsg(bufferedMsg{topic: TopicSamples, payload: payload})
		return nil
	}

	// QoS 0 (at-most-once), not retained: samples are a stream, the next
	// one supersedes a lost one.
	token := p.client.Publish(TopicSamples, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish sample: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event.
func (p *RealPublisher) PublishSystem(e SystemEvent) error {
	payload, err := FormatSystem(e)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - delivery matters.
	token := p.client.Publish(TopicSystem, 1, e.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the MQTT connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

func (p *RealPublisher) bufferMsg(msg bufferedMsg) {
	p.mu.Lock()
	dropped := p.buf.push(msg)
	n := p.buf.len()
	p.mu.Unlock()

	if dropped {
		p.log.Warnw("telemetry buffer full, dropping oldest sample", "capacity", bufferCapacity)
	} else if n == 1 {
		p.log.Infow("broker unreachable, buffering samples")
	}
}

// onConnect replays anything buffered while the connection was down.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	msgs := p.buf.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	p.log.Infow("replaying buffered telemetry", "messages", len(msgs))
	for _, m := range msgs {
		token := client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			p.log.Warnw("replay timed out", "topic", m.topic)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warnw("replay failed", "topic", m.topic, "error", err)
			return
		}
	}
}
