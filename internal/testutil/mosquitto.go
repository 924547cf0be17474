// Package testutil starts a throwaway Mosquitto broker for the MQTT renderer
// integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultTopicPrefix isolates test traffic from a real roadsim deployment.
	DefaultTopicPrefix = "roadsim-test"

	// ReadyTimeout bounds the status round trip proving the broker routes
	// messages below the prefix.
	ReadyTimeout = 10 * time.Second
	// MessageTimeout is how long Next waits for a single message.
	MessageTimeout = 5 * time.Second

	retryInterval = 100 * time.Millisecond
	image         = "eclipse-mosquitto:2.0"
)

// Retained messages are needed for the renderer status topic.
const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
retain_available true
log_dest stdout
log_type error
log_type warning
`

// Broker is a running Mosquitto container with a topic namespace reserved
// for one test.
type Broker struct {
	URL         string
	TopicPrefix string

	cont tc.Container
	dir  string
}

// Topic returns suffix below the broker topic prefix.
func (b *Broker) Topic(suffix string) string { return b.TopicPrefix + "/" + suffix }

// StatusTopic is the topic the renderer uses for its online/offline will.
func (b *Broker) StatusTopic() string { return b.Topic("status") }

// StartBroker runs Mosquitto and waits until a message published on the
// status topic below prefix comes back to a subscriber. An empty prefix
// selects DefaultTopicPrefix with a random suffix.
func StartBroker(ctx context.Context, prefix string) (*Broker, error) {
	if prefix == "" {
		prefix = DefaultTopicPrefix + "/" + uuid.NewString()[:8]
	}
	dir, err := os.MkdirTemp("", "roadsim-mosquitto")
	if err != nil {
		return nil, err
	}
	conf := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(conf, []byte(mosquittoConf), 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				HostFilePath:      conf,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			}},
		},
		Started: true,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("start %s: %w", image, err)
	}
	b := &Broker{TopicPrefix: prefix, cont: cont, dir: dir}

	host, err := cont.Host(ctx)
	if err != nil {
		b.Close()
		return nil, err
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		b.Close()
		return nil, err
	}
	b.URL = fmt.Sprintf("tcp://%s:%s", host, port.Port())

	readyCtx, cancel := context.WithTimeout(ctx, ReadyTimeout)
	defer cancel()
	if err := b.waitReady(readyCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("broker not ready: %w", err)
	}
	return b, nil
}

// Close stops the container and removes its configuration.
func (b *Broker) Close() {
	if b.cont != nil {
		_ = b.cont.Terminate(context.Background())
	}
	_ = os.RemoveAll(b.dir)
}

// Subscription collects the payloads received on one topic.
type Subscription struct {
	cli  paho.Client
	msgs chan []byte
}

// Subscribe connects a fresh client and subscribes to suffix below the
// prefix. Messages beyond the buffer are discarded.
func (b *Broker) Subscribe(suffix string, buffer int) (*Subscription, error) {
	cli, err := b.connect("sub")
	if err != nil {
		return nil, err
	}
	s := &Subscription{cli: cli, msgs: make(chan []byte, buffer)}
	tok := cli.Subscribe(b.Topic(suffix), 1, func(_ paho.Client, m paho.Message) {
		select {
		case s.msgs <- m.Payload():
		default:
		}
	})
	if !tok.WaitTimeout(MessageTimeout) || tok.Error() != nil {
		cli.Disconnect(100)
		return nil, fmt.Errorf("subscribe %s: %v", b.Topic(suffix), tok.Error())
	}
	return s, nil
}

// Next returns the next payload or fails after MessageTimeout.
func (s *Subscription) Next() ([]byte, error) {
	select {
	case p := <-s.msgs:
		return p, nil
	case <-time.After(MessageTimeout):
		return nil, fmt.Errorf("no message after %s", MessageTimeout)
	}
}

// Close disconnects the subscriber.
func (s *Subscription) Close() { s.cli.Disconnect(100) }

func (b *Broker) connect(role string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(b.URL).
		SetClientID(fmt.Sprintf("roadsim-test-%s-%s", role, uuid.NewString()[:8])).
		SetConnectTimeout(MessageTimeout)
	cli := paho.NewClient(opts)
	tok := cli.Connect()
	if !tok.WaitTimeout(MessageTimeout) {
		return nil, fmt.Errorf("connect %s: timeout", b.URL)
	}
	if err := tok.Error(); err != nil {
		return nil, err
	}
	return cli, nil
}

// waitReady retries a publish on the status topic until a subscriber on the
// same topic sees it. The retained marker is cleared afterwards so tests
// only observe the renderer's own status.
func (b *Broker) waitReady(ctx context.Context) error {
	for {
		err := b.statusRoundTrip()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(retryInterval):
		}
	}
}

func (b *Broker) statusRoundTrip() error {
	sub, err := b.Subscribe("status", 1)
	if err != nil {
		return err
	}
	defer sub.Close()
	pub, err := b.connect("ready")
	if err != nil {
		return err
	}
	defer pub.Disconnect(100)

	if tok := pub.Publish(b.StatusTopic(), 1, true, "ready"); !tok.WaitTimeout(MessageTimeout) || tok.Error() != nil {
		return fmt.Errorf("publish status: %v", tok.Error())
	}
	p, err := sub.Next()
	if err != nil {
		return err
	}
	if string(p) != "ready" {
		return fmt.Errorf("unexpected status %q", p)
	}
	if tok := pub.Publish(b.StatusTopic(), 1, true, []byte{}); !tok.WaitTimeout(MessageTimeout) || tok.Error() != nil {
		return fmt.Errorf("clear status: %v", tok.Error())
	}
	return nil
}
