package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/charmbracelet/log"
)

var logger = log.With("component", "broker")

// PahoBroker is the paho.mqtt.golang-backed Broker implementation. It is
// grounded on examples/mqtt/main.go's client setup, generalised to carry
// auto-reconnect and a reconnect hook the bridge uses to replay its
// subscription set.
type PahoBroker struct {
	client paho.Client

	mu           sync.Mutex
	onReconnect  []func()
	onDisconnect []func(error)
}

// Options configures a PahoBroker.
type Options struct {
	ServerURL string
	Username  string
	Password  string
	ClientID  string
}

// NewPahoBroker constructs a disconnected broker from opts. Call Connect to
// dial.
func NewPahoBroker(opts Options) *PahoBroker {
	b := &PahoBroker{}

	mqttOpts := paho.NewClientOptions()
	mqttOpts.AddBroker(opts.ServerURL)
	mqttOpts.SetUsername(opts.Username)
	mqttOpts.SetPassword(opts.Password)
	mqttOpts.SetClientID(opts.ClientID)
	mqttOpts.SetAutoReconnect(true)
	mqttOpts.SetConnectRetry(true)
	mqttOpts.SetConnectTimeout(10 * time.Second)
	mqttOpts.SetOnConnectHandler(func(paho.Client) {
		logger.Info("connected", "server", opts.ServerURL, "clientId", opts.ClientID)
		b.fireReconnect()
	})
	mqttOpts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("connection lost", "err", err)
		b.fireDisconnect(err)
	})
	mqttOpts.SetReconnectingHandler(func(paho.Client, *paho.ClientOptions) {
		logger.Info("reconnecting")
	})

	b.client = paho.NewClient(mqttOpts)
	return b
}

// DefaultClientID mirrors the browser-facing bridge's convention of a
// timestamped client id, so repeated restarts don't collide on the broker.
func DefaultClientID(now time.Time) string {
	return fmt.Sprintf("meshtastic-web-%d", now.Unix())
}

func (b *PahoBroker) Connect(ctx context.Context) error {
	token := b.client.Connect()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *PahoBroker) Publish(topic string, qos byte, retain bool, payload []byte) error {
	token := b.client.Publish(topic, qos, retain, payload)
	token.Wait()
	return token.Error()
}

func (b *PahoBroker) Subscribe(topicFilter string, qos byte, handler Handler) error {
	token := b.client.Subscribe(topicFilter, qos, func(_ paho.Client, m paho.Message) {
		handler(Message{Topic: m.Topic(), Payload: m.Payload()})
	})
	token.Wait()
	return token.Error()
}

func (b *PahoBroker) Unsubscribe(topicFilter string) error {
	token := b.client.Unsubscribe(topicFilter)
	token.Wait()
	return token.Error()
}

func (b *PahoBroker) OnReconnect(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onReconnect = append(b.onReconnect, fn)
}

func (b *PahoBroker) fireReconnect() {
	b.mu.Lock()
	callbacks := make([]func(), len(b.onReconnect))
	copy(callbacks, b.onReconnect)
	b.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

func (b *PahoBroker) OnDisconnect(fn func(error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDisconnect = append(b.onDisconnect, fn)
}

func (b *PahoBroker) fireDisconnect(err error) {
	b.mu.Lock()
	callbacks := make([]func(error), len(b.onDisconnect))
	copy(callbacks, b.onDisconnect)
	b.mu.Unlock()
	for _, fn := range callbacks {
		fn(err)
	}
}

func (b *PahoBroker) Close() {
	b.client.Disconnect(250)
}
