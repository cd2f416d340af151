// Package mqtt publishes alert transitions to an MQTT broker so external
// consumers (automations, notifiers) can react without polling the API.
package mqtt

import (
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rickhiram/Sensor-Dashboard/internal/alert"
	"go.uber.org/zap"
)

type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

type Publisher struct {
	client paho.Client
	topic  string
	logger *zap.Logger
}

func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

// PublishAlert sends one edge event, fire-and-forget. A broker outage must
// not back-pressure the ingestion path.
func (p *Publisher) PublishAlert(e alert.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	topic := fmt.Sprintf("%s/%d", p.topic, e.SensorID)
	token := p.client.Publish(topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.logger.Warn("alert publish failed",
				zap.String("topic", topic),
				zap.Error(token.Error()))
		}
	}()
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
