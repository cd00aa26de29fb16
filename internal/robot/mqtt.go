package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/me/gofleet/pkg/model"
)

// MQTTConfig configures the MQTT dispatcher.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string        // Orders go to <prefix>/<serial number>/order
	AckTimeout  time.Duration // How long to wait for the broker to acknowledge a publish
}

// publisher is the subset of mqtt.Client used to send orders.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTDispatcher starts missions by publishing an order on the robot's topic.
// Success means the broker accepted the order at QoS 1.
type MQTTDispatcher struct {
	client      publisher
	topicPrefix string
	ackTimeout  time.Duration
	logger      *slog.Logger
}

// order is the payload published to a robot.
type order struct {
	MissionID string    `json:"missionId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMQTTDispatcher connects to the broker and returns a dispatcher with a
// disconnect func.
func NewMQTTDispatcher(cfg MQTTConfig, logger *slog.Logger) (*MQTTDispatcher, func(), error) {
	logger = logger.With("component", "mqtt-dispatcher")
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(1 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(10 * time.Second).
		SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Error("connection lost, reconnecting", "error", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}
	logger.Info("connected to MQTT broker", "broker", cfg.Broker)

	d := newMQTTDispatcher(client, cfg.TopicPrefix, cfg.AckTimeout, logger)
	disconnect := func() {
		if client.IsConnected() {
			client.Disconnect(250)
			logger.Info("MQTT client disconnected")
		}
	}
	return d, disconnect, nil
}

func newMQTTDispatcher(client publisher, topicPrefix string, ackTimeout time.Duration, logger *slog.Logger) *MQTTDispatcher {
	if ackTimeout <= 0 {
		ackTimeout = 5 * time.Second
	}
	return &MQTTDispatcher{client: client, topicPrefix: topicPrefix, ackTimeout: ackTimeout, logger: logger}
}

// OrderTopic returns the topic a robot receives orders on.
func (d *MQTTDispatcher) OrderTopic(robot *model.Robot) string {
	return fmt.Sprintf("%s/%s/order", d.topicPrefix, robot.SerialNumber)
}

// StartMission publishes the order and waits for the broker acknowledgement.
func (d *MQTTDispatcher) StartMission(ctx context.Context, robot *model.Robot, missionID string) Result {
	if robot.SerialNumber == "" {
		return Failure(fmt.Sprintf("robot %s has no serial number", robot.ID))
	}
	payload, err := json.Marshal(order{MissionID: missionID, Timestamp: time.Now().UTC()})
	if err != nil {
		return Failure(fmt.Sprintf("marshal order: %v", err))
	}

	topic := d.OrderTopic(robot)
	token := d.client.Publish(topic, 1, false, payload)

	select {
	case <-token.Done():
	case <-time.After(d.ackTimeout):
		return Failure(fmt.Sprintf("publish to %s timed out after %s", topic, d.ackTimeout))
	case <-ctx.Done():
		return Failure(fmt.Sprintf("publish to %s: %v", topic, ctx.Err()))
	}
	if err := token.Error(); err != nil {
		return Failure(fmt.Sprintf("publish to %s: %v", topic, err))
	}
	d.logger.Debug("order published", "topic", topic, "mission_id", missionID)
	return Success(payload)
}
