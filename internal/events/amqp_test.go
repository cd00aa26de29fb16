package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/streadway/amqp"

	"github.com/me/gofleet/pkg/model"
)

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.exchange = exchange
	c.key = key
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newAMQPPublisher(ch, DefaultExchange, discardLogger())

	m := &model.Mission{
		ID:           "m1",
		RobotID:      "r1",
		AssetCode:    "JSV",
		Status:       model.MissionStatusFailed,
		StatusReason: "robot unreachable",
	}
	payload := MissionPayload(m)
	if err := p.Publish(context.Background(), MissionFailed, payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if ch.exchange != DefaultExchange || ch.key != MissionFailed {
		t.Errorf("published to %s/%s", ch.exchange, ch.key)
	}
	if len(ch.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(ch.msgs))
	}
	msg := ch.msgs[0]
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Errorf("content type %q, delivery mode %d", msg.ContentType, msg.DeliveryMode)
	}

	var body map[string]any
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	for _, key := range []string{"event_id", "routing_key", "ts_utc", "mission_id", "status_reason"} {
		if _, ok := body[key]; !ok {
			t.Errorf("body missing %q: %v", key, body)
		}
	}
	if body["event_id"] != msg.MessageId {
		t.Errorf("event_id %v != MessageId %s", body["event_id"], msg.MessageId)
	}
	if _, ok := payload["event_id"]; ok {
		t.Error("Publish mutated caller payload")
	}

	p.Close()
	if !ch.closed {
		t.Error("Close did not close the channel")
	}
}

func TestAMQPPublisher_Errors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newAMQPPublisher(ch, DefaultExchange, discardLogger())
	if err := p.Publish(context.Background(), MissionStarted, map[string]any{}); err == nil {
		t.Error("expected error from failing channel")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = newAMQPPublisher(&fakeChannel{}, DefaultExchange, discardLogger())
	if err := p.Publish(ctx, MissionStarted, map[string]any{}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx: err = %v, want context.Canceled", err)
	}
}

func TestMissionPayload(t *testing.T) {
	p := MissionPayload(&model.Mission{ID: "m1", Status: model.MissionStatusInProgress})
	if p["status"] != "InProgress" {
		t.Errorf("status = %v", p["status"])
	}
	if _, ok := p["status_reason"]; ok {
		t.Error("empty status_reason should be omitted")
	}
	if _, ok := p["map_name"]; ok {
		t.Error("map_name should be omitted without a map")
	}
}
