package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	commonmqtt "iheartcare/common/mqtt"
	"iheartcare/internal/service"

	"go.uber.org/zap"
)

// Subscriber the part of common/mqtt.Client the consumer needs.
type Subscriber interface {
	Subscribe(topic string, handler commonmqtt.MessageHandler) error
}

// MQTTConsumer records measurements published by devices on
// iheartcare/devices/{device_id}/measurements.
type MQTTConsumer struct {
	recorder service.ReadingRecorder
	topic    string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewMQTTConsumer(recorder service.ReadingRecorder, topic string, logger *zap.Logger) *MQTTConsumer {
	return &MQTTConsumer{
		recorder: recorder,
		topic:    topic,
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

// Start subscribes to the configured topic.
func (c *MQTTConsumer) Start(sub Subscriber) error {
	if err := sub.Subscribe(c.topic, c.HandleMessage); err != nil {
		return err
	}
	c.logger.Info("MQTT measurement consumer started", zap.String("topic", c.topic))
	return nil
}

// HandleMessage records every valid reading in payload. Invalid readings are
// logged and skipped; the first store failure is returned.
func (c *MQTTConsumer) HandleMessage(topic string, payload []byte) error {
	deviceID, err := DeviceIDFromTopic(topic)
	if err != nil {
		return err
	}
	readings, err := ParseReadings(payload)
	if err != nil {
		return fmt.Errorf("device %d: %w", deviceID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var firstErr error
	recorded := 0
	for _, r := range readings {
		if _, err := c.recorder.Record(ctx, deviceID, r); err != nil {
			if service.IsValidation(err) || errors.Is(err, service.ErrNotFound) {
				c.logger.Warn("Skipping device reading",
					zap.Int64("device_id", deviceID),
					zap.String("kind", r.Kind),
					zap.Error(err),
				)
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		recorded++
	}

	c.logger.Debug("MQTT message processed",
		zap.String("topic", topic),
		zap.Int("readings", len(readings)),
		zap.Int("recorded", recorded),
	)
	return firstErr
}

// DeviceIDFromTopic extracts the id segment following "devices".
func DeviceIDFromTopic(topic string) (int64, error) {
	parts := strings.Split(topic, "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] != "devices" {
			continue
		}
		id, err := strconv.ParseInt(parts[i+1], 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid device id in topic %q", topic)
		}
		return id, nil
	}
	return 0, fmt.Errorf("no device id in topic %q", topic)
}
