// Package ingest scores accident scenarios that arrive over MQTT and
// publishes each result back to the broker.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin/binding"

	"accident-severity-api/config"
	"accident-severity-api/models"
	"accident-severity-api/observability"
	"accident-severity-api/services"
)

const ResultTopicPrefix = "accidents/predictions/"

var ErrInvalidPayload = errors.New("invalid payload")

type Predictor interface {
	Predict(ctx context.Context, req models.AccidentRequest) (*models.PredictionResult, error)
}

// PublishFunc sends payload to topic.
type PublishFunc func(topic string, payload []byte) error

type Ingestor struct {
	predictor Predictor
	publish   PublishFunc
	logger    *slog.Logger
}

func NewIngestor(predictor Predictor, publish PublishFunc, logger *slog.Logger) *Ingestor {
	return &Ingestor{predictor: predictor, publish: publish, logger: logger.With("component", "ingest")}
}

// ResultTopic derives the reply topic from the last segment of the topic a
// request arrived on.
func ResultTopic(topic string) string {
	id := topic[strings.LastIndex(topic, "/")+1:]
	if id == "" {
		id = "unknown"
	}
	return ResultTopicPrefix + id
}

// Handle decodes, validates and scores one message. Bad payloads are
// counted and reported but never retried.
func (i *Ingestor) Handle(ctx context.Context, topic string, payload []byte) error {
	var req models.AccidentRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return i.reject(topic, fmt.Errorf("%w: %w", ErrInvalidPayload, err))
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return i.reject(topic, fmt.Errorf("%w: %w", ErrInvalidPayload, err))
	}

	ctx = services.WithSource(ctx, services.SourceMQTT)
	res, err := i.predictor.Predict(ctx, req)
	if err != nil {
		observability.IngestMessages.WithLabelValues("failed").Inc()
		i.logger.Error("mqtt prediction failed", "topic", topic, "error", err)
		return err
	}

	out, err := json.Marshal(res)
	if err != nil {
		observability.IngestMessages.WithLabelValues("failed").Inc()
		return err
	}
	if err := i.publish(ResultTopic(topic), out); err != nil {
		observability.IngestMessages.WithLabelValues("failed").Inc()
		i.logger.Warn("publish prediction failed", "topic", ResultTopic(topic), "error", err)
		return err
	}
	observability.IngestMessages.WithLabelValues("ok").Inc()
	return nil
}

func (i *Ingestor) reject(topic string, err error) error {
	observability.IngestMessages.WithLabelValues("invalid").Inc()
	i.logger.Warn("dropping mqtt message", "topic", topic, "error", err)
	return err
}

// clientOptions builds the broker options. Handlers run unordered because
// each one waits on a QoS 1 publish; ordered dispatch would serialize them.
func clientOptions(ctx context.Context, cfg config.MQTTConfig, ing *Ingestor) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.URL)
	opts.SetClientID(cfg.ClientID + "-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetOrderMatters(false)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, message mqtt.Message) {
		_ = ing.Handle(ctx, message.Topic(), message.Payload())
	})
	opts.OnConnect = func(c mqtt.Client) {
		token := c.Subscribe(cfg.Topic, 0, nil)
		token.Wait()
		if token.Error() != nil {
			ing.logger.Error("mqtt subscribe failed", "topic", cfg.Topic, "error", token.Error())
			return
		}
		ing.logger.Info("mqtt subscribed", "topic", cfg.Topic)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		ing.logger.Warn("mqtt connection lost", "error", err)
	}
	return opts
}

// Run connects to the broker, subscribes to cfg.Topic and serves messages
// until ctx is done.
func Run(ctx context.Context, cfg config.MQTTConfig, predictor Predictor, logger *slog.Logger) error {
	var client mqtt.Client
	ing := NewIngestor(predictor, func(topic string, payload []byte) error {
		token := client.Publish(topic, 1, false, payload)
		if !token.WaitTimeout(5 * time.Second) {
			return fmt.Errorf("publish to %s timed out", topic)
		}
		return token.Error()
	}, logger)

	client = mqtt.NewClient(clientOptions(ctx, cfg, ing))
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", cfg.URL, token.Error())
	}
	ing.logger.Info("mqtt ingest running", "broker", cfg.URL)

	<-ctx.Done()
	client.Disconnect(250)
	ing.logger.Info("mqtt ingest stopped")
	return nil
}
