// Package telemetry publishes sensor readings to the MQTT broker as a
// best-effort time series.
package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"dispenser-bridge/backend/pkg/mqtt"
	"dispenser-bridge/backend/pkg/utils"
)

const publishOperationID = "publishTelemetryPoint"

// Point is one time-series sample.
type Point struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher appends readings to per-kind MQTT topics. Appends never block the
// caller and never fail it: publish errors are logged, rate limited.
type Publisher struct {
	l       *slog.Logger
	builder *mqtt.MQTTBuilder
	client  *mqtt.MQTTClient
	limiter *utils.LogLimiter
	now     func() time.Time
}

// NewPublisher registers the telemetry publication on the builder. Call
// before the builder connects.
func NewPublisher(l *slog.Logger, builder *mqtt.MQTTBuilder) (*Publisher, error) {
	l = l.With(slog.String("component", "telemetry"))

	err := builder.RegisterPublish("dispenser/telemetry/{kind}", mqtt.PublicationSpec{
		OperationID: publishOperationID,
		Summary:     "Publish a telemetry point",
		Description: "Publishes one sensor reading to the per-kind telemetry topic.",
		Group:       "Telemetry",
		TopicParameters: []mqtt.TopicParameter{
			{Name: "kind", Description: "Reading kind: weight, temperature or moisture"},
		},
		QoS: mqtt.QoSAtMostOnce,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register telemetry publication: %w", err)
	}

	return &Publisher{
		l:       l,
		builder: builder,
		client:  builder.Client(),
		limiter: utils.NewLogLimiter(l, time.Minute),
		now:     time.Now,
	}, nil
}

// Append publishes the reading asynchronously. Readings observed while the
// broker is unreachable are dropped.
func (p *Publisher) Append(kind string, value float64) {
	if !p.builder.Connected() {
		p.limiter.Error("dropping telemetry point, broker not connected", nil)

		return
	}

	point := Point{Value: value, Timestamp: p.now()}

	go func() {
		topic := "dispenser/telemetry/" + kind
		if err := p.client.Publish(publishOperationID, topic, point); err != nil {
			p.limiter.Error("failed to publish telemetry point", err)
		}
	}()
}
