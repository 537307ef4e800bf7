// Package bridge is the core of the system: it turns classified serial
// events into client broadcasts and client commands into serial writes.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"dispenser-bridge/backend/internal/events"
	"dispenser-bridge/backend/internal/hub"
	"dispenser-bridge/backend/internal/session"
	"dispenser-bridge/backend/pkg/utils"
)

// moistureAlertPercent is the moisture level at or below which clients get a
// distinguished alert, matching the dashboard's low-level cutoff.
const moistureAlertPercent = 20

// SerialWriter writes command token sequences to the controller.
type SerialWriter interface {
	WriteSequence(tokens ...string) error
}

// Broadcaster fans events out to all connected clients.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// ThresholdStore resolves and persists per-tag weight cutoffs.
type ThresholdStore interface {
	ThresholdFor(ctx context.Context, tag string) float64
	SaveThreshold(ctx context.Context, tag string, grams float64) error
	SetDefaultThreshold(ctx context.Context, grams float64) error
}

// TelemetryAppender records a time-series point, best effort.
type TelemetryAppender interface {
	Append(kind string, value float64)
}

// Bridge owns the serial event loop and handles client commands.
type Bridge struct {
	l           *slog.Logger
	serial      SerialWriter
	broadcaster Broadcaster
	store       ThresholdStore
	telemetry   TelemetryAppender
	state       *session.State
}

// New wires the bridge to its collaborators.
func New(
	l *slog.Logger,
	serial SerialWriter,
	broadcaster Broadcaster,
	store ThresholdStore,
	telemetry TelemetryAppender,
	state *session.State,
) *Bridge {
	return &Bridge{
		l:           l.With(slog.String("component", "bridge")),
		serial:      serial,
		broadcaster: broadcaster,
		store:       store,
		telemetry:   telemetry,
		state:       state,
	}
}

// Run consumes decoded serial lines until the channel closes or the context
// is canceled. Lines are processed strictly in arrival order; only threshold
// lookups happen off this goroutine.
func (b *Bridge) Run(ctx context.Context, lines <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return

		case line, ok := <-lines:
			if !ok {
				return
			}

			b.l.Debug("serial line", slog.String("line", line))
			b.handleEvent(ctx, events.Classify(line))
		}
	}
}

func (b *Bridge) handleEvent(ctx context.Context, ev events.Event) {
	switch e := ev.(type) {
	case events.IdentityScanned:
		b.handleIdentity(ctx, e.Tag)

	case events.WeightReading:
		b.handleWeight(e.Grams)

	case events.TemperatureReading:
		b.broadcaster.Broadcast("temperatureUpdate", temperaturePayload{Celsius: e.Celsius})
		b.telemetry.Append("temperature", e.Celsius)

	case events.DistanceReading:
		b.state.SetDistance(e.Centimeters)
		b.broadcaster.Broadcast("ultrasonicUpdate", ultrasonicPayload{Type: "distance", Distance: e.Centimeters})

	case events.FillLevel:
		b.broadcaster.Broadcast("ultrasonicUpdate", ultrasonicPayload{Type: "fill", Message: e.Raw})

	case events.StockStatus:
		b.state.SetStock(e.Status)
		b.broadcaster.Broadcast("ultrasonicUpdate", ultrasonicPayload{Type: "stock", Status: e.Status})

		if e.LowStock {
			b.broadcaster.Broadcast("lowStockAlert", messagePayload{Message: "Grain stock is running low"})
		}

	case events.MoistureReading:
		b.handleMoisture(e)

	case events.FingerprintResult:
		b.broadcaster.Broadcast("fingerprintResult", fingerprintPayload{
			Success:  e.Matched,
			FingerID: e.FingerprintID,
			Log:      e.Log,
		})

	case events.FingerprintLog:
		b.broadcaster.Broadcast("fingerprintLog", messagePayload{Message: e.Message})

	case events.MonitoringStatusChanged:
		b.broadcaster.Broadcast("monitoringStatus", messagePayload{Message: e.Message})

	case events.Unrecognized:
		if e.Raw != "" {
			b.l.Debug("unrecognized serial line", slog.String("line", e.Raw))
		}
	}
}

// handleIdentity starts a new dispense cycle unless the tag is a debounced
// duplicate. The threshold lookup runs asynchronously: weight readings that
// arrive before it resolves are compared against the current value.
func (b *Bridge) handleIdentity(ctx context.Context, tag string) {
	if !b.state.ObserveTag(tag) {
		return
	}

	b.broadcaster.Broadcast("rfidData", tagPayload{Tag: tag})

	go func() {
		grams := b.store.ThresholdFor(ctx, tag)

		// A newer scan may have started another cycle in the meantime;
		// its lookup wins, this one is stale.
		if b.state.ActiveTag() == tag {
			b.state.SetThreshold(grams)
			b.l.Info("threshold resolved",
				slog.String("tag", tag),
				slog.Float64("grams", grams),
			)
		}
	}()
}

func (b *Bridge) handleWeight(grams float64) {
	b.broadcaster.Broadcast("weightUpdate", weightPayload{Grams: grams})
	b.telemetry.Append("weight", grams)

	if !b.state.ShouldStop(grams) {
		return
	}

	b.l.Info("weight threshold reached, stopping motor",
		slog.Float64("grams", grams),
		slog.Float64("threshold", b.state.Threshold()),
	)

	if err := b.serial.WriteSequence(stopSequence...); err != nil {
		b.l.Error("failed to send stop sequence", utils.ErrAttr(err))
	}
}

func (b *Bridge) handleMoisture(e events.MoistureReading) {
	b.state.SetMoisture(e.Raw, e.Percent)
	b.broadcaster.Broadcast("moistureData", moisturePayload{Raw: e.Raw, Percent: e.Percent})
	b.telemetry.Append("moisture", float64(e.Percent))

	if e.Percent <= moistureAlertPercent {
		b.broadcaster.Broadcast("moistureAlert", moistureAlertPayload{
			Value:   e.Percent,
			Message: fmt.Sprintf("Moisture level critical: %d%%", e.Percent),
		})
	}
}

// HandleCommand dispatches a client command. Runs on the client's read
// goroutine, so persistence here never stalls the serial event loop.
func (b *Bridge) HandleCommand(reply hub.Replier, event string, data json.RawMessage) {
	if event == "updateWeightThreshold" {
		b.handleThresholdUpdate(reply, data)

		return
	}

	cmd, ok := serialCommands[event]
	if !ok {
		b.l.Warn("unknown client command", slog.String("event", event))

		return
	}

	if cmd.beginsCycle {
		b.state.BeginCycle()
	}

	if err := b.serial.WriteSequence(cmd.tokens...); err != nil {
		b.l.Error("failed to write command", slog.String("event", event), utils.ErrAttr(err))

		if cmd.replyEvent != "" {
			reply.Send(cmd.replyEvent, CommandResponse{Success: false, Message: "Failed to send command"})
		}

		return
	}

	if cmd.replyEvent != "" {
		reply.Send(cmd.replyEvent, CommandResponse{Success: true, Message: cmd.replyMsg})
	}
}

// handleThresholdUpdate applies the new cutoff in memory first, then tries to
// persist it. On persistence failure the client gets a failure reply but the
// in-memory value stays changed; live comparisons already use it.
func (b *Bridge) handleThresholdUpdate(reply hub.Replier, data json.RawMessage) {
	update, err := decodeThresholdUpdate(data)
	if err != nil {
		b.l.Warn("malformed threshold update", utils.ErrAttr(err))
		reply.Send("thresholdUpdateResponse", CommandResponse{Success: false, Message: "Failed to update threshold"})

		return
	}

	b.state.SetThreshold(update.Value)

	tag := update.Tag
	if tag == "" {
		tag = b.state.ActiveTag()
	}

	ctx := context.Background()

	if tag != "" {
		err = b.store.SaveThreshold(ctx, tag, update.Value)
	} else {
		err = b.store.SetDefaultThreshold(ctx, update.Value)
	}

	if err != nil {
		b.l.Error("failed to persist threshold", utils.ErrAttr(err))
		reply.Send("thresholdUpdateResponse", CommandResponse{Success: false, Message: "Failed to update threshold"})

		return
	}

	reply.Send("thresholdUpdateResponse", CommandResponse{Success: true, Message: "Threshold updated!"})
}

// decodeThresholdUpdate accepts both the object form and a bare number.
func decodeThresholdUpdate(data json.RawMessage) (thresholdUpdate, error) {
	var bare float64
	if err := json.Unmarshal(data, &bare); err == nil {
		return thresholdUpdate{Value: bare}, nil
	}

	var update thresholdUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return thresholdUpdate{}, fmt.Errorf("failed to decode threshold update: %w", err)
	}

	return update, nil
}

// Replay pushes the last known distance, stock and moisture readings to a
// newly connected client. Weight and temperature are intentionally not
// replayed; clients wait for the next live reading.
func (b *Bridge) Replay(reply hub.Replier) {
	reply.Send("helloMessage", messagePayload{Message: "Connected to dispenser bridge"})

	snap := b.state.Snapshot()

	if snap.Distance != nil {
		reply.Send("ultrasonicUpdate", ultrasonicPayload{Type: "distance", Distance: *snap.Distance})
	}

	if snap.Stock != nil {
		reply.Send("ultrasonicUpdate", ultrasonicPayload{Type: "stock", Status: *snap.Stock})
	}

	if snap.MoistureRaw != nil && snap.MoisturePercent != nil {
		reply.Send("moistureData", moisturePayload{Raw: *snap.MoistureRaw, Percent: *snap.MoisturePercent})
	}
}
