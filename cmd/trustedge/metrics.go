package main

import (
	"context"
	"time"

	"github.com/trustedge/trustedge-core/internal/command"
	"github.com/trustedge/trustedge-core/internal/device"
	"github.com/trustedge/trustedge-core/internal/infrastructure/influxdb"
	"github.com/trustedge/trustedge-core/internal/infrastructure/logging"
	"github.com/trustedge/trustedge-core/internal/presence"
)

// metricsInterval is how often gauge metrics are sampled.
const metricsInterval = 30 * time.Second

// commandOutcomeObserver returns the dispatcher outcome callback that
// feeds per-command delivery metrics into InfluxDB.
func commandOutcomeObserver(influx *influxdb.Client) func(cmd command.RemoteCommand, deliveryMillis float64) {
	return func(cmd command.RemoteCommand, deliveryMillis float64) {
		influx.WriteCommandOutcome(string(cmd.Type), string(cmd.Status), cmd.TargetDeviceID, deliveryMillis)
	}
}

// commandAckObserver returns the dispatcher ack callback that feeds
// device-reported acknowledgements into InfluxDB, stamped with the
// device-reported time.
func commandAckObserver(influx *influxdb.Client) func(cmd command.RemoteCommand, ok bool, at time.Time) {
	return func(cmd command.RemoteCommand, ok bool, at time.Time) {
		result := "failed"
		if ok {
			result = "completed"
		}
		influx.WriteCommandAck(string(cmd.Type), result, cmd.TargetDeviceID, at)
	}
}

// recordMetrics periodically samples gauge metrics (online device count,
// per-device queue depth) into InfluxDB.
//
// Runs until ctx is cancelled. Write failures surface through the
// client's async error callback, not here.
func recordMetrics(ctx context.Context, influx *influxdb.Client, tracker *presence.Tracker, dispatcher *command.Dispatcher, registry *device.Registry, log *logging.Logger) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			influx.WritePresenceCount(tracker.OnlineCount())

			devices, err := registry.GetDevices(ctx)
			if err != nil {
				log.Warn("sampling queue depth", "error", err)
				continue
			}
			for i := range devices {
				if depth := dispatcher.QueuedCount(devices[i].ID); depth > 0 {
					influx.WriteQueueDepth(devices[i].ID, depth)
				}
			}
		}
	}
}
