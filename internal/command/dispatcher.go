package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trustedge/trustedge-core/internal/bus"
	"github.com/trustedge/trustedge-core/internal/device"
	"github.com/trustedge/trustedge-core/internal/presence"
)

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Transport is the collaborator that actually reaches a device.
//
// Execute delivers a command; a returned error means delivery failed,
// which the dispatcher records as a terminal failed status. PushWake is a
// best-effort wake-up signal for an offline device; it has no observable
// result and its failures are ignored.
type Transport interface {
	Execute(ctx context.Context, cmd RemoteCommand) error
	PushWake(cmd RemoteCommand)
}

// DeviceRegistry is the interface the dispatcher needs from the device
// package. The dispatcher reads device existence and delegates lock state
// changes; it never mutates TrustedDevice records directly.
type DeviceRegistry interface {
	HasDevice(ctx context.Context, id string) (bool, error)
	LockDevice(ctx context.Context, id string, lock bool, initiatorID string) (*device.TrustedDevice, error)
	RecordActivity(ctx context.Context, id string) error
}

// Dispatcher routes remote commands to trusted devices.
//
// A command addressed to an online device is executed immediately and
// returned in a terminal state. A command addressed to an offline device
// is queued per device in FIFO order, a push wake-up is fired, and the
// command is returned still pending; it executes when the device's
// connectivity flips to online.
//
// The dispatcher performs no automatic retry: a failed delivery stays
// failed, and callers retry by sending a new command id.
//
// All public methods are thread-safe.
type Dispatcher struct {
	registry  DeviceRegistry
	tracker   *presence.Tracker
	transport Transport
	events    *bus.Bus
	logger    Logger

	// mu guards history, byID and queues. Routing decisions (online
	// check plus enqueue) happen under mu so a concurrent reconnect
	// drain cannot strand a command. Transport calls run outside mu.
	mu      sync.Mutex
	history []*RemoteCommand
	byID    map[string]*RemoteCommand
	queues  map[string][]*RemoteCommand

	// observer, when set, is called with a copy of each command reaching
	// a terminal state and the wall time from creation to that state.
	observer func(cmd RemoteCommand, deliveryMillis float64)

	// ackObserver, when set, is called with a copy of each command a
	// device acknowledges, the reported result and the reported time.
	ackObserver func(cmd RemoteCommand, ok bool, at time.Time)
}

// NewDispatcher creates a command dispatcher.
func NewDispatcher(registry DeviceRegistry, tracker *presence.Tracker, transport Transport, events *bus.Bus) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		tracker:   tracker,
		transport: transport,
		events:    events,
		logger:    noopLogger{},
		byID:      make(map[string]*RemoteCommand),
		queues:    make(map[string][]*RemoteCommand),
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// SetOutcomeObserver registers a callback for terminal command outcomes,
// used to feed delivery metrics. Must be set before the first command is
// sent; the callback must not block.
func (d *Dispatcher) SetOutcomeObserver(fn func(cmd RemoteCommand, deliveryMillis float64)) {
	d.observer = fn
}

// SetAckObserver registers a callback for device acknowledgements, used
// to feed ack metrics. Must be set before the first command is sent; the
// callback must not block.
func (d *Dispatcher) SetAckObserver(fn func(cmd RemoteCommand, ok bool, at time.Time)) {
	d.ackObserver = fn
}

// SendCommand dispatches a command to a device.
//
// commandID may be empty, in which case one is generated. Sending an id
// already in the history is idempotent: the existing command is returned
// unchanged with no side effects.
//
// The returned command is terminal (success or failed) when the target
// was online, or pending when it was offline and the command was queued.
// Callers watching a pending command poll GetCommand or subscribe to the
// event bus.
func (d *Dispatcher) SendCommand(ctx context.Context, commandID string, cmdType Type, targetID string) (*RemoteCommand, error) {
	if !ValidType(cmdType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, cmdType)
	}

	ok, err := d.registry.HasDevice(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("checking target device: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, targetID)
	}

	if commandID == "" {
		commandID = uuid.NewString()
	}

	d.mu.Lock()
	if existing, found := d.byID[commandID]; found {
		cpy := *existing
		d.mu.Unlock()
		return &cpy, nil
	}

	cmd := &RemoteCommand{
		CommandID:      commandID,
		Type:           cmdType,
		TargetDeviceID: targetID,
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	d.history = append(d.history, cmd)
	d.byID[cmd.CommandID] = cmd

	online := d.tracker.IsOnline(targetID)
	if !online {
		d.queues[targetID] = append(d.queues[targetID], cmd)
	}
	// Copy while still holding the lock: once queued, a concurrent
	// reconnect drain may write the command's status at any moment.
	pending := *cmd
	d.mu.Unlock()

	if online {
		outcome := d.execute(ctx, cmd)
		return &outcome, nil
	}

	d.logger.Info("command queued for offline device",
		"command_id", pending.CommandID, "type", cmdType, "device_id", targetID)
	// Best-effort wake-up for the offline device; failures ignored.
	d.transport.PushWake(pending)
	return &pending, nil
}

// SetDeviceConnectionStatus records a device's connectivity.
//
// On an offline-to-online transition every command queued for that device
// is executed in original enqueue order. Ordering across different devices
// is unspecified.
func (d *Dispatcher) SetDeviceConnectionStatus(ctx context.Context, deviceID string, online bool) {
	d.mu.Lock()
	cameOnline := d.tracker.Set(deviceID, online)

	var drained []*RemoteCommand
	if cameOnline {
		drained = d.queues[deviceID]
		delete(d.queues, deviceID)
	}
	d.mu.Unlock()

	if len(drained) == 0 {
		return
	}

	d.logger.Info("device reconnected, draining queued commands",
		"device_id", deviceID, "count", len(drained))

	for _, cmd := range drained {
		d.execute(ctx, cmd)
	}
}

// HandleCommandAck records a device-reported outcome for a delivered
// command. Acks do not rewrite the command's terminal status; delivery
// and agent-side execution are separate facts. The ack counts as device
// activity and is published on the event bus for the audit trail.
//
// Acks for unknown commands or for a command addressed to a different
// device are logged and dropped.
func (d *Dispatcher) HandleCommandAck(ctx context.Context, deviceID, commandID string, ok bool, at time.Time) {
	d.mu.Lock()
	cmd, found := d.byID[commandID]
	if !found {
		d.mu.Unlock()
		d.logger.Warn("ack for unknown command", "command_id", commandID, "device_id", deviceID)
		return
	}
	if cmd.TargetDeviceID != deviceID {
		d.mu.Unlock()
		d.logger.Warn("ack from wrong device",
			"command_id", commandID, "device_id", deviceID, "target", cmd.TargetDeviceID)
		return
	}
	acked := *cmd
	d.mu.Unlock()

	result := "failed"
	if ok {
		result = "completed"
	}

	if err := d.registry.RecordActivity(ctx, deviceID); err != nil {
		d.logger.Warn("recording ack activity", "device_id", deviceID, "error", err)
	}

	d.events.Publish(bus.Event{
		Kind:     bus.KindCommandAck,
		DeviceID: deviceID,
		Metadata: map[string]string{
			bus.MetaCommandID: acked.CommandID,
			bus.MetaResult:    result,
		},
	})

	if d.ackObserver != nil {
		d.ackObserver(acked, ok, at)
	}

	d.logger.Debug("command acknowledged",
		"command_id", acked.CommandID, "type", acked.Type,
		"device_id", deviceID, "result", result)
}

// execute performs the transport call for a pending command, writes its
// terminal status and returns a copy of the outcome. This is the only
// place a command status is written.
func (d *Dispatcher) execute(ctx context.Context, cmd *RemoteCommand) RemoteCommand {
	err := d.transport.Execute(ctx, *cmd)

	d.mu.Lock()
	if err != nil {
		cmd.Status = StatusFailed
	} else {
		cmd.Status = StatusSuccess
	}
	outcome := *cmd
	d.mu.Unlock()

	if d.observer != nil {
		d.observer(outcome, float64(time.Since(outcome.CreatedAt).Milliseconds()))
	}

	if err != nil {
		// A failed delivery is a normal terminal outcome, not an error.
		d.logger.Warn("command delivery failed",
			"command_id", outcome.CommandID, "type", outcome.Type,
			"device_id", outcome.TargetDeviceID, "error", err)
		return outcome
	}

	d.logger.Debug("command delivered",
		"command_id", outcome.CommandID, "type", outcome.Type, "device_id", outcome.TargetDeviceID)

	// Delivery counts as device activity.
	if recErr := d.registry.RecordActivity(ctx, outcome.TargetDeviceID); recErr != nil {
		d.logger.Warn("recording delivery activity", "device_id", outcome.TargetDeviceID, "error", recErr)
	}

	d.applySideEffects(ctx, &outcome)
	return outcome
}

// applySideEffects performs the registry and event consequences of a
// delivered command. Lock state never changes here directly; lock and
// unlock delegate to the registry, which owns the device records.
func (d *Dispatcher) applySideEffects(ctx context.Context, cmd *RemoteCommand) {
	switch cmd.Type {
	case TypeLock, TypeUnlock:
		if _, err := d.registry.LockDevice(ctx, cmd.TargetDeviceID, cmd.Type == TypeLock, cmd.InitiatorDeviceID); err != nil {
			d.logger.Warn("applying lock state after delivery",
				"command_id", cmd.CommandID, "device_id", cmd.TargetDeviceID, "error", err)
		}
	case TypePing:
		d.events.Publish(bus.Event{
			Kind:     bus.KindPing,
			DeviceID: cmd.TargetDeviceID,
			Metadata: initiatorMeta(cmd.InitiatorDeviceID),
		})
	case TypeLogout:
		d.events.Publish(bus.Event{
			Kind:     bus.KindRemoteLogout,
			DeviceID: cmd.TargetDeviceID,
			Metadata: initiatorMeta(cmd.InitiatorDeviceID),
		})
	case TypeWipe, TypeAlert:
		// Delivery is the whole effect; the device acts on its own side.
	}
}

// ExecuteRemoteCommand is the registry-bound variant used for lock,
// unlock, ping and logout between registered devices, bypassing the
// device transport.
//
// Both target and initiator must exist in the registry; if either is
// absent the call fails before any side effect. Lock and unlock delegate
// to the registry. Ping and logout mutate nothing; they only publish the
// corresponding event carrying the initiator id, existing purely as
// addressable, auditable signals.
func (d *Dispatcher) ExecuteRemoteCommand(ctx context.Context, targetID string, cmdType Type, initiatorID string) error {
	switch cmdType {
	case TypeLock, TypeUnlock, TypePing, TypeLogout:
	default:
		return fmt.Errorf("%w: %q is not registry-bound", ErrInvalidType, cmdType)
	}

	ok, err := d.registry.HasDevice(ctx, targetID)
	if err != nil {
		return fmt.Errorf("checking target device: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, targetID)
	}

	if initiatorID != "" {
		ok, err = d.registry.HasDevice(ctx, initiatorID)
		if err != nil {
			return fmt.Errorf("checking initiator device: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrInitiatorNotFound, initiatorID)
		}
	}

	cmd := &RemoteCommand{
		CommandID:         uuid.NewString(),
		Type:              cmdType,
		TargetDeviceID:    targetID,
		InitiatorDeviceID: initiatorID,
		Status:            StatusPending,
		CreatedAt:         time.Now().UTC(),
	}

	switch cmdType {
	case TypeLock, TypeUnlock:
		if _, err := d.registry.LockDevice(ctx, targetID, cmdType == TypeLock, initiatorID); err != nil {
			return fmt.Errorf("applying lock state: %w", err)
		}
	case TypePing:
		d.events.Publish(bus.Event{Kind: bus.KindPing, DeviceID: targetID, Metadata: initiatorMeta(initiatorID)})
	case TypeLogout:
		d.events.Publish(bus.Event{Kind: bus.KindRemoteLogout, DeviceID: targetID, Metadata: initiatorMeta(initiatorID)})
	}

	cmd.Status = StatusSuccess

	d.mu.Lock()
	d.history = append(d.history, cmd)
	d.byID[cmd.CommandID] = cmd
	d.mu.Unlock()

	d.logger.Info("registry-bound command executed",
		"command_id", cmd.CommandID, "type", cmdType, "device_id", targetID)
	return nil
}

// GetCommand returns a command by id from the history.
func (d *Dispatcher) GetCommand(commandID string) (*RemoteCommand, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmd, ok := d.byID[commandID]
	if !ok {
		return nil, false
	}
	cpy := *cmd
	return &cpy, true
}

// GetCommandHistory returns every command ever addressed to a device, in
// creation order and regardless of status. The history is an audit trail;
// it is only emptied by ClearHistory.
func (d *Dispatcher) GetCommandHistory(deviceID string) []RemoteCommand {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []RemoteCommand
	for _, cmd := range d.history {
		if cmd.TargetDeviceID == deviceID {
			out = append(out, *cmd)
		}
	}
	return out
}

// QueuedCount returns the number of commands waiting for a device to
// come online.
func (d *Dispatcher) QueuedCount(deviceID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues[deviceID])
}

// ClearHistory empties the command history and every pending queue.
// Used by account wipe and reset flows.
func (d *Dispatcher) ClearHistory() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.history = nil
	d.byID = make(map[string]*RemoteCommand)
	d.queues = make(map[string][]*RemoteCommand)
}

func initiatorMeta(initiatorID string) map[string]string {
	if initiatorID == "" {
		return nil
	}
	return map[string]string{bus.MetaInitiator: initiatorID}
}
