package audit

import (
	"context"
	"sync"

	"github.com/trustedge/trustedge-core/internal/bus"
)

// Logger is the minimal logging interface the recorder needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// recorderBuffer sizes the bus subscription. Audit writes hit disk, so
// the buffer absorbs bursts without dropping events.
const recorderBuffer = 256

// Recorder subscribes to the event bus and persists every event as an
// audit entry. The bus itself keeps no history; this is the durable record.
type Recorder struct {
	repo   Repository
	sub    *bus.Subscription
	logger Logger

	wg sync.WaitGroup
}

// NewRecorder creates a recorder persisting through repo.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Start subscribes to events and begins persisting them in a background
// goroutine. Call Stop to unsubscribe and wait for the final write.
func (r *Recorder) Start(ctx context.Context, events *bus.Bus) {
	r.sub = events.SubscribeBuffered(recorderBuffer)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-r.sub.Events():
				if !ok {
					return
				}
				r.record(ctx, event)
			}
		}
	}()
}

// Stop unsubscribes and waits for in-flight writes to finish.
func (r *Recorder) Stop() {
	if r.sub != nil {
		r.sub.Close()
	}
	r.wg.Wait()
}

// record persists one event. Failures are logged, not fatal; a full disk
// must not stop command dispatch.
func (r *Recorder) record(ctx context.Context, event bus.Event) {
	entry := &Entry{
		Kind:      string(event.Kind),
		DeviceID:  event.DeviceID,
		Metadata:  event.Metadata,
		CreatedAt: event.Timestamp,
	}

	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Error("persisting audit entry",
			"kind", entry.Kind,
			"device_id", entry.DeviceID,
			"error", err,
		)
		return
	}

	r.logger.Debug("audit entry recorded",
		"id", entry.ID,
		"kind", entry.Kind,
		"device_id", entry.DeviceID,
	)
}
