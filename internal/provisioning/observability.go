package provisioning

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	// Printf logs a free-form message.
	Printf(format string, v ...interface{})

	// Event emits a structured event
	Event(event Event)

	// Progress reports progress for a phase
	Progress(phase string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "infrastructure", "peering")
	Message   string            // Human-readable message
	Resource  string            // Resource name/ID if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventResourceCreated indicates a resource was created successfully.
	EventResourceCreated EventType = "resource.created"
	// EventResourceExists indicates a resource already exists.
	EventResourceExists EventType = "resource.exists"
	// EventResourceUpdated indicates an existing resource was changed.
	EventResourceUpdated EventType = "resource.updated"
	// EventResourceDeleted indicates a resource was deleted.
	EventResourceDeleted EventType = "resource.deleted"
	// EventResourceSkipped indicates a step was skipped and the run continues.
	EventResourceSkipped EventType = "resource.skipped"

	// EventWarning indicates a tolerated failure.
	EventWarning EventType = "warning"

	// EventProgress indicates progress in a long-running operation.
	EventProgress EventType = "progress"
)

// ZapObserver implements Observer on top of a zap logger.
type ZapObserver struct {
	logger *zap.SugaredLogger
}

// NewZapObserver creates an observer writing to logger.
func NewZapObserver(logger *zap.SugaredLogger) *ZapObserver {
	return &ZapObserver{logger: logger}
}

// NopObserver returns an observer that discards everything.
func NopObserver() *ZapObserver {
	return NewZapObserver(zap.NewNop().Sugar())
}

// Printf implements Observer.
func (o *ZapObserver) Printf(format string, v ...interface{}) {
	o.logger.Infof(format, v...)
}

// Event implements Observer. Failures are logged at error level, tolerated
// failures and skips at warn level.
func (o *ZapObserver) Event(event Event) {
	kv := []interface{}{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	kv = append(kv, sortedFields(event.Fields)...)

	switch event.Type {
	case EventPhaseFailed:
		o.logger.Errorw(event.Message, kv...)
	case EventWarning, EventResourceSkipped:
		o.logger.Warnw(event.Message, kv...)
	case EventProgress:
		o.logger.Debugw(event.Message, kv...)
	default:
		o.logger.Infow(event.Message, kv...)
	}
}

// Progress implements Observer.
func (o *ZapObserver) Progress(phase string, current, total int) {
	kv := []interface{}{"event", string(EventProgress), "phase", phase, "current", current, "total", total}
	if total > 0 {
		kv = append(kv, "percent", (current*100)/total)
	}
	o.logger.Debugw("progress", kv...)
}

// WithFields implements Observer.
func (o *ZapObserver) WithFields(fields map[string]string) Observer {
	return &ZapObserver{logger: o.logger.With(sortedFields(fields)...)}
}

func sortedFields(fields map[string]string) []interface{} {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}

// Helper functions for common events

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceCreated logs a successful resource creation event.
func LogResourceCreated(observer Observer, phase, resourceType, resourceName, resourceID string) {
	logResource(observer, EventResourceCreated, phase, resourceType, resourceName, resourceID, "%s created")
}

// LogResourceExists logs when a resource already exists.
func LogResourceExists(observer Observer, phase, resourceType, resourceName, resourceID string) {
	logResource(observer, EventResourceExists, phase, resourceType, resourceName, resourceID, "%s already exists")
}

// LogResourceUpdated logs when an existing resource was changed.
func LogResourceUpdated(observer Observer, phase, resourceType, resourceName, resourceID string) {
	logResource(observer, EventResourceUpdated, phase, resourceType, resourceName, resourceID, "%s updated")
}

// LogResourceDeleted logs a resource deletion event.
func LogResourceDeleted(observer Observer, phase, resourceType, resourceName, resourceID string) {
	logResource(observer, EventResourceDeleted, phase, resourceType, resourceName, resourceID, "%s deleted")
}

// LogResourceSkipped logs a step that was skipped, with the reason.
func LogResourceSkipped(observer Observer, phase, resourceType, resourceName, reason string) {
	observer.Event(Event{
		Type:     EventResourceSkipped,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s skipped: %s", resourceType, reason),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogWarning logs a failure the run tolerates.
func LogWarning(observer Observer, phase, resourceName string, err error) {
	observer.Event(Event{
		Type:     EventWarning,
		Phase:    phase,
		Resource: resourceName,
		Message:  err.Error(),
	})
}

func logResource(observer Observer, typ EventType, phase, resourceType, resourceName, resourceID, format string) {
	fields := map[string]string{"type": resourceType}
	if resourceID != "" {
		fields["id"] = resourceID
	}
	observer.Event(Event{
		Type:     typ,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf(format, resourceType),
		Fields:   fields,
	})
}
