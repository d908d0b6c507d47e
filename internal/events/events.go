package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated    = "booking_created"
	EventBookingConfirmed  = "booking_confirmed"
	EventBookingInProgress = "booking_in_progress"
	EventBookingCompleted  = "booking_completed"
	EventBookingCancelled  = "booking_cancelled"
	EventVendorApproved    = "vendor_approved"
	EventVendorRejected    = "vendor_rejected"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID       string    `json:"booking_id"`
	CustomerID      string    `json:"customer_id"`
	VendorID        string    `json:"vendor_id,omitempty"`
	ServiceName     string    `json:"service_name"`
	ServiceCategory string    `json:"service_category"`
	Status          string    `json:"status"`
	BookingDate     time.Time `json:"booking_date"`
	ChangedBy       string    `json:"changed_by,omitempty"`
	ChangedByRole   string    `json:"changed_by_role,omitempty"`
}

// VendorEventPayload describes a vendor approval decision.
type VendorEventPayload struct {
	VendorProfileID string `json:"vendor_profile_id"`
	UserID          string `json:"user_id"`
	ApprovalStatus  string `json:"approval_status"`
	DecidedBy       string `json:"decided_by"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
