package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// InMemoryEventStore keeps every run's events in memory. Subscribers are called
// synchronously, in append order, after the store lock is released.
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	allEvents   []Event
	logger      zerolog.Logger
}

var _ EventStore = (*InMemoryEventStore)(nil)

// NewInMemoryEventStore creates an empty store; handler failures are logged to logger
func NewInMemoryEventStore(logger zerolog.Logger) *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		logger:      logger.With().Str("component", "events").Logger(),
	}
}

// AppendEvent implements EventStore
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()

	eventWithVersion := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}

	s.streams[streamID] = append(s.streams[streamID], eventWithVersion)
	s.allEvents = append(s.allEvents, eventWithVersion)
	handlers := append([]EventHandler(nil), s.subscribers[event.Type()]...)

	s.mutex.Unlock()

	s.notifySubscribers(handlers, eventWithVersion)
	return nil
}

// ReadEvents implements EventStore
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	if fromVersion < 1 {
		fromVersion = 1
	}

	if fromVersion > len(events) {
		return []Event{}, nil
	}

	return append([]Event(nil), events[fromVersion-1:]...), nil
}

// ReadAllEvents implements EventStore
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}

	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}

	return append([]Event(nil), s.allEvents[fromPosition:]...), nil
}

// CountByType returns how many events of a type a stream holds
func (s *InMemoryEventStore) CountByType(streamID, eventType string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	count := 0
	for _, event := range s.streams[streamID] {
		if event.Type() == eventType {
			count++
		}
	}
	return count
}

// Subscribe implements EventStore
func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

// Unsubscribe implements EventStore
func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := make([]EventHandler, 0, len(handlers))
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}

	return nil
}

func (s *InMemoryEventStore) notifySubscribers(handlers []EventHandler, event Event) {
	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(event); err != nil {
			s.logger.Error().
				Err(err).
				Str("event", event.Type()).
				Str("run_id", event.StreamID()).
				Msg("event handler failed")
		}
	}
}
