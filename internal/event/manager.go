package event

import (
	"sync"

	"go.uber.org/zap"
)

type Manager interface {
	AddEventListener(eventType Type, callback func(e Event))
	EmitEvent(e Event)
	Emit(log Log)
}

type manager struct {
	mu        sync.RWMutex
	listeners []*listener
	backlog   int
}

// listener queues events without bound so emitters never wait on a slow callback.
type listener struct {
	eventType Type
	mu        sync.Mutex
	queue     []Event
	ready     chan struct{}
}

// NewManager returns a manager that delivers events to each listener in emission order
// on the listener's own goroutine. Emitting never blocks; a listener whose queue grows
// past backlog is reported as lagging.
func NewManager(backlog int) Manager {
	return &manager{listeners: make([]*listener, 0), backlog: backlog}
}

func (m *manager) AddEventListener(eventType Type, callback func(e Event)) {
	zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: AddListener")

	l := &listener{
		eventType: eventType,
		queue:     make([]Event, 0),
		ready:     make(chan struct{}, 1),
	}

	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()

	go l.run(callback)
}

func (m *manager) EmitEvent(e Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.listeners) == 0 {
		zap.L().Debug("EventManager: No event listeners available")
		return
	}

	for _, l := range m.listeners {
		if l.eventType == e.Type || l.eventType == AnyEvent {
			zap.L().With(zap.String("type", string(e.Type)), zap.String("id", e.Id)).Debug("EventManager: Emitting event")
			if pending := l.push(e); m.backlog > 0 && pending > m.backlog {
				zap.L().With(zap.String("listener", string(l.eventType)), zap.Int("pending", pending)).Warn("EventManager: Listener is lagging")
			}
		}
	}
}

func (l *listener) push(e Event) int {
	l.mu.Lock()
	l.queue = append(l.queue, e)
	pending := len(l.queue)
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}

	return pending
}

func (l *listener) run(callback func(e Event)) {
	for range l.ready {
		for {
			l.mu.Lock()
			batch := l.queue
			l.queue = make([]Event, 0)
			l.mu.Unlock()

			if len(batch) == 0 {
				break
			}
			for _, e := range batch {
				callback(e)
			}
		}
	}
}

func (m *manager) Emit(log Log) {
	for _, e := range log {
		m.EmitEvent(e)
	}
}
