// Package observable provides a small synchronous event emitter. Services
// announce changes on it and the realtime bridge fans them out to sockets.
package observable

import "sync"

// Wildcard listeners receive every event regardless of its type.
const Wildcard = "*"

// Event is a typed notification with an arbitrary payload.
type Event struct {
	Type string
	Data any
}

// Listener is called synchronously for every matching event.
type Listener func(Event)

// Subscription identifies one registration. It is returned by
// AddEventListener and used to remove exactly that registration.
type Subscription struct {
	eventType string
	id        uint64
}

type registration struct {
	id       uint64
	listener Listener
}

// Observable keeps listeners per event type. The zero value is ready to use.
type Observable struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]registration
}

// New returns an empty Observable.
func New() *Observable {
	return &Observable{}
}

// AddEventListener registers listener for eventType. Registering the same
// function twice results in two calls per event.
func (o *Observable) AddEventListener(eventType string, listener Listener) Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.listeners == nil {
		o.listeners = make(map[string][]registration)
	}
	o.nextID++
	o.listeners[eventType] = append(o.listeners[eventType], registration{id: o.nextID, listener: listener})

	return Subscription{eventType: eventType, id: o.nextID}
}

// RemoveEventListener removes the registration behind sub. Unknown or
// already removed subscriptions are ignored.
func (o *Observable) RemoveEventListener(sub Subscription) {
	o.mu.Lock()
	defer o.mu.Unlock()

	regs := o.listeners[sub.eventType]
	for i, reg := range regs {
		if reg.id != sub.id {
			continue
		}
		// copy so snapshots handed to an in-flight NotifyAll stay intact
		next := make([]registration, 0, len(regs)-1)
		next = append(next, regs[:i]...)
		next = append(next, regs[i+1:]...)
		if len(next) == 0 {
			delete(o.listeners, sub.eventType)
		} else {
			o.listeners[sub.eventType] = next
		}
		return
	}
}

// NotifyAll dispatches event to the listeners of its type and then to the
// wildcard listeners, in registration order. Listeners run on the caller's
// goroutine and outside the lock, so they may add or remove listeners; such
// changes take effect from the next NotifyAll.
func (o *Observable) NotifyAll(event Event) {
	for _, reg := range o.snapshot(event.Type) {
		reg.listener(event)
	}
}

// HasListeners reports whether anything would receive an event of eventType.
func (o *Observable) HasListeners(eventType string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.listeners[eventType]) > 0 || len(o.listeners[Wildcard]) > 0
}

// Len returns the total number of registrations.
func (o *Observable) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := 0
	for _, regs := range o.listeners {
		n += len(regs)
	}
	return n
}

func (o *Observable) snapshot(eventType string) []registration {
	o.mu.Lock()
	defer o.mu.Unlock()

	typed := o.listeners[eventType]
	var wildcard []registration
	if eventType != Wildcard {
		wildcard = o.listeners[Wildcard]
	}

	out := make([]registration, 0, len(typed)+len(wildcard))
	out = append(out, typed...)
	return append(out, wildcard...)
}
