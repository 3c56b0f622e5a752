package syncctl

import (
	"sync"
	"time"
)

// Kind separates confirmations from failures.
type Kind int

const (
	KindSuccess Kind = iota
	KindError
)

func (k Kind) String() string {
	if k == KindError {
		return "error"
	}
	return "success"
}

// Notification is one user-facing message.
type Notification struct {
	Kind    Kind
	Message string
	At      time.Time
}

// Notifier presents messages to the user. Presentation (toasts, stderr lines)
// is up to the implementation.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Queue is a Notifier that hands notifications to an event loop through a
// channel. When the buffer is full the oldest notification is dropped.
type Queue struct {
	ch chan Notification
}

// NewQueue returns a queue holding up to size pending notifications.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Notification, size)}
}

// C returns the receive side of the queue.
func (q *Queue) C() <-chan Notification { return q.ch }

func (q *Queue) Success(message string) { q.push(Notification{Kind: KindSuccess, Message: message, At: time.Now()}) }

func (q *Queue) Error(message string) { q.push(Notification{Kind: KindError, Message: message, At: time.Now()}) }

func (q *Queue) push(n Notification) {
	for {
		select {
		case q.ch <- n:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Success(message string) { r.add(KindSuccess, message) }

func (r *Recorder) Error(message string) { r.add(KindError, message) }

func (r *Recorder) add(k Kind, message string) {
	r.mu.Lock()
	r.all = append(r.all, Notification{Kind: k, Message: message, At: time.Now()})
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}
