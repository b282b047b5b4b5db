package notice

import (
	"sync"
	"time"
)

const DefaultDuration = 2 * time.Second

type Notice struct {
	ID       uint64        `json:"id"`
	Text     string        `json:"text"`
	Duration time.Duration `json:"duration"`
	ShownAt  time.Time     `json:"shown_at"`
}

type Kind string

const (
	Opened Kind = "notice.open"
	Closed Kind = "notice.close"
)

// PublishFunc receives every open and close.
type PublishFunc func(kind Kind, n Notice)

// Notifier shows at most one notice at a time. Showing a new notice cancels
// the pending auto-close of the previous one.
type Notifier struct {
	duration time.Duration
	publish  PublishFunc

	mu      sync.Mutex
	seq     uint64
	current *Notice
	timer   *time.Timer
}

func New(duration time.Duration, publish PublishFunc) *Notifier {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if publish == nil {
		publish = func(Kind, Notice) {}
	}
	return &Notifier{duration: duration, publish: publish}
}

func (n *Notifier) Show(text string) Notice {
	return n.ShowFor(text, n.duration)
}

func (n *Notifier) ShowFor(text string, d time.Duration) Notice {
	if d <= 0 {
		d = n.duration
	}

	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.seq++
	msg := Notice{ID: n.seq, Text: text, Duration: d, ShownAt: time.Now()}
	n.current = &msg
	id := msg.ID
	n.timer = time.AfterFunc(d, func() { n.expire(id) })
	n.mu.Unlock()

	n.publish(Opened, msg)
	return msg
}

func (n *Notifier) expire(id uint64) {
	n.mu.Lock()
	if n.current == nil || n.current.ID != id {
		n.mu.Unlock()
		return
	}
	msg := *n.current
	n.current = nil
	n.timer = nil
	n.mu.Unlock()

	n.publish(Closed, msg)
}

func (n *Notifier) Current() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notice{}, false
	}
	return *n.current, true
}

// Close hides the current notice immediately.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	msg := n.current
	n.current = nil
	n.mu.Unlock()

	if msg != nil {
		n.publish(Closed, *msg)
	}
}
