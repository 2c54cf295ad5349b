package progress

import "sync"

// Feed is a Reporter that broadcasts to subscribers. New subscribers first
// receive the full history, so a browser that connects mid-run still sees
// every event. Slow subscribers drop events rather than stall the run.
type Feed struct {
	mu      sync.Mutex
	history []Event
	subs    map[chan Event]struct{}
	closed  bool
	buffer  int
}

// NewFeed creates a feed whose subscriber channels hold buffer events.
func NewFeed(buffer int) *Feed {
	if buffer <= 0 {
		buffer = 256
	}
	return &Feed{subs: make(map[chan Event]struct{}), buffer: buffer}
}

// Report records e and delivers it to every subscriber.
func (f *Feed) Report(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.history = append(f.history, e)
	for ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel that yields the history followed by live
// events, and a cancel func. The channel is closed when the feed closes or
// cancel is called.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, len(f.history)+f.buffer)
	for _, e := range f.history {
		ch <- e
	}
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	f.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if _, ok := f.subs[ch]; ok {
				delete(f.subs, ch)
				close(ch)
			}
		})
	}
}

// Close ends the feed and closes all subscriber channels.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for ch := range f.subs {
		close(ch)
		delete(f.subs, ch)
	}
}

// History returns a copy of every event reported so far.
func (f *Feed) History() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.history))
	copy(out, f.history)
	return out
}
