package streamtool

import (
	"sync"
	"time"
)

// Record is one entry in a stream's call history.
type Record struct {
	ID      string
	Time    time.Time
	Tool    string
	Call    StructuredCall
	Status  Status
	Content string
	Message string
}

// history is a bounded ring of call records. Bounded because a long-lived
// agent session can dispatch thousands of calls; callers that need full
// persistence should use the after-dispatch hook instead.
type history struct {
	mu    sync.Mutex
	max   int
	buf   []Record
	next  int
	count int
}

func newHistory(max int) *history {
	h := &history{max: max}
	if max > 0 {
		h.buf = make([]Record, max)
	}
	return h
}

func (h *history) add(r Record) {
	if h.max <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = r
	h.next = (h.next + 1) % h.max
	if h.count < h.max {
		h.count++
	}
}

// snapshot returns a copy, oldest first.
func (h *history) snapshot() []Record {
	if h.max <= 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, 0, h.count)
	start := h.next - h.count
	if start < 0 {
		start += h.max
	}
	for i := 0; i < h.count; i++ {
		out = append(out, h.buf[(start+i)%h.max])
	}
	return out
}

func (h *history) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next = 0
	h.count = 0
}
