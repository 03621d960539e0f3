package streamtool

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Stream owns the unconsumed tail of one model output stream. Feed appends a
// chunk, extracts and dispatches every complete call, and returns the text
// to emit: plain prose plus rendered outcomes, in order. A Stream is a
// sequential pipeline; concurrent Feed calls on the same Stream are rejected
// with ErrStreamBusy. Independent Streams may share one Registry freely.
type Stream struct {
	reg  *Registry
	sc   scanner
	opts streamOptions

	busy   atomic.Bool
	closed bool

	buf      string
	recent   string
	failures int
	hist     *history
}

// New creates a Stream over the given registry.
func New(reg *Registry, opts ...StreamOption) *Stream {
	o := streamOptions{
		marker:        DefaultMarker,
		contextWindow: 3000,
		maxHistory:    256,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Stream{
		reg:  reg,
		sc:   scanner{marker: o.marker, isTool: reg.Has, isToolPrefix: reg.HasPrefix},
		opts: o,
		hist: newHistory(o.maxHistory),
	}
}

// Feed appends chunk to the pending buffer and processes it: every complete
// call found is normalized, dispatched, and spliced. The returned string is
// everything that became emittable during this feed — plain text segments
// and outcome renderings, concatenated in stream order. An incomplete call
// (or a tail that might still become a call marker) stays buffered for the
// next feed.
//
// Dispatch blocks the stream on purpose: text after a call may quote its
// result, and side-effect ordering requested by the model must hold, so
// scanning never resumes before the in-flight call's outcome is final.
func (s *Stream) Feed(ctx context.Context, chunk string) (string, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return "", ErrStreamBusy
	}
	defer s.busy.Store(false)
	if s.closed {
		return "", ErrStreamClosed
	}
	s.buf += chunk
	s.pushRecent(chunk)
	return s.drain(ctx), nil
}

// Close flushes whatever remains in the buffer verbatim as plain text. If
// the stream ended mid-call the flushed text is still returned, along with a
// MalformedCallError: the model's output ended before the call balanced and
// nothing can be salvaged, but nothing is silently discarded either.
func (s *Stream) Close(ctx context.Context) (string, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return "", ErrStreamBusy
	}
	defer s.busy.Store(false)
	if s.closed {
		return "", ErrStreamClosed
	}
	s.closed = true

	var out strings.Builder
	out.WriteString(s.drain(ctx))
	var err error
	if res := s.sc.scan(s.buf); res.kind == scanIncomplete {
		err = &MalformedCallError{
			Reason:  "stream ended mid-call",
			Context: s.recent,
		}
	}
	out.WriteString(s.buf)
	s.buf = ""
	return out.String(), err
}

// drain repeatedly scans the buffer for the longest prefix decomposable into
// {plain text}{one complete call}, splicing each outcome as it goes. Rendered
// outcomes go straight to the output and are never rescanned, so spliced
// text cannot re-trigger a call.
func (s *Stream) drain(ctx context.Context) string {
	var out strings.Builder
	for {
		res := s.sc.scan(s.buf)
		if res.kind != scanComplete {
			out.WriteString(s.buf[:res.safe])
			s.buf = strings.Clone(s.buf[res.safe:])
			return out.String()
		}
		out.WriteString(s.buf[:res.call.start])
		outcome := s.execute(ctx, res.call)
		out.WriteString(outcome.Render())
		s.buf = strings.Clone(s.buf[res.call.end:])
	}
}

// execute takes a fully scanned call through normalize → dispatch and
// records it. Every call that reaches this point yields exactly one Outcome,
// whatever its fate — this is the invariant that keeps results from being
// dropped, and it holds for every tool through this single path.
func (s *Stream) execute(ctx context.Context, rc rawCall) Outcome {
	call, err := normalize(rc)
	var outcome Outcome
	if err != nil {
		outcome = Outcome{
			CallID:  uuid.NewString(),
			Tool:    rc.name,
			Status:  StatusValidationError,
			Message: reasonOf(err),
		}
	} else {
		outcome = s.reg.Dispatch(ctx, call)
	}
	if outcome.Status == StatusSuccess {
		s.failures = 0
	} else {
		s.failures++
	}
	s.hist.add(Record{
		ID:      outcome.CallID,
		Time:    time.Now(),
		Tool:    outcome.Tool,
		Call:    call,
		Status:  outcome.Status,
		Content: outcome.Content,
		Message: outcome.Message,
	})
	return outcome
}

// History returns a copy of the recorded calls, oldest first.
func (s *Stream) History() []Record {
	return s.hist.snapshot()
}

// ConsecutiveFailures returns how many calls in a row have ended in a
// non-success status, for callers that want to break retry loops. Intended
// to be read between feeds by the goroutine driving the stream.
func (s *Stream) ConsecutiveFailures() int {
	return s.failures
}

// Reset clears all stream state (buffer, recent context, failure counter,
// history) and reopens a closed stream for reuse between sessions.
func (s *Stream) Reset() {
	if !s.busy.CompareAndSwap(false, true) {
		return
	}
	defer s.busy.Store(false)
	s.buf = ""
	s.recent = ""
	s.failures = 0
	s.closed = false
	s.hist.clear()
}

func (s *Stream) pushRecent(chunk string) {
	s.recent += chunk
	if len(s.recent) > s.opts.contextWindow {
		s.recent = s.recent[len(s.recent)-s.opts.contextWindow:]
	}
}
