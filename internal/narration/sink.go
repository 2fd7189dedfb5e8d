package narration

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/focus-narrator/internal/logging"
)

// ErrClosed is returned by Speak after Close.
var ErrClosed = errors.New("narration sink closed")

// Sink speaks text to the user.
//
// At most one utterance is meaningful at a time: interrupt=true cancels
// whatever is being spoken before starting text.
type Sink interface {
	Speak(ctx context.Context, text string, interrupt bool) error
	Close() error
}

// Silencer is implemented by sinks that can stop speech without closing.
type Silencer interface {
	Silence() error
}

// Silence stops any in-flight speech on s when it supports it.
func Silence(s Sink) error {
	if sil, ok := s.(Silencer); ok {
		return sil.Silence()
	}
	return nil
}

// LogSink writes utterances to a logger. It is used when no speech command
// is configured and in headless runs.
type LogSink struct {
	logger *zap.SugaredLogger
}

// NewLogSink returns a sink logging at info level.
func NewLogSink(logger *zap.SugaredLogger) *LogSink {
	return &LogSink{logger: logging.OrNop(logger)}
}

// Speak implements Sink.
func (s *LogSink) Speak(_ context.Context, text string, interrupt bool) error {
	s.logger.Infow("speak", "text", text, "interrupt", interrupt)
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error { return nil }

// Utterance is one recorded Speak call.
type Utterance struct {
	Text      string
	Interrupt bool
}

// Recorder is a Sink that remembers everything it is asked to say.
type Recorder struct {
	mu         sync.Mutex
	utterances []Utterance
	silenced   int
	closed     bool

	// Err, when set, is returned by every Speak call.
	Err error
}

// Speak implements Sink.
func (r *Recorder) Speak(_ context.Context, text string, interrupt bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.Err != nil {
		return r.Err
	}
	r.utterances = append(r.utterances, Utterance{Text: text, Interrupt: interrupt})
	return nil
}

// Silence implements Silencer.
func (r *Recorder) Silence() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.silenced++
	return nil
}

// Close implements Sink.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Utterances returns a copy of what was spoken.
func (r *Recorder) Utterances() []Utterance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Utterance(nil), r.utterances...)
}

// Texts returns the spoken texts in order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.utterances))
	for i, u := range r.utterances {
		out[i] = u.Text
	}
	return out
}

// Silenced reports how many times Silence was called.
func (r *Recorder) Silenced() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.silenced
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Switch forwards to a replaceable Sink. Components hold the Switch, so a
// restarted sink takes effect everywhere at once.
type Switch struct {
	mu      sync.RWMutex
	current Sink
}

// NewSwitch returns a Switch forwarding to s.
func NewSwitch(s Sink) *Switch {
	return &Switch{current: s}
}

// Swap installs next and closes the previous sink.
func (w *Switch) Swap(next Sink) error {
	w.mu.Lock()
	prev := w.current
	w.current = next
	w.mu.Unlock()
	if prev == nil || prev == next {
		return nil
	}
	return errors.Wrap(prev.Close(), "failed to close replaced sink")
}

// Current returns the sink in use.
func (w *Switch) Current() Sink {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Speak implements Sink.
func (w *Switch) Speak(ctx context.Context, text string, interrupt bool) error {
	s := w.Current()
	if s == nil {
		return ErrClosed
	}
	return s.Speak(ctx, text, interrupt)
}

// Silence implements Silencer.
func (w *Switch) Silence() error {
	if s := w.Current(); s != nil {
		return Silence(s)
	}
	return nil
}

// Close silences and closes the current sink.
func (w *Switch) Close() error {
	w.mu.Lock()
	s := w.current
	w.current = nil
	w.mu.Unlock()
	if s == nil {
		return nil
	}
	return multierr.Combine(Silence(s), s.Close())
}
