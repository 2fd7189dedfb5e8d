package focus

import (
	"context"
	"image"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/ironsheep/focus-narrator/internal/cache"
	"github.com/ironsheep/focus-narrator/internal/describe"
	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/identity"
	"github.com/ironsheep/focus-narrator/internal/narration"
	"github.com/ironsheep/focus-narrator/internal/perception"
)

type fakeSource struct {
	name        string
	component   string
	els         []*element.Element
	err         error
	unavailable bool
	calls       int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Component() string {
	if f.component != "" {
		return f.component
	}
	return f.name
}

func (f *fakeSource) Available(context.Context) bool { return !f.unavailable }

func (f *fakeSource) Detect(context.Context, element.Region) ([]*element.Element, error) {
	f.calls++
	return f.els, f.err
}

// fakeTree answers focused-element and role queries like the accessibility source.
type fakeTree struct {
	fakeSource
	focused    *element.Element
	focusErr   error
	focusCalls int
	roles      map[string][]*element.Element
}

func (f *fakeTree) FocusedElement(context.Context) (*element.Element, bool, error) {
	f.focusCalls++
	return f.focused, f.focused != nil, f.focusErr
}

func (f *fakeTree) All(context.Context) ([]*element.Element, error) {
	var out []*element.Element
	for _, els := range f.roles {
		out = append(out, els...)
	}
	return out, nil
}

func (f *fakeTree) ByRole(_ context.Context, roles ...string) ([]*element.Element, error) {
	var out []*element.Element
	for _, r := range roles {
		out = append(out, f.roles[r]...)
	}
	return out, nil
}

// fakeVision plays back frames and probe results like the visual source.
type fakeVision struct {
	fakeSource
	highlight *element.Element
	frames    []image.Image
	captures  int
	changed   *element.Element
}

func (f *fakeVision) Capture(context.Context, element.Region) (image.Image, error) {
	if len(f.frames) == 0 {
		return nil, nil
	}
	img := f.frames[min(f.captures, len(f.frames)-1)]
	f.captures++
	return img, nil
}

func (f *fakeVision) FocusHighlight(context.Context, element.Region) (*element.Element, bool, error) {
	return f.highlight, f.highlight != nil, nil
}

func (f *fakeVision) ChangedElement(_ context.Context, before, after image.Image) (*element.Element, bool, error) {
	if f.changed == nil || before == after {
		return nil, false, nil
	}
	return f.changed, true, nil
}

type errorLog struct {
	mu        sync.Mutex
	calls     map[string]int
	successes map[string]int
}

func (l *errorLog) RecordSuccess(component string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.successes == nil {
		l.successes = make(map[string]int)
	}
	l.successes[component]++
}

func (l *errorLog) succeeded(component string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.successes[component]
}

func (l *errorLog) RecordError(_ context.Context, component string, _ error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]int)
	}
	l.calls[component]++
	return false
}

func (l *errorLog) count(component string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[component]
}

// countingGenerator wraps the heuristic generator and counts Describe calls.
type countingGenerator struct {
	describe.Generator
	describes int
	panics    bool
}

func (g *countingGenerator) Describe(el *element.Element) string {
	g.describes++
	if g.panics {
		panic("model crashed")
	}
	return g.Generator.Describe(el)
}

type fixture struct {
	ctrl    *Controller
	sink    *narration.Recorder
	pointer *ManualPointer
	clock   *clock.Mock
	cache   *cache.ContextCache
	errors  *errorLog
	gen     *countingGenerator
	events  []Event
}

func newFixture(t *testing.T, cfg Config, sources ...perception.Source) *fixture {
	t.Helper()
	f := &fixture{
		sink:    &narration.Recorder{},
		pointer: NewManualPointer(element.Point{X: 100, Y: 100}),
		clock:   clock.NewMock(),
		cache:   cache.New(0),
		errors:  &errorLog{},
		gen:     &countingGenerator{Generator: describe.NewHeuristic(nil)},
	}
	ctrl, err := New(cfg, Deps{
		Sources:   sources,
		Matcher:   identity.NewMatcher(identity.DefaultThreshold),
		Generator: f.gen,
		Sink:      f.sink,
		Cache:     f.cache,
		Clock:     f.clock,
		Pointer:   f.pointer,
		Reporter:  f.errors,
		OnEvent:   func(e Event) { f.events = append(f.events, e) },
	}, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)
	f.ctrl = ctrl
	return f
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ProbeDelay = 0
	return cfg
}

func button(x1, y1, x2, y2 int, text string) *element.Element {
	return element.MustNew(element.Button, element.R(x1, y1, x2, y2), text, 0.9, element.SourceVision)
}
