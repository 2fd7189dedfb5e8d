package focus

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/focus-narrator/internal/describe"
	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/identity"
	"github.com/ironsheep/focus-narrator/internal/logging"
	"github.com/ironsheep/focus-narrator/internal/narration"
	"github.com/ironsheep/focus-narrator/internal/perception"
	"github.com/ironsheep/focus-narrator/internal/recovery"
)

// State is the controller's position in the per-tick state machine.
type State int

// Controller states.
const (
	Idle State = iota
	Scanning
	Evaluating
	Stable
	Announcing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Evaluating:
		return "evaluating"
	case Stable:
		return "stable"
	case Announcing:
		return "announcing"
	}
	return "unknown"
}

// Defaults for Config.
const (
	DefaultScanPadding      = 150
	DefaultCapturePadding   = 200
	DefaultPointerThreshold = 5
	DefaultDebounce         = 700 * time.Millisecond
	DefaultProbeDelay       = 150 * time.Millisecond
)

// Messages spoken when a command has nothing to act on.
const (
	MsgNoElements        = "No elements available"
	MsgNoSelection       = "No element selected"
	MsgNothingUnderPoint = "No element detected under the cursor"
)

// descKeyPrefix separates description entries from OCR text in the shared cache.
const descKeyPrefix = "desc:"

// Config tunes the controller.
type Config struct {
	ScanPadding      int
	CapturePadding   int
	PointerThreshold float64
	// Debounce coalesces repeated commands; zero disables coalescing.
	Debounce time.Duration
	// ProbeDelay separates the two frames of the tab frame diff; zero
	// captures both immediately.
	ProbeDelay  time.Duration
	HistorySize int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		ScanPadding:      DefaultScanPadding,
		CapturePadding:   DefaultCapturePadding,
		PointerThreshold: DefaultPointerThreshold,
		Debounce:         DefaultDebounce,
		ProbeDelay:       DefaultProbeDelay,
		HistorySize:      DefaultHistorySize,
	}
}

// FocusState is the loop-owned focus model.
type FocusState struct {
	Current    *element.Element
	Index      int
	Known      []*element.Element
	LastChange time.Time
}

// EventKind says why an element was spoken.
type EventKind int

// Event kinds.
const (
	EventFocusChange EventKind = iota
	EventNavigate
	EventProbe
	EventCapture
)

func (k EventKind) String() string {
	switch k {
	case EventFocusChange:
		return "focus_change"
	case EventNavigate:
		return "navigate"
	case EventProbe:
		return "probe"
	case EventCapture:
		return "capture"
	}
	return "unknown"
}

// Event is emitted whenever an element is announced.
type Event struct {
	Kind    EventKind
	Element *element.Element
	Text    string
	Source  string
}

// DescriptionCache stores generated descriptions per application context.
type DescriptionCache interface {
	Get(key, ctx string) (string, bool)
	Set(key, value, ctx string)
}

// FocusedProvider reports the host's keyboard-focused element.
type FocusedProvider interface {
	FocusedElement(ctx context.Context) (*element.Element, bool, error)
}

// RoleLister lists page elements for navigation and page summaries.
type RoleLister interface {
	All(ctx context.Context) ([]*element.Element, error)
	ByRole(ctx context.Context, roles ...string) ([]*element.Element, error)
}

// VisualProber is the visual source's focus-probe surface.
type VisualProber interface {
	perception.Source
	Capture(ctx context.Context, region element.Region) (image.Image, error)
	FocusHighlight(ctx context.Context, region element.Region) (*element.Element, bool, error)
	ChangedElement(ctx context.Context, before, after image.Image) (*element.Element, bool, error)
}

// Deps are the controller's collaborators.
type Deps struct {
	// Sources in priority order.
	Sources   []perception.Source
	Matcher   identity.Matcher
	Generator describe.Generator
	Sink      narration.Sink
	Cache     DescriptionCache
	Clock     clock.Clock
	Pointer   PointerTracker
	Reporter  perception.Reporter
	// Title returns the foreground window title.
	Title func() string
	// HealthCheck runs on health_check commands.
	HealthCheck func(ctx context.Context) error
	// OnEvent observes announcements.
	OnEvent func(Event)
}

// Snapshot is a copy of the controller status safe to read from any goroutine.
type Snapshot struct {
	State       string           `json:"state"`
	Current     *element.Element `json:"current,omitempty"`
	Description string           `json:"description,omitempty"`
	Index       int              `json:"index"`
	Known       int              `json:"known"`
	LastChange  time.Time        `json:"last_change"`
	Transitions int              `json:"transitions"`
}

// Controller fuses the perception sources into a single current element and
// announces changes.
//
// Tick and HandleCommand must be called from one goroutine, the polling
// loop. Snapshot and History may be called from anywhere.
type Controller struct {
	cfg    Config
	deps   Deps
	logger *zap.SugaredLogger

	coalescer *Coalescer
	history   *History

	state      State
	focus      FocusState
	lastAnchor element.Point
	hasAnchor  bool

	snapMu sync.RWMutex
	snap   Snapshot
}

// New returns a controller. Generator, Sink and Pointer are required.
func New(cfg Config, deps Deps, logger *zap.SugaredLogger) (*Controller, error) {
	if deps.Generator == nil {
		return nil, errors.New("focus controller requires a description generator")
	}
	if deps.Sink == nil {
		return nil, errors.New("focus controller requires a narration sink")
	}
	if deps.Pointer == nil {
		return nil, errors.New("focus controller requires a pointer tracker")
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Title == nil {
		deps.Title = func() string { return "" }
	}
	if cfg.ScanPadding <= 0 {
		cfg.ScanPadding = DefaultScanPadding
	}
	if cfg.CapturePadding <= 0 {
		cfg.CapturePadding = DefaultCapturePadding
	}
	c := &Controller{
		cfg:       cfg,
		deps:      deps,
		logger:    logging.OrNop(logger),
		coalescer: NewCoalescer(cfg.Debounce),
		history:   NewHistory(cfg.HistorySize),
		focus:     FocusState{Index: -1},
	}
	c.publish()
	return c, nil
}

// SetSources replaces the source list.
func (c *Controller) SetSources(sources []perception.Source) {
	c.deps.Sources = sources
}

// SetGenerator replaces the description generator.
func (c *Controller) SetGenerator(g describe.Generator) {
	if g != nil {
		c.deps.Generator = g
	}
}

// State returns the current machine state.
func (c *Controller) State() State { return c.state }

// Focus returns a copy of the focus model.
func (c *Controller) Focus() FocusState {
	f := c.focus
	f.Known = append([]*element.Element(nil), c.focus.Known...)
	return f
}

// History returns the recorded transitions, oldest first.
func (c *Controller) History() []Transition {
	return c.history.All()
}

// Snapshot returns the last published status.
func (c *Controller) Snapshot() Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

func (c *Controller) publish() {
	s := Snapshot{
		State:       c.state.String(),
		Index:       c.focus.Index,
		Known:       len(c.focus.Known),
		LastChange:  c.focus.LastChange,
		Transitions: c.history.Len(),
	}
	if cur := c.focus.Current; cur != nil {
		s.Current = cur.Clone()
		s.Description, _ = cur.Description()
	}
	c.snapMu.Lock()
	c.snap = s
	c.snapMu.Unlock()
}

func (c *Controller) setState(s State) {
	c.state = s
	c.publish()
}

// Tick runs one perception pass around the pointer and announces the
// selected element if it differs from the current one.
func (c *Controller) Tick(ctx context.Context) State {
	anchor := c.deps.Pointer.Position()
	if c.focus.Current != nil && c.hasAnchor && anchor.Distance(c.lastAnchor) <= c.cfg.PointerThreshold {
		c.setState(Idle)
		return c.state
	}
	c.lastAnchor, c.hasAnchor = anchor, true

	c.setState(Scanning)
	candidates, source := c.scan(ctx, element.Around(anchor, c.cfg.ScanPadding))
	if len(candidates) == 0 {
		c.setState(Idle)
		return c.state
	}

	c.setState(Evaluating)
	selected := Select(candidates, anchor)
	if c.deps.Matcher.Same(c.focus.Current, selected) {
		c.setState(Stable)
		return c.state
	}
	c.announce(ctx, selected, source, EventFocusChange)
	return c.state
}

// scan queries the sources in order and returns the first non-empty result.
func (c *Controller) scan(ctx context.Context, region element.Region) ([]*element.Element, string) {
	for _, src := range c.deps.Sources {
		if ctx.Err() != nil {
			return nil, ""
		}
		if !perception.IsAvailable(ctx, src) {
			continue
		}
		found, err := src.Detect(ctx, region)
		if err != nil {
			if !errors.Is(err, perception.ErrSourceUnavailable) && !errors.Is(err, context.Canceled) {
				c.logger.Debugw("source failed", "source", src.Name(), "error", err)
				c.report(ctx, perception.ComponentOf(src), err)
			}
			continue
		}
		c.succeed(perception.ComponentOf(src))
		if len(found) > 0 {
			return found, src.Name()
		}
	}
	return nil, ""
}

// Select picks the smallest candidate containing p, or else the one whose
// center is nearest to p. Ties go to the earlier candidate.
func Select(candidates []*element.Element, p element.Point) *element.Element {
	var best *element.Element
	for _, el := range candidates {
		if el == nil || !el.Bounds.Contains(p) {
			continue
		}
		if best == nil || el.Bounds.Area() < best.Bounds.Area() {
			best = el
		}
	}
	if best != nil {
		return best
	}
	bestDist := 0.0
	for _, el := range candidates {
		if el == nil {
			continue
		}
		d := el.Bounds.Center().Distance(p)
		if best == nil || d < bestDist {
			best, bestDist = el, d
		}
	}
	return best
}

// announce makes el current, records it in Known and speaks its description.
func (c *Controller) announce(ctx context.Context, el *element.Element, source string, kind EventKind) {
	el = c.classify(el)
	c.remember(el)
	c.focusOn(ctx, el, source, kind, true)
}

// focusOn makes el current and speaks it without touching Known.
func (c *Controller) focusOn(ctx context.Context, el *element.Element, source string, kind EventKind, interrupt bool) {
	text := c.describe(ctx, el)
	from := c.focus.Current
	c.focus.Current = el
	c.focus.LastChange = c.deps.Clock.Now()
	c.state = Announcing
	c.history.Add(Transition{From: from, To: el, Text: text, Source: source, At: c.focus.LastChange})
	c.publish()

	c.speak(ctx, text, interrupt)
	if c.deps.OnEvent != nil {
		c.deps.OnEvent(Event{Kind: kind, Element: el, Text: text, Source: source})
	}
}

// remember points Index at el, appending it to Known when no known element
// matches it.
func (c *Controller) remember(el *element.Element) {
	for i, k := range c.focus.Known {
		if k == el || c.deps.Matcher.Same(k, el) {
			c.focus.Index = i
			c.focus.Known[i] = el
			return
		}
	}
	c.focus.Known = append(c.focus.Known, el)
	c.focus.Index = len(c.focus.Known) - 1
}

// classify refines the element type with the generator. The returned element
// is a copy when the type changed.
func (c *Controller) classify(el *element.Element) (out *element.Element) {
	out = el
	defer func() {
		if p := recover(); p != nil {
			c.report(context.Background(), recovery.ComponentModel, errors.Errorf("classify panic: %v", p))
			out = el
		}
	}()
	t := c.deps.Generator.Classify(el)
	if t == el.Type || t == element.Unknown {
		return el
	}
	return el.Reclassify(t, describe.ClassifiedConfidence)
}

// describe returns the element description, computing and caching it once.
func (c *Controller) describe(ctx context.Context, el *element.Element) string {
	if desc, ok := el.Description(); ok {
		return desc
	}
	appCtx := describe.AppContext(c.deps.Title())
	key := descKeyPrefix + el.Bounds.Key() + "|" + el.Type.String() + "|" + el.Text
	if c.deps.Cache != nil {
		if desc, ok := c.deps.Cache.Get(key, appCtx); ok {
			el.SetDescription(desc)
			return desc
		}
	}
	desc, err := c.generate(el)
	if err != nil {
		c.report(ctx, recovery.ComponentModel, err)
		desc = el.Type.String()
		if el.Text != "" {
			desc += ": " + el.Text
		}
		el.SetDescription(desc)
		return desc
	}
	if c.deps.Cache != nil {
		c.deps.Cache.Set(key, desc, appCtx)
	}
	el.SetDescription(desc)
	return desc
}

func (c *Controller) generate(el *element.Element) (desc string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("describe panic: %v", p)
		}
	}()
	return c.deps.Generator.Describe(el), nil
}

func (c *Controller) speak(ctx context.Context, text string, interrupt bool) {
	err := c.deps.Sink.Speak(ctx, text, interrupt)
	switch {
	case err == nil:
		c.succeed(recovery.ComponentNarration)
	case !errors.Is(err, context.Canceled):
		c.logger.Warnw("speak failed", "error", err)
		c.report(ctx, recovery.ComponentNarration, err)
	}
}

func (c *Controller) succeed(component string) {
	if r, ok := c.deps.Reporter.(perception.SuccessReporter); ok {
		r.RecordSuccess(component)
	}
}

func (c *Controller) report(ctx context.Context, component string, err error) {
	if c.deps.Reporter != nil {
		c.deps.Reporter.RecordError(ctx, component, err)
	}
}

// focusedProvider returns the first available source exposing the focused element.
func (c *Controller) focusedProvider(ctx context.Context) FocusedProvider {
	for _, src := range c.deps.Sources {
		if fp, ok := src.(FocusedProvider); ok && perception.IsAvailable(ctx, src) {
			return fp
		}
	}
	return nil
}

func (c *Controller) roleLister(ctx context.Context) RoleLister {
	for _, src := range c.deps.Sources {
		if rl, ok := src.(RoleLister); ok && perception.IsAvailable(ctx, src) {
			return rl
		}
	}
	return nil
}

func (c *Controller) visual() VisualProber {
	for _, src := range c.deps.Sources {
		if vp, ok := src.(VisualProber); ok {
			return vp
		}
	}
	return nil
}
