package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/focus-narrator/internal/cache"
	"github.com/ironsheep/focus-narrator/internal/config"
	"github.com/ironsheep/focus-narrator/internal/describe"
	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/focus"
	"github.com/ironsheep/focus-narrator/internal/identity"
	"github.com/ironsheep/focus-narrator/internal/imaging"
	"github.com/ironsheep/focus-narrator/internal/logging"
	"github.com/ironsheep/focus-narrator/internal/narration"
	"github.com/ironsheep/focus-narrator/internal/ocr"
	"github.com/ironsheep/focus-narrator/internal/perception"
	"github.com/ironsheep/focus-narrator/internal/recovery"
)

// ErrStopped is returned by Run when called on a closed engine.
var ErrStopped = errors.New("engine stopped")

// Deps overrides how the engine builds its components. Zero fields use the
// production implementations selected by the configuration.
type Deps struct {
	Clock clock.Clock

	// Tree feeds the structured source. Nil reads General.TreeFile when set
	// and otherwise runs without a structured source.
	Tree perception.TreeProvider

	// Capturer feeds the visual source. Nil reads General.ScreenFile when
	// set and otherwise runs without a visual source.
	Capturer perception.Capturer

	// Frames caches decoded screenshots for the file capturer. Nil gets a
	// fresh cache.
	Frames *imaging.FrameCache

	// NewOCR builds the OCR engine, also on restart.
	NewOCR func() (ocr.Engine, error)

	// NewSink builds the narration sink, also on restart.
	NewSink func() (narration.Sink, error)

	// NewGenerator builds the description generator, also on restart.
	NewGenerator func() describe.Generator

	Memory recovery.MemoryProbe
}

// Engine owns every component of a running narrator and the polling loop
// that drives them.
type Engine struct {
	cfg    *config.Config
	deps   Deps
	logger *zap.SugaredLogger
	clock  clock.Clock

	cache      *cache.ContextCache
	frames     *imaging.FrameCache
	queue      *focus.Queue
	pointer    *focus.ManualPointer
	sink       *narration.Switch
	supervisor *recovery.Supervisor
	controller *focus.Controller

	structured *perception.StructuredSource
	visual     *perception.VisualSource

	ocrMu     sync.Mutex
	ocrEngine ocr.Engine

	scheduler gocron.Scheduler
	startOnce sync.Once

	stopped   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New builds an engine from cfg. The configuration is validated first.
func New(cfg *config.Config, deps Deps, logger *zap.SugaredLogger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}

	e := &Engine{
		cfg:     cfg,
		deps:    deps,
		logger:  logger,
		clock:   deps.Clock,
		cache:   cache.New(cfg.Cache.MaxSize),
		queue:   focus.NewQueue(cfg.Focus.QueueSize, deps.Clock),
		pointer: focus.NewManualPointer(element.Point{}),
	}
	e.fillDefaults()

	sink, err := e.deps.NewSink()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create narration sink")
	}
	e.sink = narration.NewSwitch(sink)
	e.supervisor = recovery.NewSupervisor(e.clock, cfg.Recovery.Cooldown, e.sink, logger.Named("recovery"))

	if e.deps.Tree != nil {
		e.structured = e.newStructured()
	}
	if err := e.buildVisual(); err != nil {
		return nil, multierr.Append(err, e.sink.Close())
	}

	e.controller, err = focus.New(focus.Config{
		ScanPadding:      cfg.General.ScanPadding,
		CapturePadding:   cfg.General.CapturePadding,
		PointerThreshold: cfg.General.PointerThreshold,
		Debounce:         cfg.Focus.Debounce,
		ProbeDelay:       cfg.Focus.ProbeDelay,
		HistorySize:      cfg.Focus.HistorySize,
	}, focus.Deps{
		Sources:     e.sources(),
		Matcher:     identity.NewMatcher(cfg.Identity.OverlapThreshold),
		Generator:   e.deps.NewGenerator(),
		Sink:        e.sink,
		Cache:       e.cache,
		Clock:       e.clock,
		Pointer:     e.pointer,
		Reporter:    e.supervisor,
		Title:       e.title,
		HealthCheck: e.healthCheck,
	}, logger.Named("focus"))
	if err != nil {
		return nil, multierr.Append(err, e.closeComponents())
	}

	e.registerRestarts()
	if err := e.newHealthJob(); err != nil {
		return nil, multierr.Append(err, e.closeComponents())
	}
	return e, nil
}

func (e *Engine) fillDefaults() {
	cfg := e.cfg
	if e.deps.Tree == nil && cfg.General.TreeFile != "" {
		e.deps.Tree = perception.NewSnapshotProvider(cfg.General.TreeFile)
	}
	if e.deps.Frames == nil {
		e.deps.Frames = imaging.NewFrameCache()
	}
	e.frames = e.deps.Frames
	if e.deps.Capturer == nil && cfg.General.ScreenFile != "" {
		e.deps.Capturer = imaging.NewFileCapturer(cfg.General.ScreenFile, e.frames)
	}
	if e.deps.NewOCR == nil {
		e.deps.NewOCR = func() (ocr.Engine, error) {
			return ocr.NewTesseract(ocr.TesseractConfig{
				Language:       cfg.Vision.Language,
				TessdataPrefix: cfg.Vision.TessdataPrefix,
				Workers:        cfg.Vision.Workers,
			})
		}
	}
	if e.deps.NewSink == nil {
		e.deps.NewSink = e.defaultSink
	}
	if e.deps.NewGenerator == nil {
		e.deps.NewGenerator = func() describe.Generator { return describe.NewHeuristic(e.title) }
	}
	if e.deps.Memory == nil {
		e.deps.Memory = recovery.VirtualMemory{}
	}
}

// defaultSink speaks through the configured command, or logs when no
// command is configured or it is not installed.
func (e *Engine) defaultSink() (narration.Sink, error) {
	logger := e.logger.Named("narration")
	if e.cfg.Speech.Command == "" {
		return narration.NewLogSink(logger), nil
	}
	sink, err := narration.NewExecSink(e.cfg.Speech.Command, e.cfg.Speech.Rate, logger)
	if err != nil {
		logger.Warnw("speech command unavailable, logging narration instead", "command", e.cfg.Speech.Command, "error", err)
		return narration.NewLogSink(logger), nil
	}
	return sink, nil
}

func (e *Engine) newStructured() *perception.StructuredSource {
	return perception.NewStructuredSource(e.deps.Tree, perception.StructuredConfig{
		MaxDepth: e.cfg.Accessibility.MaxDepth,
		MinSize:  e.cfg.Accessibility.MinSize,
	}, e.logger.Named("accessibility"))
}

// buildVisual creates the visual source and its OCR runner. A missing OCR
// engine is not fatal: elements are then detected without text.
func (e *Engine) buildVisual() error {
	if e.deps.Capturer == nil {
		return nil
	}
	runner, err := e.newOCRRunner()
	if err != nil {
		e.logger.Warnw("OCR unavailable, visual elements will have no text", "error", err)
	}

	vcfg := perception.DefaultVisualConfig()
	vcfg.Detection.MinArea = e.cfg.Vision.MinArea
	vcfg.UIOptions.MinConfidence = e.cfg.Vision.UIConfidence
	vcfg.ProseOptions.MinConfidence = e.cfg.Vision.ProseConfidence
	e.visual, err = perception.NewVisualSource(perception.VisualDeps{
		Capturer: e.deps.Capturer,
		OCR:      runner,
		Cache:    e.cache,
		Title:    e.title,
		Reporter: e.supervisor,
	}, vcfg, e.logger.Named("vision"))
	return err
}

// newOCRRunner replaces the OCR engine and returns a runner over it. The
// previous engine is closed.
func (e *Engine) newOCRRunner() (*ocr.BatchRunner, error) {
	eng, err := e.deps.NewOCR()
	if err != nil {
		return nil, err
	}
	e.ocrMu.Lock()
	old := e.ocrEngine
	e.ocrEngine = eng
	e.ocrMu.Unlock()
	if old != nil {
		if err := old.Close(); err != nil {
			e.logger.Debugw("closing previous OCR engine", "error", err)
		}
	}

	bcfg := ocr.DefaultBatchConfig()
	bcfg.Cap = e.cfg.Vision.BatchCap
	bcfg.Workers = e.cfg.Vision.Workers
	bcfg.Padding = e.cfg.Vision.OCRPadding
	return ocr.NewBatchRunner(eng, bcfg, e.logger.Named("ocr")), nil
}

// sources lists the perception sources in priority order.
func (e *Engine) sources() []perception.Source {
	var out []perception.Source
	if e.structured != nil {
		out = append(out, e.structured)
	}
	if e.visual != nil {
		out = append(out, e.visual)
	}
	return out
}

// title returns the configured application context, or else the foreground
// window title.
func (e *Engine) title() string {
	if e.cfg.General.AppContext != "" {
		return e.cfg.General.AppContext
	}
	if e.deps.Tree == nil {
		return ""
	}
	w, err := e.deps.Tree.Foreground(context.Background())
	if err != nil {
		return ""
	}
	return w.Title
}

// registerRestarts wires each recoverable component to a factory that
// replaces the failing instance.
func (e *Engine) registerRestarts() {
	th := e.cfg.Recovery.Thresholds
	e.supervisor.Register(recovery.ComponentNarration, th[recovery.ComponentNarration], func(context.Context) error {
		sink, err := e.deps.NewSink()
		if err != nil {
			return err
		}
		return e.sink.Swap(sink)
	})
	e.supervisor.Register(recovery.ComponentOCR, th[recovery.ComponentOCR], func(context.Context) error {
		if e.visual == nil {
			return nil
		}
		runner, err := e.newOCRRunner()
		if err != nil {
			return err
		}
		e.visual.SetOCR(runner)
		e.cache.Reset()
		return nil
	})
	e.supervisor.Register(recovery.ComponentModel, th[recovery.ComponentModel], func(context.Context) error {
		e.controller.SetGenerator(e.deps.NewGenerator())
		return nil
	})
	e.supervisor.Register(recovery.ComponentAccessibility, th[recovery.ComponentAccessibility], func(context.Context) error {
		if e.deps.Tree == nil {
			return nil
		}
		e.structured = e.newStructured()
		e.controller.SetSources(e.sources())
		return nil
	})
}

func (e *Engine) healthCheck(ctx context.Context) error {
	_, err := e.supervisor.HealthCheck(ctx, recovery.HealthChecker{
		Probe:     e.deps.Memory,
		HighWater: e.cfg.Recovery.MemoryHighWater,
		Cache:     resetAll{e.cache, e.frames},
	})
	return err
}

// resetAll empties several caches as one.
type resetAll []recovery.Resetter

func (r resetAll) Reset() {
	for _, c := range r {
		c.Reset()
	}
}

// Enqueue hands a command to the polling loop without blocking.
func (e *Engine) Enqueue(cmd focus.Command) bool {
	return e.queue.Enqueue(cmd)
}

// Queue returns the command queue.
func (e *Engine) Queue() *focus.Queue { return e.queue }

// Snapshot returns the controller status.
func (e *Engine) Snapshot() focus.Snapshot { return e.controller.Snapshot() }

// Controller returns the focus controller. It must only be driven from the
// polling loop.
func (e *Engine) Controller() *focus.Controller { return e.controller }

// Supervisor returns the recovery supervisor.
func (e *Engine) Supervisor() *recovery.Supervisor { return e.supervisor }

// Cache returns the shared context cache.
func (e *Engine) Cache() *cache.ContextCache { return e.cache }

// Frames returns the decoded screenshot cache.
func (e *Engine) Frames() *imaging.FrameCache { return e.frames }

// Visual returns the visual source, or nil when none is configured.
func (e *Engine) Visual() *perception.VisualSource { return e.visual }

// History returns the recent focus transitions.
func (e *Engine) History() []focus.Transition { return e.controller.History() }

// Pending returns the number of queued commands.
func (e *Engine) Pending() int { return e.queue.Len() }

// Dropped returns how many commands were lost to a full queue.
func (e *Engine) Dropped() int64 { return e.queue.Dropped() }

// RecoveryStatus returns the supervisor counters per component.
func (e *Engine) RecoveryStatus() []recovery.Status { return e.supervisor.Status() }
