package perception

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/focus-narrator/internal/describe"
	"github.com/ironsheep/focus-narrator/internal/detection"
	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/imaging"
	"github.com/ironsheep/focus-narrator/internal/logging"
	"github.com/ironsheep/focus-narrator/internal/ocr"
	"github.com/ironsheep/focus-narrator/internal/recovery"
)

// VisionConfidence is the confidence of elements found in pixels.
const VisionConfidence = 0.6

// ocrKeyPrefix separates OCR text from descriptions in the shared cache.
const ocrKeyPrefix = "ocr:"

// TextCache stores recognized text per region key and app context.
type TextCache interface {
	Get(key, ctx string) (string, bool)
	Set(key, value, ctx string)
}

// VisualConfig tunes the visual source.
type VisualConfig struct {
	Detection detection.Config

	// Confidence is assigned to every vision element.
	Confidence float64

	// UIOptions apply to controls, ProseOptions to paragraphs.
	UIOptions    ocr.Options
	ProseOptions ocr.Options
}

// DefaultVisualConfig returns the defaults.
func DefaultVisualConfig() VisualConfig {
	return VisualConfig{
		Detection:    detection.DefaultConfig(),
		Confidence:   VisionConfidence,
		UIOptions:    ocr.UIOptions(),
		ProseOptions: ocr.ProseOptions(),
	}
}

// VisualDeps are the collaborators of a VisualSource.
type VisualDeps struct {
	Capturer Capturer

	// OCR may be nil; elements then carry no text.
	OCR *ocr.BatchRunner

	// Cache may be nil.
	Cache TextCache

	// Title returns the foreground window title. May be nil.
	Title func() string

	// Reporter receives OCR failures. May be nil.
	Reporter Reporter
}

// VisualSource finds elements in screen captures: edge detection, dilation,
// contours and size classification, followed by batched OCR of the
// surviving regions.
type VisualSource struct {
	deps   VisualDeps
	cfg    VisualConfig
	logger *zap.SugaredLogger

	mu  sync.RWMutex
	ocr *ocr.BatchRunner
}

// NewVisualSource returns a visual source. Capturer is required.
func NewVisualSource(deps VisualDeps, cfg VisualConfig, logger *zap.SugaredLogger) (*VisualSource, error) {
	if deps.Capturer == nil {
		return nil, errors.New("visual source needs a capturer")
	}
	if cfg.Confidence <= 0 {
		cfg.Confidence = VisionConfidence
	}
	if cfg.Detection == (detection.Config{}) {
		cfg.Detection = detection.DefaultConfig()
	}
	return &VisualSource{deps: deps, cfg: cfg, logger: logging.OrNop(logger), ocr: deps.OCR}, nil
}

// Name implements Source.
func (v *VisualSource) Name() string { return "vision" }

// Component implements Componented.
func (v *VisualSource) Component() string { return recovery.ComponentOCR }

// SetOCR replaces the OCR runner, used when the OCR component restarts.
func (v *VisualSource) SetOCR(runner *ocr.BatchRunner) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ocr = runner
}

func (v *VisualSource) runner() *ocr.BatchRunner {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ocr
}

func (v *VisualSource) title() string {
	if v.deps.Title == nil {
		return ""
	}
	return v.deps.Title()
}

// Capture grabs region. A region entirely off screen yields (nil, nil).
func (v *VisualSource) Capture(ctx context.Context, region element.Region) (image.Image, error) {
	img, err := v.deps.Capturer.Capture(ctx, region)
	if errors.Is(err, imaging.ErrOutsideScreen) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to capture %s", region)
	}
	return img, nil
}

// Detect implements Source.
func (v *VisualSource) Detect(ctx context.Context, region element.Region) ([]*element.Element, error) {
	img, err := v.Capture(ctx, region)
	if err != nil || img == nil {
		return nil, err
	}
	return v.DetectIn(ctx, img)
}

// DetectIn runs detection over an already captured image whose bounds are
// in screen coordinates.
func (v *VisualSource) DetectIn(ctx context.Context, img image.Image) ([]*element.Element, error) {
	cands := detection.DetectCandidates(img, v.cfg.Detection)
	if len(cands) == 0 {
		return nil, nil
	}

	rects := make([]element.Rect, len(cands))
	types := make([]element.Type, len(cands))
	for i, c := range cands {
		rects[i], types[i] = c.Bounds, c.Type
	}
	texts := v.readTexts(ctx, img, rects, types)

	out := make([]*element.Element, 0, len(cands))
	for i, c := range cands {
		c, text := c, texts[i]
		el, err := convert(func() (*element.Element, error) {
			return element.New(c.Type, c.Bounds, text, v.cfg.Confidence, element.SourceVision)
		})
		if err != nil {
			v.logger.Debugw("skipping candidate", "bounds", c.Bounds.String(), "error", err)
			continue
		}
		out = append(out, el)
	}
	return out, nil
}

// ReadRegion recognizes the text of a single region of img.
func (v *VisualSource) ReadRegion(ctx context.Context, img image.Image, r element.Rect, t element.Type) string {
	return v.readTexts(ctx, img, []element.Rect{r}, []element.Type{t})[0]
}

// readTexts returns one text per rect. Cached texts are reused; the rest go
// through one OCR batch and are cached when non-empty.
func (v *VisualSource) readTexts(ctx context.Context, img image.Image, rects []element.Rect, types []element.Type) []string {
	texts := make([]string, len(rects))
	runner := v.runner()

	title := v.title()
	appCtx := describe.AppContext(title)
	code := describe.IsCodeEditor(title)

	var jobs []ocr.Job
	var jobIdx []int
	for i, r := range rects {
		if v.deps.Cache != nil {
			if text, ok := v.deps.Cache.Get(ocrKeyPrefix+r.Key(), appCtx); ok {
				texts[i] = text
				continue
			}
		}
		jobs = append(jobs, ocr.Job{Region: r, Options: v.options(types[i], code)})
		jobIdx = append(jobIdx, i)
	}
	if len(jobs) == 0 {
		return texts
	}
	if runner == nil {
		v.report(ctx, []error{ocr.ErrUnavailable})
		return texts
	}

	res := runner.RunJobs(ctx, img, jobs, code)
	for k, idx := range jobIdx {
		text := res.Texts[k]
		texts[idx] = text
		if text != "" && v.deps.Cache != nil {
			v.deps.Cache.Set(ocrKeyPrefix+rects[idx].Key(), text, appCtx)
		}
	}
	v.report(ctx, res.Errors)
	return texts
}

func (v *VisualSource) options(t element.Type, code bool) ocr.Options {
	switch {
	case code:
		opts := v.cfg.UIOptions
		opts.AllowList = ocr.CodeAllowList
		return opts
	case t == element.Paragraph:
		return v.cfg.ProseOptions
	default:
		return v.cfg.UIOptions
	}
}

// report forwards OCR failures as one error per batch. Cancellation is not a
// failure.
func (v *VisualSource) report(ctx context.Context, errs []error) {
	var failures []error
	for _, err := range errs {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			continue
		}
		failures = append(failures, err)
	}
	if len(failures) == 0 || v.deps.Reporter == nil {
		return
	}
	v.deps.Reporter.RecordError(ctx, recovery.ComponentOCR, multierr.Combine(failures...))
}
