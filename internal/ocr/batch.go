package ocr

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/imaging"
	"github.com/ironsheep/focus-narrator/internal/logging"
)

// BatchConfig bounds the OCR work done in one perception cycle.
type BatchConfig struct {
	// Cap is the maximum number of regions recognized per Run.
	Cap int

	// Padding grows each region before cropping so glyphs touching the
	// detected border are not clipped.
	Padding int

	// MinWidth and MinHeight make smaller regions ineligible for OCR.
	MinWidth  int
	MinHeight int

	// UpscaleBelow and UpscaleFactor enlarge crops with a side shorter than
	// UpscaleBelow pixels.
	UpscaleBelow  int
	UpscaleFactor float64

	// Workers bounds concurrent ReadText calls.
	Workers int

	// MinTextLen is passed to JoinText.
	MinTextLen int
}

// DefaultBatchConfig returns the per-cycle defaults.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Cap:           8,
		Padding:       8,
		MinWidth:      20,
		MinHeight:     10,
		UpscaleBelow:  30,
		UpscaleFactor: 2,
		Workers:       2,
		MinTextLen:    DefaultMinTextLen,
	}
}

// BatchResult holds the outcome of one Run.
type BatchResult struct {
	// Texts has one entry per input region, in input order. Regions that
	// were ineligible, beyond the cap, or failed have "".
	Texts []string

	// Processed counts regions sent to the engine.
	Processed int

	// Deferred counts eligible regions left out because of the cap.
	Deferred int

	// Errors holds one entry per failed region.
	Errors []error
}

// BatchRunner recognizes text in many regions of one capture with bounded
// work per call.
type BatchRunner struct {
	engine Engine
	cfg    BatchConfig
	logger *zap.SugaredLogger
}

// NewBatchRunner returns a runner using engine. Zero-valued config fields
// fall back to DefaultBatchConfig.
func NewBatchRunner(engine Engine, cfg BatchConfig, logger *zap.SugaredLogger) *BatchRunner {
	def := DefaultBatchConfig()
	if cfg.Cap <= 0 {
		cfg.Cap = def.Cap
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.UpscaleFactor <= 0 {
		cfg.UpscaleFactor = def.UpscaleFactor
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = def.MinTextLen
	}
	return &BatchRunner{engine: engine, cfg: cfg, logger: logging.OrNop(logger)}
}

// Config returns the effective configuration.
func (b *BatchRunner) Config() BatchConfig {
	return b.cfg
}

// Eligible reports whether a region is large enough to be worth recognizing.
func (b *BatchRunner) Eligible(r element.Rect) bool {
	return r.Width() >= b.cfg.MinWidth && r.Height() >= b.cfg.MinHeight
}

// Job is one region to recognize together with its options.
type Job struct {
	Region  element.Rect
	Options Options
}

// Run recognizes the first Cap eligible regions of img with the same
// options. regions are in img's coordinate frame. boost enables the contrast
// boost used for code editors.
func (b *BatchRunner) Run(ctx context.Context, img image.Image, regions []element.Rect, opts Options, boost bool) BatchResult {
	jobs := make([]Job, len(regions))
	for i, r := range regions {
		jobs[i] = Job{Region: r, Options: opts}
	}
	return b.RunJobs(ctx, img, jobs, boost)
}

// RunJobs recognizes the first Cap eligible jobs of img. Texts are returned
// in job order.
//
// RunJobs never fails as a whole: per-region failures are collected in
// BatchResult.Errors and leave that region's text empty.
func (b *BatchRunner) RunJobs(ctx context.Context, img image.Image, jobs []Job, boost bool) BatchResult {
	res := BatchResult{Texts: make([]string, len(jobs))}
	if len(jobs) == 0 {
		return res
	}
	if b.engine == nil {
		res.Errors = append(res.Errors, ErrUnavailable)
		return res
	}

	var selected []int
	for i, j := range jobs {
		if !b.Eligible(j.Region) {
			continue
		}
		if len(selected) >= b.cfg.Cap {
			res.Deferred++
			continue
		}
		selected = append(selected, i)
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(b.cfg.Workers)

	for _, idx := range selected {
		idx := idx
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				res.Errors = append(res.Errors, err)
				mu.Unlock()
				return nil
			}
			job := jobs[idx]
			text, err := b.recognize(img, job.Region, job.Options, boost)
			mu.Lock()
			defer mu.Unlock()
			res.Processed++
			if err != nil {
				b.logger.Debugw("ocr failed for region", "region", job.Region.String(), "error", err)
				res.Errors = append(res.Errors, err)
				return nil
			}
			res.Texts[idx] = text
			return nil
		})
	}
	// Goroutines never return errors; failures are collected in res.
	_ = g.Wait()

	if res.Deferred > 0 {
		b.logger.Debugw("ocr batch cap reached", "cap", b.cfg.Cap, "deferred", res.Deferred)
	}
	return res
}

func (b *BatchRunner) recognize(img image.Image, r element.Rect, opts Options, boost bool) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("ocr panic: %v", p)
		}
	}()

	crop, _, err := imaging.PadCrop(img, image.Rect(r.X1, r.Y1, r.X2, r.Y2), b.cfg.Padding)
	if err != nil {
		return "", err
	}
	scaled, _ := imaging.UpscaleSmall(crop, b.cfg.UpscaleBelow, b.cfg.UpscaleFactor)
	prepared := imaging.PrepareForOCR(scaled, boost)

	words, err := b.engine.ReadText(prepared, opts)
	if err != nil {
		return "", errors.Wrapf(err, "region %s", r)
	}
	return JoinText(words, b.cfg.MinTextLen), nil
}
