package perception

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// ErrSourceUnavailable is returned by a Source that cannot run on this host,
// for example the accessibility tree outside a supported browser. Callers
// fall back to the next source.
var ErrSourceUnavailable = errors.New("perception source unavailable")

// Source produces candidate elements for a screen region.
//
// Every call re-runs detection; no iteration state is kept between calls. An
// empty slice with a nil error means nothing was found.
type Source interface {
	Name() string
	Detect(ctx context.Context, region element.Region) ([]*element.Element, error)
}

// Availability is implemented by sources that can tell cheaply whether they
// apply to the current foreground application.
type Availability interface {
	Available(ctx context.Context) bool
}

// Componented is implemented by sources whose failures are attributed to a
// recovery component other than their name.
type Componented interface {
	Component() string
}

// ComponentOf returns the recovery component name for src.
func ComponentOf(src Source) string {
	if c, ok := src.(Componented); ok {
		return c.Component()
	}
	return src.Name()
}

// IsAvailable reports whether src applies right now. Sources without an
// Available method always apply.
func IsAvailable(ctx context.Context, src Source) bool {
	if a, ok := src.(Availability); ok {
		return a.Available(ctx)
	}
	return true
}

// Capturer grabs screen pixels. The returned image's bounds are the region
// clipped to the screen, in absolute screen coordinates.
type Capturer interface {
	Capture(ctx context.Context, region element.Region) (image.Image, error)
}

// Reporter receives component failures.
type Reporter interface {
	RecordError(ctx context.Context, component string, err error) bool
}

// SuccessReporter is a Reporter that also counts completed work.
type SuccessReporter interface {
	Reporter
	RecordSuccess(component string)
}

// convert runs fn with panic isolation so one bad candidate cannot abort a
// whole detection pass.
func convert(fn func() (*element.Element, error)) (el *element.Element, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("candidate conversion panic: %v", p)
		}
	}()
	return fn()
}
