package focus

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/perception"
)

// navGroup maps a navigate_* command onto accessibility roles and the
// element types used when no tree is available.
type navGroup struct {
	label string
	roles []string
	types []element.Type
}

var navGroups = map[CommandKind]navGroup{
	CmdNavigateHeadings: {label: "headings", roles: []string{"heading"}, types: []element.Type{element.Heading}},
	CmdNavigateLinks:    {label: "links", roles: []string{"link"}, types: []element.Type{element.Link}},
	CmdNavigateRegions:  {label: "regions", roles: []string{"region", "landmark", "main", "navigation"}},
	CmdNavigateForms: {
		label: "form fields",
		roles: []string{"textbox", "button", "checkbox", "radio", "combobox"},
		types: []element.Type{element.TextField, element.Button, element.Checkbox, element.Radio, element.Dropdown},
	},
	CmdNavigateTables: {label: "tables", roles: []string{"table"}},
}

// HandleCommand evaluates one command. Repeats inside the debounce window
// are dropped.
func (c *Controller) HandleCommand(ctx context.Context, cmd Command) {
	if !c.coalescer.Allow(cmd) {
		c.logger.Debugw("command coalesced", "command", cmd.Kind.String())
		return
	}
	defer c.publish()

	switch cmd.Kind {
	case CmdNext:
		c.step(ctx, 1)
	case CmdPrev:
		c.step(ctx, -1)
	case CmdReadCurrent:
		c.readCurrent(ctx)
	case CmdReadAll:
		c.readAll(ctx)
	case CmdCaptureAtCursor:
		c.captureAtCursor(ctx)
	case CmdTabPressed:
		c.probeFocus(ctx)
	case CmdNavigateHeadings, CmdNavigateLinks, CmdNavigateRegions, CmdNavigateForms, CmdNavigateTables:
		c.navigate(ctx, navGroups[cmd.Kind])
	case CmdPageInfo:
		c.pageInfo(ctx)
	case CmdPointerMoved:
		if p, ok := c.deps.Pointer.(*ManualPointer); ok {
			p.Set(cmd.Point)
		}
	case CmdHealthCheck:
		if c.deps.HealthCheck != nil {
			if err := c.deps.HealthCheck(ctx); err != nil {
				c.logger.Warnw("health check failed", "error", err)
			}
		}
	default:
		c.logger.Warnw("unhandled command", "command", int(cmd.Kind))
	}
}

// step moves circularly through Known and announces the new current element.
func (c *Controller) step(ctx context.Context, delta int) {
	n := len(c.focus.Known)
	if n == 0 {
		c.speak(ctx, MsgNoElements, true)
		return
	}
	idx := c.focus.Index
	if idx < 0 {
		idx = 0
		if delta < 0 {
			idx = n - 1
		}
	} else {
		idx = ((idx+delta)%n + n) % n
	}
	c.focus.Index = idx
	c.focusOn(ctx, c.focus.Known[idx], "navigation", EventNavigate, true)
}

func (c *Controller) readCurrent(ctx context.Context) {
	if c.focus.Current == nil {
		c.speak(ctx, MsgNoSelection, true)
		return
	}
	c.speak(ctx, c.describe(ctx, c.focus.Current), true)
}

func (c *Controller) readAll(ctx context.Context) {
	if len(c.focus.Known) == 0 {
		c.speak(ctx, MsgNoElements, true)
		return
	}
	texts := lo.Map(c.focus.Known, func(el *element.Element, _ int) string {
		return c.describe(ctx, el)
	})
	c.speak(ctx, strings.Join(texts, ". "), true)
}

// captureAtCursor forces a visual pass around the pointer and announces the
// element under it.
func (c *Controller) captureAtCursor(ctx context.Context) {
	vis := c.visual()
	if vis == nil {
		c.speak(ctx, MsgNothingUnderPoint, true)
		return
	}
	anchor := c.deps.Pointer.Position()
	found, err := vis.Detect(ctx, element.Around(anchor, c.cfg.CapturePadding))
	if err != nil && !errors.Is(err, perception.ErrSourceUnavailable) {
		c.report(ctx, perception.ComponentOf(vis), err)
	}
	under := lo.Filter(found, func(el *element.Element, _ int) bool {
		return el != nil && el.Bounds.Contains(anchor)
	})
	if len(under) == 0 {
		c.speak(ctx, MsgNothingUnderPoint, true)
		return
	}
	el := c.classify(Select(under, anchor))
	c.focus.Known = append(c.focus.Known, el)
	c.focus.Index = len(c.focus.Known) - 1
	c.focusOn(ctx, el, vis.Name(), EventCapture, true)
}

// probeFocus finds the element that received keyboard focus after a tab
// press. The accessibility tree is asked first, then the screen is searched
// for a focus ring, and finally two frames are compared.
func (c *Controller) probeFocus(ctx context.Context) {
	if fp := c.focusedProvider(ctx); fp != nil {
		el, ok, err := fp.FocusedElement(ctx)
		switch {
		case err != nil && !errors.Is(err, perception.ErrSourceUnavailable):
			if src, isSrc := fp.(perception.Source); isSrc {
				c.report(ctx, perception.ComponentOf(src), err)
			}
		case ok:
			c.probeFound(ctx, el, element.SourceTabFocused)
			return
		}
	}

	vis := c.visual()
	if vis == nil {
		c.logger.Debug("focus probe found nothing")
		return
	}
	region := element.Around(c.deps.Pointer.Position(), c.cfg.CapturePadding)
	el, ok, err := vis.FocusHighlight(ctx, region)
	if err != nil {
		c.logger.Debugw("focus highlight probe failed", "error", err)
	}
	if ok {
		c.probeFound(ctx, el, element.SourceKeyboard)
		return
	}

	el, ok = c.frameDiff(ctx, vis, region)
	if ok {
		c.probeFound(ctx, el, element.SourceVisualChange)
		return
	}
	c.logger.Debug("focus probe found nothing")
}

func (c *Controller) frameDiff(ctx context.Context, vis VisualProber, region element.Region) (*element.Element, bool) {
	before, err := vis.Capture(ctx, region)
	if err != nil || before == nil {
		return nil, false
	}
	if c.cfg.ProbeDelay > 0 {
		select {
		case <-c.deps.Clock.After(c.cfg.ProbeDelay):
		case <-ctx.Done():
			return nil, false
		}
	}
	var after image.Image
	if after, err = vis.Capture(ctx, region); err != nil || after == nil {
		return nil, false
	}
	el, ok, err := vis.ChangedElement(ctx, before, after)
	if err != nil {
		c.logger.Debugw("frame diff failed", "error", err)
		return nil, false
	}
	return el, ok
}

// probeFound announces a probed element even when it matches the current one.
func (c *Controller) probeFound(ctx context.Context, el *element.Element, source string) {
	c.announce(ctx, el, source, EventProbe)
}

// navigate replaces Known with the elements of one group and reads the first.
func (c *Controller) navigate(ctx context.Context, g navGroup) {
	var found []*element.Element
	if rl := c.roleLister(ctx); rl != nil {
		var err error
		if found, err = rl.ByRole(ctx, g.roles...); err != nil {
			c.logger.Debugw("role query failed", "error", err)
			found = nil
		}
	}
	if len(found) == 0 {
		found = lo.Filter(c.focus.Known, func(el *element.Element, _ int) bool {
			return lo.Contains(g.types, el.Type)
		})
	}
	if len(found) == 0 {
		c.speak(ctx, fmt.Sprintf("No %s found", g.label), true)
		return
	}
	c.speak(ctx, fmt.Sprintf("Navigating %d %s", len(found), g.label), true)
	c.focus.Known = found
	c.focus.Index = 0
	c.focusOn(ctx, found[0], "navigation", EventNavigate, false)
}

// PageSummary counts the element kinds on the page.
type PageSummary struct {
	Title      string
	Headings   int
	Links      int
	Buttons    int
	FormFields int
	Images     int
}

func (s PageSummary) String() string {
	title := s.Title
	if title == "" {
		title = "untitled"
	}
	return fmt.Sprintf("Current page: %s. Contains %d headings, %d links, %d buttons, %d form fields and %d images.",
		title, s.Headings, s.Links, s.Buttons, s.FormFields, s.Images)
}

// Summarize counts the element types in els.
func Summarize(title string, els []*element.Element) PageSummary {
	counts := lo.CountValuesBy(els, func(el *element.Element) element.Type { return el.Type })
	return PageSummary{
		Title:      title,
		Headings:   counts[element.Heading],
		Links:      counts[element.Link],
		Buttons:    counts[element.Button],
		FormFields: counts[element.TextField] + counts[element.Checkbox] + counts[element.Radio] + counts[element.Dropdown],
		Images:     counts[element.Image],
	}
}

func (c *Controller) pageInfo(ctx context.Context) {
	els := c.focus.Known
	if rl := c.roleLister(ctx); rl != nil {
		if all, err := rl.All(ctx); err == nil && len(all) > 0 {
			els = all
		}
	}
	c.speak(ctx, Summarize(c.deps.Title(), els).String(), true)
}
