package perception

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/logging"
	"github.com/ironsheep/focus-narrator/internal/recovery"
)

// Structured source defaults.
const (
	DefaultMaxDepth = 10
	DefaultMinSize  = 5

	// TreeConfidence is the confidence of elements read from the tree.
	TreeConfidence = 0.9
)

// StructuredConfig bounds the tree walk.
type StructuredConfig struct {
	// MaxDepth stops recursion below this depth; the root is depth 0.
	MaxDepth int

	// MinSize drops nodes whose width or height is not above it.
	MinSize int
}

// StructuredSource reads elements from the accessibility tree of a
// supported browser.
type StructuredSource struct {
	provider TreeProvider
	cfg      StructuredConfig
	logger   *zap.SugaredLogger
}

// NewStructuredSource wraps provider. Zero config fields take defaults.
func NewStructuredSource(provider TreeProvider, cfg StructuredConfig, logger *zap.SugaredLogger) *StructuredSource {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = DefaultMinSize
	}
	return &StructuredSource{provider: provider, cfg: cfg, logger: logging.OrNop(logger)}
}

// Name implements Source.
func (s *StructuredSource) Name() string { return "accessibility" }

// Component implements Componented.
func (s *StructuredSource) Component() string { return recovery.ComponentAccessibility }

// Browser returns the browser in the foreground, or "".
func (s *StructuredSource) Browser(ctx context.Context) string {
	if s.provider == nil {
		return ""
	}
	w, err := s.provider.Foreground(ctx)
	if err != nil {
		s.logger.Debugw("failed to read foreground window", "error", err)
		return ""
	}
	return BrowserName(w)
}

// Available implements Availability: the tree is only trusted inside a
// known browser.
func (s *StructuredSource) Available(ctx context.Context) bool {
	return s.Browser(ctx) != ""
}

// Detect implements Source. Nodes outside region are skipped but their
// children are still visited, since a parent outside the region may contain
// children inside it.
func (s *StructuredSource) Detect(ctx context.Context, region element.Region) ([]*element.Element, error) {
	return s.collect(ctx, &region, nil)
}

// All returns every element of the tree regardless of position.
func (s *StructuredSource) All(ctx context.Context) ([]*element.Element, error) {
	return s.collect(ctx, nil, nil)
}

// ByRole returns the elements whose role is one of roles. Roles are matched
// case-insensitively against the raw node role, so landmarks and tables
// that have no element.Type can still be listed.
func (s *StructuredSource) ByRole(ctx context.Context, roles ...string) ([]*element.Element, error) {
	wantRoles := make(map[string]bool, len(roles))
	wantTypes := make(map[element.Type]bool, len(roles))
	for _, r := range roles {
		wantRoles[strings.ToLower(r)] = true
		if t := element.ParseType(r); t != element.Unknown {
			wantTypes[t] = true
		}
	}
	return s.collect(ctx, nil, func(n *Node) bool {
		role := strings.ToLower(strings.TrimSpace(n.Role))
		return wantRoles[role] || wantTypes[element.ParseType(role)]
	})
}

func (s *StructuredSource) collect(ctx context.Context, region *element.Region, keep func(*Node) bool) ([]*element.Element, error) {
	if !s.Available(ctx) {
		return nil, ErrSourceUnavailable
	}
	root, err := s.provider.Tree(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read accessibility tree")
	}

	var out []*element.Element
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if n == nil || depth > s.cfg.MaxDepth || ctx.Err() != nil {
			return
		}
		if region == nil || n.Bounds.Touches(*region) {
			if keep == nil || keep(n) {
				el, err := convert(func() (*element.Element, error) { return s.toElement(n, element.SourceHTML) })
				switch {
				case err != nil:
					s.logger.Debugw("skipping tree node", "role", n.Role, "bounds", n.Bounds.String(), "error", err)
				case el != nil:
					out = append(out, el)
				}
			}
		}
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	walk(root, 0)

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// toElement converts n, returning nil for nodes too small to matter.
func (s *StructuredSource) toElement(n *Node, sourceID string) (*element.Element, error) {
	if n.Bounds.Width() <= s.cfg.MinSize || n.Bounds.Height() <= s.cfg.MinSize {
		return nil, nil
	}
	return element.New(element.ParseType(n.Role), n.Bounds, strings.TrimSpace(n.Text), TreeConfidence, sourceID)
}

// FocusedElement returns the node holding keyboard focus as an element with
// source tab_focused.
func (s *StructuredSource) FocusedElement(ctx context.Context) (*element.Element, bool, error) {
	if !s.Available(ctx) {
		return nil, false, ErrSourceUnavailable
	}
	n, ok, err := s.provider.Focused(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read focused element")
	}
	if !ok || n == nil {
		return nil, false, nil
	}
	el, err := convert(func() (*element.Element, error) { return s.toElement(n, element.SourceTabFocused) })
	if err != nil {
		return nil, false, err
	}
	return el, el != nil, nil
}
