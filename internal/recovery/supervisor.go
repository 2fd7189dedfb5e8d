package recovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/focus-narrator/internal/logging"
)

// Component names.
const (
	ComponentNarration     = "narration"
	ComponentOCR           = "ocr"
	ComponentModel         = "model"
	ComponentAccessibility = "accessibility"
)

// DefaultThresholds are the error counts that trigger a restart.
var DefaultThresholds = map[string]int{
	ComponentNarration:     5,
	ComponentOCR:           3,
	ComponentModel:         2,
	ComponentAccessibility: 4,
}

// DefaultCooldown is the minimum time between two restarts of a component.
const DefaultCooldown = 60 * time.Second

// fallbackThreshold applies to components without a default threshold.
const fallbackThreshold = 3

// RestartFunc rebuilds a component and installs the new instance.
type RestartFunc func(ctx context.Context) error

// Reporter receives component failures.
type Reporter interface {
	// RecordError counts one failure of component and reports whether it
	// triggered a restart.
	RecordError(ctx context.Context, component string, err error) bool
}

// Announcer tells the user about recoveries.
type Announcer interface {
	Speak(ctx context.Context, text string, interrupt bool) error
}

type component struct {
	threshold   int
	count       int
	successes   int
	lastSuccess time.Time
	restarts    int
	lastRestart time.Time
	restart     RestartFunc
}

// Supervisor counts failures per component and restarts a component once it
// reaches its threshold, at most once per cooldown.
//
// Restarts run on the caller's goroutine. Only the polling loop records
// errors, so restarts never race with each other.
type Supervisor struct {
	mu         sync.Mutex
	clock      clock.Clock
	cooldown   time.Duration
	components map[string]*component
	announcer  Announcer
	logger     *zap.SugaredLogger
}

// NewSupervisor returns a Supervisor. A zero cooldown means DefaultCooldown;
// a nil clock means the wall clock.
func NewSupervisor(clk clock.Clock, cooldown time.Duration, announcer Announcer, logger *zap.SugaredLogger) *Supervisor {
	if clk == nil {
		clk = clock.New()
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Supervisor{
		clock:      clk,
		cooldown:   cooldown,
		components: make(map[string]*component),
		announcer:  announcer,
		logger:     logging.OrNop(logger),
	}
}

// Register adds a component. threshold <= 0 picks the default for known
// names. restart may be nil, in which case reaching the threshold only
// resets the counter.
func (s *Supervisor) Register(name string, threshold int, restart RestartFunc) {
	if threshold <= 0 {
		threshold = DefaultThresholds[name]
	}
	if threshold <= 0 {
		threshold = fallbackThreshold
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components[name] = &component{threshold: threshold, restart: restart}
}

// RecordError implements Reporter.
//
// The component's counter is incremented. When it reaches the threshold and
// the component has not been restarted within the cooldown, restart runs.
// On success the counter is reset, the restart time recorded and the user
// told. On failure the error is logged and the counter kept, so the next
// error evaluates again.
func (s *Supervisor) RecordError(ctx context.Context, name string, err error) bool {
	s.mu.Lock()
	c, ok := s.components[name]
	if !ok {
		s.mu.Unlock()
		s.logger.Warnw("error for unknown component", "component", name, "error", err)
		return false
	}
	c.count++
	count := c.count
	s.logger.Warnw("component error", "component", name, "count", count, "threshold", c.threshold, "error", err)

	if count < c.threshold {
		s.mu.Unlock()
		return false
	}
	now := s.clock.Now()
	if c.restarts > 0 && now.Sub(c.lastRestart) < s.cooldown {
		s.mu.Unlock()
		s.logger.Debugw("restart suppressed by cooldown", "component", name,
			"since_last", now.Sub(c.lastRestart), "cooldown", s.cooldown)
		return false
	}
	restart := c.restart
	s.mu.Unlock()

	s.logger.Warnw("restarting component", "component", name)
	if restart != nil {
		if rerr := safeRestart(ctx, restart); rerr != nil {
			s.logger.Errorw("component restart failed", "component", name, "error", rerr)
			return false
		}
	}

	s.mu.Lock()
	c.count = 0
	c.restarts++
	c.lastRestart = now
	s.mu.Unlock()

	s.logger.Infow("component restarted", "component", name)
	s.announce(ctx, fmt.Sprintf("%s restarted", name))
	return true
}

func safeRestart(ctx context.Context, restart RestartFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("restart panic: %v", p)
		}
	}()
	return restart(ctx)
}

// RecordSuccess notes that a component completed work. It does not touch
// the error count, which only a restart resets.
func (s *Supervisor) RecordSuccess(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.components[name]
	if !ok {
		s.logger.Debugw("success for unknown component", "component", name)
		return
	}
	c.successes++
	c.lastSuccess = s.clock.Now()
}

// Successes returns how many successes were recorded for a component.
func (s *Supervisor) Successes(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.components[name]; ok {
		return c.successes
	}
	return 0
}

// Errors returns the current error count of a component.
func (s *Supervisor) Errors(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.components[name]; ok {
		return c.count
	}
	return 0
}

// Restarts returns how many times a component was restarted.
func (s *Supervisor) Restarts(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.components[name]; ok {
		return c.restarts
	}
	return 0
}

// Status is a point-in-time view of one component.
type Status struct {
	Component   string    `json:"component"`
	Errors      int       `json:"errors"`
	Threshold   int       `json:"threshold"`
	Successes   int       `json:"successes"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	Restarts    int       `json:"restarts"`
	LastRestart time.Time `json:"last_restart,omitempty"`
}

// Status returns the state of every registered component.
func (s *Supervisor) Status() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Status, 0, len(s.components))
	for name, c := range s.components {
		out = append(out, Status{
			Component:   name,
			Errors:      c.count,
			Threshold:   c.threshold,
			Successes:   c.successes,
			LastSuccess: c.lastSuccess,
			Restarts:    c.restarts,
			LastRestart: c.lastRestart,
		})
	}
	return out
}

func (s *Supervisor) announce(ctx context.Context, text string) {
	if s.announcer == nil {
		return
	}
	if err := s.announcer.Speak(ctx, text, true); err != nil {
		s.logger.Debugw("failed to announce", "text", text, "error", err)
	}
}
