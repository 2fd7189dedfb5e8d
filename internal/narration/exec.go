package narration

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/focus-narrator/internal/logging"
)

// DefaultRate is the speech rate in words per minute.
const DefaultRate = 200

// ErrNoCommand is returned when an ExecSink has no command configured.
var ErrNoCommand = errors.New("no speech command configured")

// ExecSink speaks by running an external text-to-speech command, such as
// "espeak -s {rate}". The text is appended as the last argument. "{rate}" in
// the template is replaced with the configured rate.
type ExecSink struct {
	name string
	args []string

	logger *zap.SugaredLogger

	mu       sync.Mutex
	inflight *exec.Cmd
	done     chan struct{}
	closed   bool
}

// NewExecSink parses command and checks that its program exists.
func NewExecSink(command string, rate int, logger *zap.SugaredLogger) (*ExecSink, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ErrNoCommand
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, "{rate}", strconv.Itoa(rate))
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return nil, errors.Wrapf(err, "speech command %q not found", fields[0])
	}
	return &ExecSink{name: fields[0], args: fields[1:], logger: logging.OrNop(logger)}, nil
}

// Speak implements Sink. It returns once the command has started. With
// interrupt=false it first waits for the current utterance to finish.
func (s *ExecSink) Speak(ctx context.Context, text string, interrupt bool) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if interrupt {
		if err := s.Silence(); err != nil {
			s.logger.Debugw("failed to interrupt speech", "error", err)
		}
	} else if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	args := append(append([]string(nil), s.args...), text)
	// Not bound to ctx: the utterance outlives the tick that started it.
	cmd := exec.Command(s.name, args...)
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to start %s", s.name)
	}
	done := make(chan struct{})
	s.inflight, s.done = cmd, done

	go func() {
		// Reap the process so it does not linger as a zombie.
		if err := cmd.Wait(); err != nil {
			s.logger.Debugw("speech command exited", "error", err)
		}
		s.mu.Lock()
		if s.inflight == cmd {
			s.inflight, s.done = nil, nil
		}
		s.mu.Unlock()
		close(done)
	}()
	return nil
}

func (s *ExecSink) wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Silence kills the in-flight utterance, if any, and waits for it to exit.
func (s *ExecSink) Silence() error {
	s.mu.Lock()
	cmd, done := s.inflight, s.done
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	err := cmd.Process.Kill()
	<-done
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrap(err, "failed to kill speech command")
	}
	return nil
}

// Speaking reports whether an utterance is in flight.
func (s *ExecSink) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight != nil
}

// Close silences the sink. Later Speak calls fail with ErrClosed.
func (s *ExecSink) Close() error {
	err := s.Silence()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}
