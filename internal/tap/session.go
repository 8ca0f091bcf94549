package tap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/dshills/keytap/internal/input"
	"github.com/dshills/keytap/internal/input/key"
)

// Injector posts synthetic events back into the OS event stream.
type Injector interface {
	Post(ev key.SyntheticEvent) error
}

// InjectorFunc adapts a function to Injector.
type InjectorFunc func(ev key.SyntheticEvent) error

// Post calls f.
func (f InjectorFunc) Post(ev key.SyntheticEvent) error {
	return f(ev)
}

// LineInjector posts synthetic events as JSON lines, for a tap process that
// reads them from a pipe.
type LineInjector struct {
	enc *Encoder
}

// NewLineInjector creates an injector writing to w.
func NewLineInjector(w io.Writer) *LineInjector {
	return &LineInjector{enc: NewEncoder(w)}
}

// Post writes ev as one line.
func (l *LineInjector) Post(ev key.SyntheticEvent) error {
	return l.enc.Encode(SyntheticFrom(ev))
}

// Foreground is an application resolver fed by the app field of incoming
// events. The zero value reports no application.
type Foreground struct {
	name atomic.Value
}

// Set records the foreground application.
func (f *Foreground) Set(name string) {
	f.name.Store(name)
}

// ForegroundApplication returns the last application set.
func (f *Foreground) ForegroundApplication() string {
	name, _ := f.name.Load().(string)
	return name
}

var _ input.AppResolver = (*Foreground)(nil)

// Option configures a Session.
type Option func(*Session)

// WithForeground sets the resolver that the app field of events updates.
// It should be the resolver the pipeline was built with.
func WithForeground(f *Foreground) Option {
	return func(s *Session) {
		s.foreground = f
	}
}

// WithInjector sets where synthetic events are posted after their
// decision has been written.
func WithInjector(i Injector) Option {
	return func(s *Session) {
		s.injector = i
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session feeds a line stream of events through a pipeline.
type Session struct {
	pipeline   *input.Pipeline
	foreground *Foreground
	injector   Injector
	logger     *slog.Logger

	seq          atomic.Uint64
	injectErrors atomic.Uint64
}

// NewSession creates a session for p.
func NewSession(p *input.Pipeline, opts ...Option) *Session {
	s := &Session{
		pipeline: p,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seq returns the number of lines answered so far.
func (s *Session) Seq() uint64 {
	return s.seq.Load()
}

// InjectErrors returns the number of failed injections.
func (s *Session) InjectErrors() uint64 {
	return s.injectErrors.Load()
}

type decoded struct {
	ev  Event
	err error
}

// Serve reads events from r and writes one decision line per event to w
// until r is exhausted or ctx is done. It returns nil at end of input and
// ctx.Err() on cancellation. Read and write failures are returned wrapped.
func (s *Session) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	enc := NewEncoder(w)
	lines := make(chan decoded)
	done := make(chan struct{})
	defer close(done)

	go func() {
		dec := NewDecoder(r)
		for {
			ev, err := dec.Decode()
			select {
			case lines <- decoded{ev, err}:
			case <-done:
				return
			}
			var lineErr *LineError
			if err != nil && !errors.As(err, &lineErr) {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l := <-lines:
			out, err := s.answer(l)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("reading events: %w", err)
			}
			if err := enc.Encode(out.Output); err != nil {
				return fmt.Errorf("writing decision: %w", err)
			}
			if out.synthetic != nil {
				s.inject(*out.synthetic)
			}
		}
	}
}

type answer struct {
	Output
	synthetic *key.SyntheticEvent
}

// answer turns one decoded line into its output. A non-nil error ends the
// stream.
func (s *Session) answer(l decoded) (answer, error) {
	var lineErr *LineError
	switch {
	case errors.As(l.err, &lineErr):
		return s.passWithError(lineErr), nil
	case l.err != nil:
		return answer{}, l.err
	}

	if l.ev.IsTapDisabled() {
		s.pipeline.Reset()
		s.logger.Info("tap disabled, key state cleared")
		return answer{Output: Output{Seq: s.seq.Add(1), Action: ActionReset}}, nil
	}

	raw, err := l.ev.Raw()
	if err != nil {
		return s.passWithError(err), nil
	}
	if l.ev.App != "" && s.foreground != nil {
		s.foreground.Set(l.ev.App)
	}

	d := s.pipeline.Process(raw)
	return answer{Output: OutputFrom(s.seq.Add(1), d), synthetic: d.Synthetic}, nil
}

func (s *Session) passWithError(err error) answer {
	seq := s.seq.Add(1)
	s.logger.Warn("bad event line", "seq", seq, "error", err)
	return answer{Output: Output{Seq: seq, Action: input.Pass.String(), Error: err.Error()}}
}

func (s *Session) inject(ev key.SyntheticEvent) {
	if s.injector == nil {
		return
	}
	if err := s.injector.Post(ev); err != nil {
		s.injectErrors.Add(1)
		s.logger.Warn("posting synthetic event", "keyCode", ev.KeyCode, "error", err)
	}
}
