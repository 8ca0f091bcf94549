package tap

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dshills/keytap/internal/input"
	"github.com/dshills/keytap/internal/input/key"
)

// TypeTapDisabled is the control event type sent when the OS disabled the
// tap and key-up events may have been missed.
const TypeTapDisabled = "tapDisabled"

// ActionReset answers a TypeTapDisabled line.
const ActionReset = "reset"

// maxLineSize bounds an input line, newline included.
const maxLineSize = 64 * 1024

var (
	// ErrInvalidEvent is wrapped by errors for lines that are valid JSON
	// but not a valid event.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrLineTooLong is wrapped by the *LineError for a line longer than
	// the decoder's buffer. The line is discarded unread.
	ErrLineTooLong = errors.New("line too long")
)

// LineError reports an input line that could not be decoded.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Event is one input line.
type Event struct {
	KeyCode    int64  `json:"keyCode"`
	Type       string `json:"type"`
	Flags      uint64 `json:"flags"`
	Autorepeat bool   `json:"autorepeat,omitempty"`
	SourceTag  int64  `json:"sourceTag,omitempty"`
	App        string `json:"app,omitempty"`
}

// IsTapDisabled returns true for the tap-disabled control event.
func (e Event) IsTapDisabled() bool {
	return e.Type == TypeTapDisabled
}

// Raw converts the event to a pipeline event.
func (e Event) Raw() (key.RawEvent, error) {
	t, err := key.ParseEventType(e.Type)
	if err != nil {
		return key.RawEvent{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return key.RawEvent{
		KeyCode:    e.KeyCode,
		Type:       t,
		Flags:      key.Modifier(e.Flags),
		Autorepeat: e.Autorepeat,
		SourceTag:  e.SourceTag,
	}, nil
}

// EventFrom converts a pipeline event to its wire form.
func EventFrom(ev key.RawEvent, app string) Event {
	return Event{
		KeyCode:    ev.KeyCode,
		Type:       ev.Type.String(),
		Flags:      uint64(ev.Flags),
		Autorepeat: ev.Autorepeat,
		SourceTag:  ev.SourceTag,
		App:        app,
	}
}

// Synthetic is the wire form of a synthetic event.
type Synthetic struct {
	KeyCode   int64  `json:"keyCode"`
	KeyDown   bool   `json:"keyDown"`
	Flags     uint64 `json:"flags"`
	SourceTag int64  `json:"sourceTag"`
}

// SyntheticFrom converts a synthetic event to its wire form.
func SyntheticFrom(ev key.SyntheticEvent) *Synthetic {
	return &Synthetic{
		KeyCode:   ev.KeyCode,
		KeyDown:   ev.IsKeyDown(),
		Flags:     uint64(ev.Flags),
		SourceTag: ev.SourceTag,
	}
}

// Output is one output line.
type Output struct {
	Seq       uint64     `json:"seq"`
	Action    string     `json:"action"`
	Synthetic *Synthetic `json:"synthetic,omitempty"`
	Rule      string     `json:"rule,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// OutputFrom converts a decision to its wire form.
func OutputFrom(seq uint64, d input.Decision) Output {
	out := Output{Seq: seq, Action: d.Action.String()}
	if d.Synthetic != nil {
		out.Synthetic = SyntheticFrom(*d.Synthetic)
	}
	if d.Rule != nil {
		out.Rule = d.Rule.String()
	}
	return out
}

// Decoder reads events from a line stream.
type Decoder struct {
	r    *bufio.Reader
	line int
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, maxLineSize)}
}

// Line returns the number of the last line read.
func (d *Decoder) Line() int {
	return d.line
}

// Decode reads the next event. Blank lines are skipped. It returns io.EOF
// at the end of the stream and a *LineError for a line that is not a
// valid event; the stream can be read further after a *LineError.
func (d *Decoder) Decode() (Event, error) {
	for {
		raw, err := d.r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			d.line++
			if err := d.skipLine(); err != nil && !errors.Is(err, io.EOF) {
				return Event{}, err
			}
			return Event{}, &LineError{
				Line: d.line,
				Err:  fmt.Errorf("%w: more than %d bytes", ErrLineTooLong, maxLineSize),
			}
		}
		if len(raw) == 0 && err != nil {
			return Event{}, err
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return Event{}, err
		}
		d.line++

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return Event{}, &LineError{Line: d.line, Err: err}
		}
		if !ev.IsTapDisabled() {
			if _, err := ev.Raw(); err != nil {
				return Event{}, &LineError{Line: d.line, Err: err}
			}
		}
		return ev, nil
	}
}

// skipLine discards input up to and including the next newline.
func (d *Decoder) skipLine() error {
	for {
		_, err := d.r.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

// Encoder writes values as JSON lines. It is safe for concurrent use.
type Encoder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Encoder{enc: enc}
}

// Encode writes v followed by a newline.
func (e *Encoder) Encode(v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(v)
}
