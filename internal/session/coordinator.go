package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/hearthmind/hearthmind/internal/agent"
	"github.com/hearthmind/hearthmind/internal/schema"
)

// TurnFunc runs one conversational turn for a submitted input line.
type TurnFunc func(ctx context.Context, text string, source agent.MessageSource, onDelta agent.DeltaFunc) (string, error)

// Coordinator multiplexes a line-oriented byte transport onto a session.
//
// Two channels: the read loop assembles raw bytes into lines, the serve loop
// runs turns. A line arriving mid-turn is queued (capacity one, further lines
// dropped) and either consumed by the running turn — the delta callback
// cancels the stream as soon as queued input exists — or picked up right
// after. Turn errors are reported on the transport and the coordinator
// re-arms for fresh input.
type Coordinator struct {
	r   io.Reader
	w   io.Writer
	run TurnFunc

	// Prompt is written whenever the coordinator is ready for input.
	Prompt string

	queue      chan string
	processing atomic.Bool
}

func NewCoordinator(r io.Reader, w io.Writer, run TurnFunc) *Coordinator {
	return &Coordinator{
		r:     r,
		w:     w,
		run:   run,
		queue: make(chan string, 1),
	}
}

// Next implements agent.MessageSource over the input queue.
func (c *Coordinator) Next(_ context.Context) ([]schema.Message, error) {
	select {
	case line := <-c.queue:
		return []schema.Message{schema.NewUserMessage(line)}, nil
	default:
		return nil, nil
	}
}

// Run serves the transport until ctx is cancelled or the reader closes.
func (c *Coordinator) Run(ctx context.Context) error {
	lines := make(chan string)
	go c.readLoop(ctx, lines)

	c.writePrompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			c.serve(ctx, line)
			c.writePrompt()
		}
	}
}

// serve runs one turn. Streamed deltas are forwarded to the transport as
// they arrive; the callback requests cancellation once input is queued.
func (c *Coordinator) serve(ctx context.Context, line string) {
	c.processing.Store(true)
	defer c.processing.Store(false)

	_, err := c.run(ctx, line, c, func(delta string) bool {
		io.WriteString(c.w, delta)
		return len(c.queue) == 0
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("turn failed", "err", err)
		fmt.Fprintf(c.w, "\n[error: %v; restarting]\n", err)
		return
	}
	io.WriteString(c.w, "\n")
}

// readLoop assembles bytes into lines. CR and LF both terminate a line;
// backspace (0x08) and DEL (0x7f) drop the previous byte. Completed lines go
// to the serve loop, or to the queue when a turn is running; with the queue
// full the line is dropped.
func (c *Coordinator) readLoop(ctx context.Context, lines chan<- string) {
	defer close(lines)

	br := bufio.NewReader(c.r)
	var line []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if len(line) > 0 {
				c.deliver(ctx, lines, string(line))
			}
			return
		}
		switch b {
		case '\r', '\n':
			if len(line) == 0 {
				continue
			}
			if !c.deliver(ctx, lines, string(line)) {
				return
			}
			line = line[:0]
		case 0x08, 0x7f:
			if len(line) > 0 {
				line = line[:len(line)-1]
			}
		default:
			line = append(line, b)
		}
	}
}

func (c *Coordinator) deliver(ctx context.Context, lines chan<- string, line string) bool {
	if c.processing.Load() {
		select {
		case c.queue <- line:
		default:
			slog.Debug("input queue full, dropping line")
		}
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case lines <- line:
		return true
	}
}

func (c *Coordinator) writePrompt() {
	if c.Prompt != "" {
		io.WriteString(c.w, c.Prompt)
	}
}
