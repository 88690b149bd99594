package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hearthmind/hearthmind/internal/agent"
)

func runCoordinator(t *testing.T, input io.Reader, turn TurnFunc) string {
	t.Helper()
	var out bytes.Buffer
	c := NewCoordinator(input, &out, turn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestCoordinatorServesLine(t *testing.T) {
	var got string
	out := runCoordinator(t, strings.NewReader("turn on the lights\n"),
		func(_ context.Context, text string, _ agent.MessageSource, onDelta agent.DeltaFunc) (string, error) {
			got = text
			onDelta("Done")
			return "Done", nil
		})
	if got != "turn on the lights" {
		t.Errorf("turn text = %q", got)
	}
	if !strings.Contains(out, "Done") {
		t.Errorf("output = %q", out)
	}
}

func TestCoordinatorLineEditing(t *testing.T) {
	var got []string
	// CR terminates like LF; backspace and DEL erase.
	input := "helloX\x7f\rworldY\x08\n"
	runCoordinator(t, strings.NewReader(input),
		func(_ context.Context, text string, _ agent.MessageSource, _ agent.DeltaFunc) (string, error) {
			got = append(got, text)
			return "", nil
		})
	if len(got) != 2 || got[0] != "hello" || got[1] != "world" {
		t.Errorf("lines = %v", got)
	}
}

func TestCoordinatorSkipsBlankLines(t *testing.T) {
	var turns int
	runCoordinator(t, strings.NewReader("\r\n\nhi\r\n"),
		func(_ context.Context, _ string, _ agent.MessageSource, _ agent.DeltaFunc) (string, error) {
			turns++
			return "", nil
		})
	if turns != 1 {
		t.Errorf("turns = %d, want 1", turns)
	}
}

func TestCoordinatorQueuesMidTurnInput(t *testing.T) {
	pr, pw := io.Pipe()

	turn := func(ctx context.Context, text string, source agent.MessageSource, _ agent.DeltaFunc) (string, error) {
		if text != "first" {
			return "", errors.New("unexpected second turn: " + text)
		}
		// Arrives while this turn is running, so it must land in the queue.
		if _, err := pw.Write([]byte("second\n")); err != nil {
			return "", err
		}
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			msgs, err := source.Next(ctx)
			if err != nil {
				return "", err
			}
			if len(msgs) == 1 {
				if msgs[0].TextContent() != "second" {
					return "", errors.New("queued = " + msgs[0].TextContent())
				}
				pw.Close()
				return "ok", nil
			}
			time.Sleep(5 * time.Millisecond)
		}
		return "", errors.New("queued input never arrived")
	}

	var out bytes.Buffer
	c := NewCoordinator(pr, &out, turn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx)
	}()

	if _, err := pw.Write([]byte("first\n")); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not finish")
	}
	if strings.Contains(out.String(), "[error") {
		t.Errorf("unexpected turn error: %q", out.String())
	}
}

func TestCoordinatorErrorRestarts(t *testing.T) {
	var turns int
	out := runCoordinator(t, strings.NewReader("bad\ngood\n"),
		func(_ context.Context, text string, _ agent.MessageSource, onDelta agent.DeltaFunc) (string, error) {
			turns++
			if text == "bad" {
				return "", errors.New("backend exploded")
			}
			onDelta("recovered")
			return "recovered", nil
		})
	if turns != 2 {
		t.Fatalf("turns = %d, want error then re-arm", turns)
	}
	if !strings.Contains(out, "backend exploded") || !strings.Contains(out, "recovered") {
		t.Errorf("output = %q", out)
	}
}
