package llmserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	d := initialBackoff
	seen := []time.Duration{}
	for i := 0; i < 8; i++ {
		seen = append(seen, d)
		d = nextBackoff(d)
	}
	if seen[0] != 2*time.Second || seen[1] != 4*time.Second {
		t.Errorf("early backoffs = %v", seen[:2])
	}
	if seen[len(seen)-1] != maxBackoff {
		t.Errorf("backoff should cap at %v, got %v", maxBackoff, seen[len(seen)-1])
	}
}

func TestHealthyChecksStatusCode(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	s := New(Config{HealthURL: srv.URL})
	if !s.healthy(context.Background()) {
		t.Error("200 should be healthy")
	}
	status = http.StatusServiceUnavailable
	if s.healthy(context.Background()) {
		t.Error("503 should be unhealthy")
	}
}

func TestConfigDurationsParsed(t *testing.T) {
	s := New(Config{StartupTimeout: "10s", CheckInterval: "1s"})
	if s.startupTimeout != 10*time.Second {
		t.Errorf("startupTimeout = %v", s.startupTimeout)
	}
	if s.checkInterval != time.Second {
		t.Errorf("checkInterval = %v", s.checkInterval)
	}

	s = New(Config{})
	if s.startupTimeout != defaultStartupTimeout || s.checkInterval != defaultCheckInterval {
		t.Error("defaults not applied")
	}
}

func TestStartRequiresCommand(t *testing.T) {
	s := New(Config{})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error without command")
	}
}

func TestRunOnceRestartsOnExit(t *testing.T) {
	// "true" exits immediately, so runOnce must report the exit.
	s := New(Config{Command: "true"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.runOnce(ctx); err == nil {
		t.Fatal("expected exit error")
	}
}
