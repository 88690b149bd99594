// Package llmserver supervises a locally-run OpenAI-compatible inference
// server as a child process: spawn, health-check, restart with backoff.
package llmserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"time"
)

// Config declares the local inference server subprocess.
type Config struct {
	Enabled bool              `yaml:"enabled"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	// HealthURL is polled with GET; any 2xx means healthy.
	// Typically http://127.0.0.1:<port>/v1/models.
	HealthURL      string `yaml:"healthUrl"`
	StartupTimeout string `yaml:"startupTimeout,omitempty"` // default 120s
	CheckInterval  string `yaml:"checkInterval,omitempty"`  // default 15s
}

const (
	defaultStartupTimeout = 120 * time.Second
	defaultCheckInterval  = 15 * time.Second
	initialBackoff        = 2 * time.Second
	maxBackoff            = 60 * time.Second
	// A process that stays up this long resets the backoff.
	stableAfter = 5 * time.Minute
)

// Supervisor keeps one inference server process alive.
type Supervisor struct {
	cfg            Config
	httpClient     *http.Client
	startupTimeout time.Duration
	checkInterval  time.Duration
}

func New(cfg Config) *Supervisor {
	s := &Supervisor{
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		startupTimeout: defaultStartupTimeout,
		checkInterval:  defaultCheckInterval,
	}
	if d, err := time.ParseDuration(cfg.StartupTimeout); err == nil && d > 0 {
		s.startupTimeout = d
	}
	if d, err := time.ParseDuration(cfg.CheckInterval); err == nil && d > 0 {
		s.checkInterval = d
	}
	return s
}

// Start runs the supervision loop until ctx is cancelled. Every process
// death restarts the server after a backoff delay; the delay doubles on
// quick failures and resets once a run proves stable.
func (s *Supervisor) Start(ctx context.Context) error {
	if s.cfg.Command == "" {
		return fmt.Errorf("llmserver: command not configured")
	}

	backoff := initialBackoff
	for {
		started := time.Now()
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			slog.Info("llmserver: stopped")
			return ctx.Err()
		}
		if time.Since(started) >= stableAfter {
			backoff = initialBackoff
		}
		slog.Warn("llmserver: process exited, restarting",
			"err", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
}

// runOnce spawns the server, waits for it to become healthy, then monitors
// it until it dies or turns unhealthy.
func (s *Supervisor) runOnce(ctx context.Context) error {
	procCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(procCtx, s.cfg.Command, s.cfg.Args...)
	cmd.Env = os.Environ()
	for k, v := range s.cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	slog.Info("llmserver: started", "pid", cmd.Process.Pid, "command", s.cfg.Command)

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	if s.cfg.HealthURL != "" {
		if err := s.waitHealthy(procCtx, exited); err != nil {
			cancel()
			<-exited
			return err
		}
		slog.Info("llmserver: healthy", "url", s.cfg.HealthURL)
	}

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()
	failures := 0
	for {
		select {
		case err := <-exited:
			return fmt.Errorf("process exited: %w", err)
		case <-ticker.C:
			if s.cfg.HealthURL == "" {
				continue
			}
			if s.healthy(procCtx) {
				failures = 0
				continue
			}
			failures++
			if failures >= 3 {
				cancel()
				<-exited
				return fmt.Errorf("health check failed %d times", failures)
			}
		case <-ctx.Done():
			cancel()
			<-exited
			return ctx.Err()
		}
	}
}

func (s *Supervisor) waitHealthy(ctx context.Context, exited <-chan error) error {
	deadline := time.Now().Add(s.startupTimeout)
	for time.Now().Before(deadline) {
		if s.healthy(ctx) {
			return nil
		}
		select {
		case err := <-exited:
			return fmt.Errorf("process exited during startup: %w", err)
		case <-time.After(time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("not healthy after %s", s.startupTimeout)
}

func (s *Supervisor) healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.HealthURL, nil)
	if err != nil {
		return false
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
