package local

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/interfaces"
)

// inferenceServer manages one localhost inference server child process
// (llama-server or whisper-server). Servers bind to 127.0.0.1 only and the
// HTTP transport refuses anything else, matching the reference's
// local-only guarantee.
type inferenceServer struct {
	binaryPath string
	args       []string
	url        string
	cmd        *exec.Cmd
	ready      bool
	logger     arbor.ILogger
}

// findBinary locates an inference server binary in the configured directory
// or standard fallback locations.
func findBinary(dir, name string, logger arbor.ILogger) (string, error) {
	locations := []string{}
	if dir != "" {
		locations = append(locations, dir+"/"+name, dir+"/"+name+".exe")
	}
	locations = append(locations,
		"./bin/"+name,
		"./bin/"+name+".exe",
		"./"+name,
		name, // PATH lookup
	)

	for _, location := range locations {
		path, err := exec.LookPath(location)
		if err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		logger.Debug().
			Str("location", location).
			Str("resolved_path", path).
			Str("binary", name).
			Msg("Found inference server binary")
		return path, nil
	}

	return "", fmt.Errorf("%s not found in: %v", name, locations)
}

// localhostClient returns an HTTP client whose transport rejects any
// non-localhost address.
func localhostClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if !strings.HasPrefix(addr, "127.0.0.1:") && !strings.HasPrefix(addr, "localhost:") {
					return nil, fmt.Errorf("refusing non-localhost address: %s", addr)
				}
				return (&net.Dialer{}).DialContext(ctx, network, addr)
			},
		},
	}
}

// start spawns the server process and polls its health endpoint until it
// responds or the timeout elapses. Progress is reported in stages: a small
// jump after the process starts, then a ramp across the health-poll window,
// then 100 when healthy. Values are percentages in [0,100]; the worker
// clamps them monotonic.
func (s *inferenceServer) start(timeout time.Duration, report interfaces.ProgressFunc) error {
	if report == nil {
		report = func(float64) {}
	}

	cmd := exec.Command(s.binaryPath, s.args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.binaryPath, err)
	}
	s.cmd = cmd
	report(10)

	s.logger.Info().
		Int("pid", cmd.Process.Pid).
		Str("url", s.url).
		Msg("Inference server started, waiting for ready")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	started := time.Now()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stop()
			return fmt.Errorf("inference server did not become ready within %s", timeout)
		case <-ticker.C:
			if s.healthy() {
				s.ready = true
				report(100)
				s.logger.Info().Str("url", s.url).Msg("Inference server is ready")
				return nil
			}
			elapsed := time.Since(started).Seconds() / timeout.Seconds()
			report(10 + 85*elapsed)
		}
	}
}

func (s *inferenceServer) healthy() bool {
	client := localhostClient(1 * time.Second)
	resp, err := client.Get(s.url + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// stop shuts the server process down, interrupt first, kill on timeout.
func (s *inferenceServer) stop() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}

	pid := s.cmd.Process.Pid
	s.logger.Info().Int("pid", pid).Msg("Stopping inference server")

	if runtime.GOOS != "windows" {
		_ = s.cmd.Process.Signal(os.Interrupt)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.cmd.Wait()
	}()

	select {
	case <-time.After(2 * time.Second):
		if err := s.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill inference server (pid %d): %w", pid, err)
		}
	case err := <-done:
		if err != nil && !strings.Contains(err.Error(), "exit status") && !strings.Contains(err.Error(), "signal") {
			s.logger.Warn().Err(err).Int("pid", pid).Msg("Inference server exited with error")
		}
	}

	s.ready = false
	return nil
}
