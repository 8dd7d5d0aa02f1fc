// Package cron reads and installs the invoking user's crontab. Access
// goes through the Store interface so callers can substitute an
// in-memory table in tests.
package cron

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Store is read/install access to a crontab.
type Store interface {
	// Read returns the current crontab text. A user with no crontab
	// yields an empty string, not an error.
	Read(ctx context.Context) (string, error)
	// Install replaces the crontab with text.
	Install(ctx context.Context, text string) error
}

// SystemStore talks to the real crontab through the crontab binary.
type SystemStore struct {
	// Timeout bounds each crontab invocation. Zero means 10 seconds.
	Timeout time.Duration
}

func (s *SystemStore) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return 10 * time.Second
}

// Read shells out to `crontab -l`. The "no crontab for" exit is treated
// as an empty table.
func (s *SystemStore) Read(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, "crontab", "-l")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if strings.Contains(stderr.String(), "no crontab for") {
			return "", nil
		}
		return "", fmt.Errorf("crontab -l: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Install pipes text to `crontab -`.
func (s *SystemStore) Install(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, "crontab", "-")
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("crontab -: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
