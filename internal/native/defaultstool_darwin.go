//go:build darwin

package native

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const defaultsTool = "/usr/bin/defaults"

// ReadDomain returns the `defaults read` rendering of a whole domain.
func ReadDomain(ctx context.Context, domain string) (string, error) {
	out, ok, err := runDefaults(ctx, "read", domain)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return out, nil
}

// ReadKey returns the `defaults read` rendering of one key. ok is false
// when the key (or the domain) does not exist.
func ReadKey(ctx context.Context, domain, key string) (string, bool, error) {
	return runDefaults(ctx, "read", domain, key)
}

// DeleteDomain removes every key of a domain. A missing domain is not an
// error.
func DeleteDomain(ctx context.Context, domain string) error {
	_, _, err := runDefaults(ctx, "delete", domain)
	return err
}

// runDefaults maps the tool's exit status 1 ("does not exist") to ok=false.
func runDefaults(ctx context.Context, args ...string) (string, bool, error) {
	cmd := exec.CommandContext(ctx, defaultsTool, args...)
	out, err := cmd.CombinedOutput()
	s := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("defaults %s: %w, output: %s", strings.Join(args, " "), err, s)
	}
	return s, true, nil
}
