// Package integrity keeps a SHA-256 digest of the clock log in a sidecar file
// and refuses to vouch for a log whose content no longer matches it.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SidecarSuffix is appended to the log path to name the digest file.
const SidecarSuffix = ".sha256"

var (
	// ErrTampered means the log no longer matches its stored digest.
	ErrTampered = errors.New("log digest mismatch")
	// ErrUnverifiable means the log or its digest exists but could not be read.
	ErrUnverifiable = errors.New("log integrity could not be verified")
)

// MismatchError carries both digests of a failed verification.
type MismatchError struct {
	Path     string
	Stored   string
	Computed string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: stored digest %s, computed %s", e.Path, e.Stored, e.Computed)
}

func (e *MismatchError) Unwrap() error { return ErrTampered }

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify reports whether sidecar holds the digest of data. Surrounding
// whitespace is ignored and hex case does not matter.
func Verify(data, sidecar []byte) bool {
	return strings.EqualFold(Digest(data), strings.TrimSpace(string(sidecar)))
}

// Guard owns the digest sidecar of one log file.
type Guard struct {
	logPath string
}

// NewGuard returns the guard for the log at logPath.
func NewGuard(logPath string) *Guard {
	return &Guard{logPath: logPath}
}

// LogPath is the guarded log file.
func (g *Guard) LogPath() string { return g.logPath }

// SidecarPath is where the digest is stored.
func (g *Guard) SidecarPath() string { return g.logPath + SidecarSuffix }

// Update computes the digest of data and atomically replaces the sidecar.
func (g *Guard) Update(data []byte) error {
	path := g.SidecarPath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("integrity error creating directories: %w", err)
		}
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(Digest(data)), 0o600); err != nil {
		return fmt.Errorf("integrity error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("integrity error renaming temp file: %w", err)
	}
	return nil
}

// Stored returns the digest currently recorded in the sidecar.
func (g *Guard) Stored() (string, error) {
	data, err := os.ReadFile(g.SidecarPath())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Check verifies the log on disk against the sidecar. A missing log or a
// missing sidecar means there is nothing to check yet and is not an error.
func (g *Guard) Check() error {
	logExists, err := exists(g.logPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnverifiable, err)
	}
	sidecarExists, err := exists(g.SidecarPath())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnverifiable, err)
	}
	if !logExists || !sidecarExists {
		return nil
	}

	data, err := os.ReadFile(g.logPath)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrUnverifiable, g.logPath, err)
	}
	sidecar, err := os.ReadFile(g.SidecarPath())
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrUnverifiable, g.SidecarPath(), err)
	}
	if !Verify(data, sidecar) {
		return &MismatchError{
			Path:     g.logPath,
			Stored:   strings.TrimSpace(string(sidecar)),
			Computed: Digest(data),
		}
	}
	return nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
