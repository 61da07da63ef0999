package plugin

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Preparer makes a plugin's runtime dependencies resolvable before it is imported.
type Preparer interface {
	Prepare(desc Descriptor) error
}

// PreparerFunc adapts a function into a Preparer.
type PreparerFunc func(desc Descriptor) error

// Prepare calls f.
func (f PreparerFunc) Prepare(desc Descriptor) error { return f(desc) }

// RequirementsChecker reads the descriptor's dependency manifest, one executable name
// per line with # comments, and fails when any of them is not on PATH. It does not
// install anything.
type RequirementsChecker struct {
	// LookPath resolves a command; defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// Prepare verifies every requirement listed in desc.Requirements.
func (c RequirementsChecker) Prepare(desc Descriptor) error {
	if desc.Requirements == "" {
		return nil
	}

	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	f, err := os.Open(filepath.Join(desc.Dir, desc.Requirements))
	if err != nil {
		return fmt.Errorf("open requirements: %w", err)
	}
	defer f.Close()

	var missing []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		if _, err := lookPath(line); err != nil {
			missing = append(missing, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requirements: %w", err)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing requirements: %s", strings.Join(missing, ", "))
	}
	return nil
}
