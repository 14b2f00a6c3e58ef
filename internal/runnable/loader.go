package runnable

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

const fileExt = ".yaml"

// Load reads dir/<name>.yaml. A missing file yields a *NotFoundError.
func Load(dir, name string) (*Runnable, error) {
	path := filepath.Join(dir, name+fileExt)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Name: name, Dir: dir}
		}
		return nil, fmt.Errorf("reading runnable %s: %w", name, err)
	}

	return Parse(data)
}

// Parse decodes and validates a runnable document. Repetitions default to 1.
func Parse(data []byte) (*Runnable, error) {
	var r Runnable
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if r.Repetitions == 0 {
		r.Repetitions = 1
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return &r, nil
}

// List returns the names of all runnables in dir, sorted. A non-empty
// pattern filters names with glob syntax (e.g. "checkout-*").
func List(dir, pattern string) ([]string, error) {
	var matcher glob.Glob
	if pattern != "" {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
		}
		matcher = g
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Name: "all", Dir: dir}
		}
		return nil, fmt.Errorf("reading runnable directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), fileExt)
		if matcher != nil && !matcher.Match(name) {
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}
