package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// File persists history as a JSON array of strings.
type File struct {
	path string
}

// DefaultPath returns ~/.nocterm/history.json.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".nocterm", "history.json"), nil
}

// NewFile returns a store at path; "~" is expanded.
func NewFile(path string) (*File, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand history path: %w", err)
	}
	return &File{path: expanded}, nil
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Load reads saved lines. A missing or corrupt file yields an empty
// history and no error.
func (f *File) Load() []string {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("history load failed", "path", f.path, "err", err)
		}
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		slog.Warn("history file corrupt, starting empty", "path", f.path, "err", err)
		return nil
	}
	return lines
}

// Save writes lines, creating the directory if needed.
func (f *File) Save(lines []string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if lines == nil {
		lines = []string{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}
