package update

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandeepkv93/tasker/internal/model"
)

// exportFile is the export layout. TasksUpdatedAt is only set when the
// storage backend records write times.
type exportFile struct {
	ExportedAt     time.Time        `json:"exportedAt"`
	TasksUpdatedAt *time.Time       `json:"tasksUpdatedAt,omitempty"`
	Tasks          []model.Task     `json:"tasks"`
	Categories     []model.Category `json:"categories"`
}

// writeExport replaces path atomically with a JSON snapshot of the store.
func writeExport(path string, snap exportFile) error {
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, append(payload, '\n'))
}

// writeFileAtomic writes data to a sibling temp file and renames it over
// path, creating parent directories as needed.
func writeFileAtomic(path string, data []byte) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("file path is required")
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
