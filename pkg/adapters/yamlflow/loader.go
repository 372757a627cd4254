// Package yamlflow loads wizard flows from YAML files, one flow per file.
//
// The file name without extension is the flow ID:
//
//	flows/
//	  mood.yaml
//	  journal.yml
package yamlflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

var extensions = []string{".yaml", ".yml"}

// Loader implements ports.FlowLoader over a file system.
type Loader struct {
	fsys fs.FS
}

// New creates a Loader reading the top level of fsys.
func New(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// NewDir creates a Loader over a directory on disk.
func NewDir(dir string) *Loader {
	return New(os.DirFS(dir))
}

// GetFlow reads and decodes <id>.yaml (or .yml).
func (l *Loader) GetFlow(id string) (*domain.Flow, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: %q", domain.ErrFlowNotFound, id)
	}

	for _, ext := range extensions {
		name := id + ext
		data, err := fs.ReadFile(l.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		flow, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if flow.ID == "" {
			flow.ID = id
		}
		if flow.ID != id {
			return nil, fmt.Errorf("%w: %s declares id %q", domain.ErrInvalidFlow, name, flow.ID)
		}
		return flow, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, id)
}

// ListFlows returns the IDs of every YAML file, sorted.
func (l *Loader) ListFlows() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ext)
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: flow %q is defined in both %q and %q", id, prev, e.Name())
		}
		seen[id] = e.Name()
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
