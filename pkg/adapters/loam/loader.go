// Package loam loads flows from a Loam document repository. Each flow is a
// Markdown (or JSON/YAML) document: the metadata is the flow definition and
// the Markdown body, when present, becomes its description.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/stepwise/pkg/adapters/yamlflow"
	"github.com/aretw0/stepwise/pkg/domain"
)

// Loader adapts the Loam library to the ports.FlowLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[FlowMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[FlowMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve flows dir: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open loam repo at %s: %w", absPath, err)
	}
	return New(loam.NewTypedRepository[FlowMetadata](repo)), nil
}

// GetFlow retrieves and decodes one flow document.
// Loam resolves "mood" to mood.md (or .json, .yaml).
func (l *Loader) GetFlow(id string) (*domain.Flow, error) {
	ctx := context.Background()

	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFlowNotFound, id, err)
	}
	if !doc.Data.IsFlow() {
		return nil, fmt.Errorf("%w: %s is not a flow document", domain.ErrFlowNotFound, id)
	}

	flowID := flowIDOf(doc.ID, doc.Data)
	if flowID != trimExtension(id) {
		return nil, fmt.Errorf("%w: document %s declares id %q", domain.ErrInvalidFlow, doc.ID, flowID)
	}

	flow, err := yamlflow.DecodeMap(doc.Data.toMap(flowID, strings.TrimSpace(doc.Content)))
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", flowID, err)
	}
	return flow, nil
}

// ListFlows lists every flow document in the repository.
func (l *Loader) ListFlows() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		if !doc.Data.IsFlow() {
			continue
		}
		id := flowIDOf(doc.ID, doc.Data)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: flow '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func flowIDOf(docID string, meta FlowMetadata) string {
	if meta.ID != "" {
		return trimExtension(meta.ID)
	}
	return trimExtension(docID)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable. Each event carries the ID of the changed document.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
