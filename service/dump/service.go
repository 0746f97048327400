// Package dump writes point-in-time snapshots of the runtime (scheduler and
// memory statistics, process and page tables) as JSON documents under a base
// URL. Snapshots are diagnostics, not persistence: nothing is ever read back
// into the runtime.
package dump

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/toolbox"

	"github.com/cogvm/cogvm/internal/clock"
	"github.com/cogvm/cogvm/internal/idgen"
	"github.com/cogvm/cogvm/runtime/process"
	"github.com/cogvm/cogvm/service/memory"
	"github.com/cogvm/cogvm/service/scheduler"
)

// Snapshot is a single dump document.
type Snapshot struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	Scheduler scheduler.Stats    `json:"scheduler"`
	Memory    memory.Stats       `json:"memory"`
	Processes []*process.Process `json:"processes,omitempty"`
	Pages     []memory.Entry     `json:"pages,omitempty"`
}

// Service writes snapshots via afs, so baseURL may point at any scheme afs
// supports (file, mem, s3, gs, ...).
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.Mutex
}

// New creates a dump service rooted at baseURL.
func New(baseURL string) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("dump: base URL was empty")
	}
	fs := afs.New()
	ctx := context.Background()
	if exists, _ := fs.Exists(ctx, baseURL); !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("dump: failed to create base location: %w", err)
		}
	}
	return &Service{
		baseURL: url.Normalize(baseURL, file.Scheme),
		fs:      fs,
	}, nil
}

// Write uploads a snapshot, assigning it a fresh id, and returns the id.
func (s *Service) Write(ctx context.Context, snapshot *Snapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot.ID = idgen.New()
	snapshot.CreatedAt = clock.Now()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("dump: failed to marshal snapshot: %w", err)
	}
	location := s.snapshotURL(snapshot.ID)
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("dump: failed to upload snapshot %v: %w", location, err)
	}
	return snapshot.ID, nil
}

// Read loads a previously written snapshot by id.
func (s *Service) Read(ctx context.Context, id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.snapshotURL(id)
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("dump: failed to read snapshot %v: %w", location, err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("dump: failed to unmarshal snapshot %v: %w", location, err)
	}
	return &snapshot, nil
}

// List returns the ids of all snapshots under the base URL, sorted.
func (s *Service) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("dump: failed to list snapshots: %w", err)
	}
	var ids []string
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(object.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Describe loads a snapshot and flattens it into a generic map with empty
// values removed, convenient for embedding in reports.
func (s *Service) Describe(ctx context.Context, id string) (map[string]interface{}, error) {
	snapshot, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	var ret map[string]interface{}
	if err := toolbox.DefaultConverter.AssignConverted(&ret, snapshot); err != nil {
		return nil, fmt.Errorf("dump: failed to convert snapshot %v: %w", id, err)
	}
	return toolbox.DeleteEmptyKeys(ret), nil
}

func (s *Service) snapshotURL(id string) string {
	return path.Join(s.baseURL, id+".json")
}
