package perception

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Snapshot is the on-disk form read by SnapshotProvider.
type Snapshot struct {
	Window Window `json:"window"`

	// Focused is the ID of the node with keyboard focus.
	Focused string `json:"focused,omitempty"`

	Root *Node `json:"root"`
}

// SnapshotProvider is a TreeProvider backed by a JSON snapshot file that an
// external agent keeps current. The file is re-read when its modification
// time or size changes.
type SnapshotProvider struct {
	path string

	mu      sync.RWMutex
	snap    *Snapshot
	modTime time.Time
	size    int64
}

// NewSnapshotProvider returns a provider for path. The file is read lazily.
func NewSnapshotProvider(path string) *SnapshotProvider {
	return &SnapshotProvider{path: path}
}

// load returns the current snapshot, re-reading the file if it changed.
func (p *SnapshotProvider) load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(p.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat tree snapshot")
	}

	p.mu.RLock()
	if p.snap != nil && info.ModTime().Equal(p.modTime) && info.Size() == p.size {
		snap := p.snap
		p.mu.RUnlock()
		return snap, nil
	}
	p.mu.RUnlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tree snapshot")
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tree snapshot %s", p.path)
	}

	p.mu.Lock()
	p.snap = &snap
	p.modTime = info.ModTime()
	p.size = info.Size()
	p.mu.Unlock()
	return &snap, nil
}

// Tree implements TreeProvider.
func (p *SnapshotProvider) Tree(ctx context.Context) (*Node, error) {
	snap, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Root == nil {
		return nil, errors.New("tree snapshot has no root")
	}
	return snap.Root, nil
}

// Focused implements TreeProvider.
func (p *SnapshotProvider) Focused(ctx context.Context) (*Node, bool, error) {
	snap, err := p.load(ctx)
	if err != nil {
		return nil, false, err
	}
	if snap.Focused == "" {
		return nil, false, nil
	}
	n := findNode(snap.Root, snap.Focused)
	return n, n != nil, nil
}

// Foreground implements TreeProvider.
func (p *SnapshotProvider) Foreground(ctx context.Context) (Window, error) {
	snap, err := p.load(ctx)
	if err != nil {
		return Window{}, err
	}
	return snap.Window, nil
}

func findNode(n *Node, id string) *Node {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return n
	}
	for _, c := range n.Children {
		if found := findNode(c, id); found != nil {
			return found
		}
	}
	return nil
}
