package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/cowork/internal/domain"
)

// ResourceTree holds the file/directory records of every room.
type ResourceTree struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Resource
	children map[string]map[string]struct{}
}

func NewResourceTree() *ResourceTree {
	return &ResourceTree{
		byID:     make(map[string]*domain.Resource),
		children: make(map[string]map[string]struct{}),
	}
}

// Create stores res. The parent, when given, must be a directory of the
// same room.
func (t *ResourceTree) Create(res domain.Resource) (domain.Resource, error) {
	if res.ID == "" || !res.Kind.Valid() {
		return domain.Resource{}, domain.ErrInvalidRequest
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[res.ID]; ok {
		return domain.Resource{}, domain.ErrResourceExists
	}
	if res.ParentID != "" {
		parent, ok := t.byID[res.ParentID]
		if !ok || parent.Kind != domain.KindDirectory || parent.RoomID != res.RoomID {
			return domain.Resource{}, fmt.Errorf("parent %q: %w", res.ParentID, domain.ErrInvalidRequest)
		}
	}
	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	res.Version = 1
	stored := res.Clone()
	t.byID[res.ID] = &stored
	if res.ParentID != "" {
		kids, ok := t.children[res.ParentID]
		if !ok {
			kids = make(map[string]struct{})
			t.children[res.ParentID] = kids
		}
		kids[res.ID] = struct{}{}
	}
	return stored.Clone(), nil
}

func (t *ResourceTree) Get(id string) (domain.Resource, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.byID[id]
	if !ok {
		return domain.Resource{}, false
	}
	return r.Clone(), true
}

// UpdateContent replaces the content of a file and bumps its version.
func (t *ResourceTree) UpdateContent(id, content string) (domain.Resource, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.byID[id]
	if !ok || r.Kind != domain.KindFile {
		return domain.Resource{}, domain.ErrInvalidRequest
	}
	c := content
	r.Content = &c
	r.UpdatedAt = time.Now().UTC()
	r.Version++
	return r.Clone(), nil
}

// Remove deletes id and, for directories, every descendant. The removed
// ids are returned deepest first.
func (t *ResourceTree) Remove(id string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.byID[id]
	if !ok {
		return nil
	}
	var removed []string
	var walk func(string)
	walk = func(cur string) {
		for kid := range t.children[cur] {
			walk(kid)
		}
		delete(t.children, cur)
		delete(t.byID, cur)
		removed = append(removed, cur)
	}
	walk(id)
	if r.ParentID != "" {
		delete(t.children[r.ParentID], id)
	}
	return removed
}

// Descendants lists every resource below id, not id itself.
func (t *ResourceTree) Descendants(id string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	var walk func(string)
	walk = func(cur string) {
		for kid := range t.children[cur] {
			out = append(out, kid)
			walk(kid)
		}
	}
	walk(id)
	return out
}

// InRoom lists the room's resources, directories first then by name.
func (t *ResourceTree) InRoom(room domain.RoomID) []domain.Resource {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []domain.Resource
	for _, r := range t.byID {
		if r.RoomID == room {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == domain.KindDirectory
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
