package core

import (
	"sync"

	"github.com/google/uuid"
)

// Handle identifies a registered bounding volume.
type Handle string

func makeHandle() Handle {
	return Handle(uuid.NewString())
}

// DrawParams are the non-instanced draw arguments emitted for an object
// when it survives culling.
type DrawParams struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// Volume is one registered object: its world-space bounds plus the draw
// arguments to emit when visible.
type Volume struct {
	Handle Handle
	AABB   AABB
	Params DrawParams
}

// Snapshot is an immutable copy of the registry contents, safe to upload
// while the registry keeps mutating.
type Snapshot struct {
	Volumes []Volume
}

func (s Snapshot) Len() int {
	return len(s.Volumes)
}

// Registry tracks the bounding volumes of all renderable objects.
// Storage is dense so a snapshot uploads as one contiguous slice.
type Registry struct {
	mu      sync.Mutex
	volumes []Volume
	index   map[Handle]int
}

func NewRegistry() *Registry {
	return &Registry{
		index: make(map[Handle]int),
	}
}

// Add registers an object and returns its handle.
func (r *Registry) Add(aabb AABB, params DrawParams) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := makeHandle()
	r.index[h] = len(r.volumes)
	r.volumes = append(r.volumes, Volume{Handle: h, AABB: aabb, Params: params})
	return h
}

// Update replaces the bounding volume of an existing object.
func (r *Registry) Update(h Handle, aabb AABB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[h]
	if !ok {
		return ErrUnknownHandle
	}
	r.volumes[i].AABB = aabb
	return nil
}

// SetDrawParams replaces the draw arguments of an existing object.
func (r *Registry) SetDrawParams(h Handle, params DrawParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[h]
	if !ok {
		return ErrUnknownHandle
	}
	r.volumes[i].Params = params
	return nil
}

// Remove unregisters an object. The last entry is swapped into the freed
// slot to keep storage dense.
func (r *Registry) Remove(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[h]
	if !ok {
		return ErrUnknownHandle
	}

	last := len(r.volumes) - 1
	if i != last {
		r.volumes[i] = r.volumes[last]
		r.index[r.volumes[i].Handle] = i
	}
	r.volumes = r.volumes[:last]
	delete(r.index, h)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.volumes)
}

// Snapshot copies the current contents. In-flight frames built from an
// earlier snapshot are unaffected by later Add/Update/Remove calls.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Volume, len(r.volumes))
	copy(out, r.volumes)
	return Snapshot{Volumes: out}
}
