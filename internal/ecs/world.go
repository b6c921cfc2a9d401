// Package ecs provides the entity/component world store.
// Each entity owns exactly one component; composite concepts (a settlement
// and its market) are separate entities cross-referenced by id.
package ecs

import (
	"errors"
	"fmt"
)

// EntityID is an opaque handle. IDs start at 1 and are never recycled.
type EntityID uint64

// NilEntity is the zero handle; no entity ever has it.
const NilEntity EntityID = 0

// Kind names a component variant.
type Kind string

// Component is implemented by every value stored in the world.
type Component interface {
	Kind() Kind
}

var (
	// ErrNotFound means no component is stored under the id.
	ErrNotFound = errors.New("ecs: entity not found")
	// ErrWrongKind means the stored component is not of the requested type.
	ErrWrongKind = errors.New("ecs: component has wrong kind")
)

// World owns all entities. Slot i holds the component of EntityID i+1.
type World struct {
	slots []Component
}

// NewWorld creates an empty World.
func NewWorld() *World {
	return &World{slots: make([]Component, 0, 64)}
}

// Create mints a new entity with no component yet.
func (w *World) Create() EntityID {
	w.slots = append(w.slots, nil)
	return EntityID(len(w.slots))
}

// Spawn creates an entity and stores c on it.
func (w *World) Spawn(c Component) EntityID {
	id := w.Create()
	w.slots[id-1] = c
	return id
}

// Set stores c on an existing entity, replacing any previous component.
func (w *World) Set(id EntityID, c Component) error {
	if id == NilEntity || int(id) > len(w.slots) {
		return fmt.Errorf("set %d: %w", id, ErrNotFound)
	}
	w.slots[id-1] = c
	return nil
}

// Put stores c under id, growing the store when id is beyond the last
// created entity. Used when restoring a snapshot.
func (w *World) Put(id EntityID, c Component) error {
	if id == NilEntity {
		return fmt.Errorf("put: %w", ErrNotFound)
	}
	for int(id) > len(w.slots) {
		w.slots = append(w.slots, nil)
	}
	w.slots[id-1] = c
	return nil
}

// Lookup returns the raw component stored under id.
func (w *World) Lookup(id EntityID) (Component, error) {
	if id == NilEntity || int(id) > len(w.slots) || w.slots[id-1] == nil {
		return nil, fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	return w.slots[id-1], nil
}

// Len returns the number of created entities.
func (w *World) Len() int {
	return len(w.slots)
}

// Range calls fn for every populated entity in ascending id order.
// Returning false stops the walk.
func (w *World) Range(fn func(id EntityID, c Component) bool) {
	for i, c := range w.slots {
		if c == nil {
			continue
		}
		if !fn(EntityID(i+1), c) {
			return
		}
	}
}

// Get returns the component of type T stored under id.
func Get[T Component](w *World, id EntityID) (T, error) {
	var zero T
	c, err := w.Lookup(id)
	if err != nil {
		return zero, err
	}
	t, ok := c.(T)
	if !ok {
		return zero, fmt.Errorf("entity %d is %s, not %T: %w", id, c.Kind(), zero, ErrWrongKind)
	}
	return t, nil
}

// Entry pairs an entity id with its typed component.
type Entry[T Component] struct {
	ID        EntityID
	Component T
}

// All returns every component of type T in ascending id order.
func All[T Component](w *World) []Entry[T] {
	var out []Entry[T]
	w.Range(func(id EntityID, c Component) bool {
		if t, ok := c.(T); ok {
			out = append(out, Entry[T]{ID: id, Component: t})
		}
		return true
	})
	return out
}
