// Package state holds the application state of the admin backend. The state
// is an explicit value owned by a Store goroutine; it changes only when an
// Action is dispatched and reduced.
package state

import (
	"github.com/odyssey-erp/entityadmin/internal/entity"
	"github.com/odyssey-erp/entityadmin/internal/sqlapi"
)

// EntitiesState is the entity slice of the application state.
type EntitiesState struct {
	Items     []entity.Entity `json:"items"`
	Total     int             `json:"total"`
	Selected  *entity.Entity  `json:"selected,omitempty"`
	Hierarchy []sqlapi.Node   `json:"hierarchy"`
	Loading   bool            `json:"loading"`
	Error     string          `json:"error,omitempty"`
	Success   string          `json:"success,omitempty"`
}

// State is the full application state. Values returned by the Store share
// slices with later states and must be treated as read-only.
type State struct {
	Entities EntitiesState `json:"entities"`
	Route    string        `json:"route"`
	Version  uint64        `json:"version"`
}

// Find returns the listed entity with id.
func (s State) Find(id string) (entity.Entity, bool) {
	for _, e := range s.Entities.Items {
		if e.ID == id {
			return e, true
		}
	}
	return entity.Entity{}, false
}

// Action is a state transition. The set of actions is closed: only types in
// this package implement it.
type Action interface {
	reduce(State) State
}

// Reduce applies a to s and returns the next state. s is not modified.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	next := a.reduce(s)
	next.Version = s.Version + 1
	return next
}

// SetLoading toggles the loading flag.
type SetLoading struct{ Loading bool }

func (a SetLoading) reduce(s State) State {
	s.Entities.Loading = a.Loading
	if a.Loading {
		s.Entities.Error = ""
		s.Entities.Success = ""
	}
	return s
}

// SetError stores the user-facing error message.
type SetError struct{ Message string }

func (a SetError) reduce(s State) State {
	s.Entities.Error = a.Message
	s.Entities.Success = ""
	return s
}

// SetSuccess stores the user-facing success message.
type SetSuccess struct{ Message string }

func (a SetSuccess) reduce(s State) State {
	s.Entities.Success = a.Message
	s.Entities.Error = ""
	return s
}

// ClearMessages drops error and success messages.
type ClearMessages struct{}

func (ClearMessages) reduce(s State) State {
	s.Entities.Error = ""
	s.Entities.Success = ""
	return s
}

// SetEntities replaces the listed entities.
type SetEntities struct {
	Items []entity.Entity
	Total int
}

func (a SetEntities) reduce(s State) State {
	s.Entities.Items = append([]entity.Entity(nil), a.Items...)
	s.Entities.Total = a.Total
	return s
}

// SetSelected sets or clears the entity shown in detail.
type SetSelected struct{ Entity *entity.Entity }

func (a SetSelected) reduce(s State) State {
	if a.Entity == nil {
		s.Entities.Selected = nil
		return s
	}
	e := *a.Entity
	s.Entities.Selected = &e
	return s
}

// SetHierarchy replaces the entity tree.
type SetHierarchy struct{ Nodes []sqlapi.Node }

func (a SetHierarchy) reduce(s State) State {
	s.Entities.Hierarchy = append([]sqlapi.Node(nil), a.Nodes...)
	return s
}

// PatchEntity applies a partial update to the listed and selected copies of
// an entity.
type PatchEntity struct{ Patch entity.PartialUpdate }

func (a PatchEntity) reduce(s State) State {
	id := a.Patch.EntityID()
	items := make([]entity.Entity, len(s.Entities.Items))
	for i, e := range s.Entities.Items {
		if e.ID == id {
			e = a.Patch.Apply(e)
		}
		items[i] = e
	}
	s.Entities.Items = items
	if sel := s.Entities.Selected; sel != nil && sel.ID == id {
		patched := a.Patch.Apply(*sel)
		s.Entities.Selected = &patched
	}
	return s
}

// Navigate records the route the UI should show next.
type Navigate struct{ Route string }

func (a Navigate) reduce(s State) State {
	s.Route = a.Route
	return s
}
