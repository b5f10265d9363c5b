package model

import (
	"time"
)

// NavigationState holds the tab and cross-level selection.
// It is written only by the navigation tree and passed down by value.
type NavigationState struct {
	ActiveTab          Tab     `json:"activeTab"`
	SelectedDatabase   *Entity `json:"selectedDatabase,omitempty"`
	SelectedCollection *Entity `json:"selectedCollection,omitempty"`
}

// NewNavigationState returns the session start state
func NewNavigationState() NavigationState {
	return NavigationState{ActiveTab: TabDatabase}
}

// IsSelected reports whether e is the selection for its level
func (n NavigationState) IsSelected(e Entity) bool {
	switch e.Kind {
	case KindDatabase:
		return e.SameAs(n.SelectedDatabase)
	case KindCollection, KindBucket:
		return e.SameAs(n.SelectedCollection)
	}
	return false
}

// Selected returns the selection for the level holding kind
func (n NavigationState) Selected(kind EntityKind) *Entity {
	if kind == KindDatabase {
		return n.SelectedDatabase
	}
	return n.SelectedCollection
}

// ListState is one fetched list. It is replaced, never edited.
type ListState struct {
	Items         []Entity  `json:"items"`
	LastFetchedAt time.Time `json:"lastFetchedAt"`
}

// NewListState copies items so later changes to the slice cannot leak in
func NewListState(items []Entity, fetchedAt time.Time) ListState {
	copied := make([]Entity, len(items))
	copy(copied, items)
	return ListState{Items: copied, LastFetchedAt: fetchedAt}
}

// Loaded reports whether a fetch has ever succeeded
func (l ListState) Loaded() bool {
	return !l.LastFetchedAt.IsZero()
}

// Contains reports whether an entity with the same identity is listed
func (l ListState) Contains(e Entity) bool {
	for _, item := range l.Items {
		if item.Key() == e.Key() {
			return true
		}
	}
	return false
}

// Find looks an entity up by name
func (l ListState) Find(name string) (Entity, bool) {
	for _, item := range l.Items {
		if item.Name == name {
			return item, true
		}
	}
	return Entity{}, false
}

// Names returns the item names in list order
func (l ListState) Names() []string {
	names := make([]string, len(l.Items))
	for i, item := range l.Items {
		names[i] = item.Name
	}
	return names
}

// ModalPhase is the lifecycle phase of a confirm modal
type ModalPhase string

const (
	PhaseClosed     ModalPhase = "closed"
	PhaseOpen       ModalPhase = "open"
	PhaseSubmitting ModalPhase = "submitting"
	PhaseSucceeded  ModalPhase = "succeeded"
	PhaseFailed     ModalPhase = "failed"
)

// ModalMode selects between destructive confirm and create form
type ModalMode string

const (
	ModeDelete ModalMode = "delete"
	ModeCreate ModalMode = "create"
)

// ModalState is owned by a single confirm modal
type ModalState struct {
	Phase   ModalPhase `json:"phase"`
	Mode    ModalMode  `json:"mode"`
	Target  *Entity    `json:"target,omitempty"`
	Message string     `json:"message,omitempty"`
}

// IsOpen reports whether the modal is visible
func (m ModalState) IsOpen() bool {
	return m.Phase != PhaseClosed && m.Phase != ""
}
