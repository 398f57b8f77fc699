package tree

import (
	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/model"
)

// StagedTree composes a base TreeLike with an overlay: Find checks the
// overlay first, then falls through to base. Used both for speculative
// edits (local changes staged over base) and for applying server updates
// (remote changes staged over base) — spec §4.1.
type StagedTree struct {
	Base    TreeLike
	Overlay TreeLike
}

func Stage(base, overlay TreeLike) *StagedTree {
	return &StagedTree{Base: base, Overlay: overlay}
}

func (s *StagedTree) Ids() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, id := range s.Overlay.Ids() {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range s.Base.Ids() {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *StagedTree) MaybeFind(id uuid.UUID) (*model.SignedFile, bool) {
	if f, ok := s.Overlay.MaybeFind(id); ok {
		return f, true
	}
	return s.Base.MaybeFind(id)
}

// FilterPredicate decides whether a node is visible through a Filter.
type FilterPredicate func(*model.SignedFile) bool

// Filter restricts a tree's visible ids to those matching a predicate —
// e.g. "owned by user X or shared with user X" — without copying any
// underlying data (spec §4.1).
type Filter struct {
	Tree      TreeLike
	Predicate FilterPredicate
}

func NewFilter(t TreeLike, pred FilterPredicate) *Filter {
	return &Filter{Tree: t, Predicate: pred}
}

func (f *Filter) Ids() []uuid.UUID {
	var out []uuid.UUID
	for _, id := range f.Tree.Ids() {
		node, ok := f.Tree.MaybeFind(id)
		if ok && f.Predicate(node) {
			out = append(out, id)
		}
	}
	return out
}

func (f *Filter) MaybeFind(id uuid.UUID) (*model.SignedFile, bool) {
	node, ok := f.Tree.MaybeFind(id)
	if !ok || !f.Predicate(node) {
		return nil, false
	}
	return node, true
}

// StagedTreeMut is a StagedTree whose overlay can be mutated in place. The
// overlay is always a MapTree so edits have somewhere to land; Insert
// records a new/replacement record, Pruned drops overlay entries that are
// now identical to base (nothing left to push), and Promote folds the
// overlay into a brand-new base (the atomic "commit" of spec §4.1).
type StagedTreeMut struct {
	Base    TreeLike
	Overlay MapTree
}

func NewStagedTreeMut(base TreeLike) *StagedTreeMut {
	return &StagedTreeMut{Base: base, Overlay: MapTree{}}
}

func (s *StagedTreeMut) Ids() []uuid.UUID {
	return Stage(s.Base, s.Overlay).Ids()
}

func (s *StagedTreeMut) MaybeFind(id uuid.UUID) (*model.SignedFile, bool) {
	return Stage(s.Base, s.Overlay).MaybeFind(id)
}

// Insert stages a new or replacement record for id.
func (s *StagedTreeMut) Insert(f *model.SignedFile) {
	s.Overlay[f.File.ID] = f
}

// Pruned returns a copy of the overlay with entries removed that are
// byte-identical to their base counterpart — there is nothing left to sync
// for those ids.
func (s *StagedTreeMut) Pruned() MapTree {
	out := MapTree{}
	for id, f := range s.Overlay {
		base, ok := s.Base.MaybeFind(id)
		if ok && base.File.Equal(f.File) && string(base.Signature) == string(f.Signature) {
			continue
		}
		out[id] = f
	}
	return out
}

// Promote folds the overlay into a new base tree, producing the value that
// becomes the next base_metadata after a successful sync (spec §3.3, §4.6).
func (s *StagedTreeMut) Promote() MapTree {
	out := MapTree{}
	for _, id := range s.Base.Ids() {
		f, _ := s.Base.MaybeFind(id)
		out[id] = f
	}
	for id, f := range s.Overlay {
		out[id] = f
	}
	return out
}
