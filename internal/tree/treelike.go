// Package tree implements the generic tree-like abstraction the engine
// layers everything else on top of: a read-only indexed collection of
// signed file records keyed by id, plus the Stage/Filter composition
// operators and the lazy/staged views built on them (spec §4.1-§4.2).
package tree

import (
	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/model"
)

// TreeLike is any read-only indexed collection of signed file records.
// Every higher layer (lazy tree, staged tree, owned-file views) is a
// TreeLike built by composing other TreeLikes, never a bespoke type —
// Ancestors/Descendants/Children are implemented once against this
// interface (spec §4.1, §9).
type TreeLike interface {
	Ids() []uuid.UUID
	MaybeFind(id uuid.UUID) (*model.SignedFile, bool)
}

// Find looks up id and returns a FileNonexistent error if absent.
func Find(t TreeLike, id uuid.UUID) (*model.SignedFile, error) {
	f, ok := t.MaybeFind(id)
	if !ok {
		return nil, model.New(model.ErrFileNonexistent, id.String())
	}
	return f, nil
}

// MapTree is the base TreeLike implementation: a flat id->node map. Parent
// edges are data (a field on FileMetadata), not object references, so
// cycles are just malformed data rather than something the type system
// rules out — validation catches them (spec §9).
type MapTree map[uuid.UUID]*model.SignedFile

func (m MapTree) Ids() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

func (m MapTree) MaybeFind(id uuid.UUID) (*model.SignedFile, bool) {
	f, ok := m[id]
	return f, ok
}

// Ancestors returns every id on the path from id up to (but not including)
// the root, stopping at the first self-parent it finds. Detects cycles by
// capping iterations at len(tree)+1; callers that need a hard cycle error
// should use validate.Tree instead — this is the "just walk it"
// helper for trusted, already-validated trees.
func Ancestors(t TreeLike, id uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID

	cur := id
	limit := len(t.Ids()) + 1
	for i := 0; i < limit; i++ {
		f, err := Find(t, cur)
		if err != nil {
			return nil, err
		}
		if f.File.IsRoot() {
			return out, nil
		}
		out = append(out, f.File.Parent)
		cur = f.File.Parent
	}

	return nil, model.New(model.ErrCycle, id.String())
}

// IsDescendantOf reports whether id is maybeAncestor or a descendant of it.
func IsDescendantOf(t TreeLike, id, maybeAncestor uuid.UUID) (bool, error) {
	if id == maybeAncestor {
		return true, nil
	}

	ancestors, err := Ancestors(t, id)
	if err != nil {
		return false, err
	}
	for _, a := range ancestors {
		if a == maybeAncestor {
			return true, nil
		}
	}
	return false, nil
}

// Children returns the direct children of id.
func Children(t TreeLike, id uuid.UUID) []*model.SignedFile {
	var out []*model.SignedFile
	for _, cid := range t.Ids() {
		f, _ := t.MaybeFind(cid)
		if f != nil && !f.File.IsRoot() && f.File.Parent == id {
			out = append(out, f)
		}
	}
	return out
}

// AllChildrenMap indexes every node by its parent id, for callers (like
// validation) that otherwise do an O(n^2) Children scan per folder.
func AllChildrenMap(t TreeLike) map[uuid.UUID][]*model.SignedFile {
	out := make(map[uuid.UUID][]*model.SignedFile)
	for _, id := range t.Ids() {
		f, _ := t.MaybeFind(id)
		if f == nil || f.File.IsRoot() {
			continue
		}
		out[f.File.Parent] = append(out[f.File.Parent], f)
	}
	return out
}

// Descendants returns every id reachable from id by following children,
// including id itself.
func Descendants(t TreeLike, id uuid.UUID) []uuid.UUID {
	childMap := AllChildrenMap(t)

	out := []uuid.UUID{id}
	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, child := range childMap[cur] {
			out = append(out, child.File.ID)
			queue = append(queue, child.File.ID)
		}
	}

	return out
}

// RootOf finds the single root owned by owner, returning RootNonexistent if
// none exists (spec §3.2 invariant 1 — exactly one per owner in a valid tree).
func RootOf(t TreeLike, owner func(*model.SignedFile) bool) (*model.SignedFile, error) {
	for _, id := range t.Ids() {
		f, _ := t.MaybeFind(id)
		if f != nil && f.File.IsRoot() && owner(f) {
			return f, nil
		}
	}
	return nil, model.New(model.ErrRootNonexistent, "no root for owner")
}
