// Package pathops resolves slash-separated paths against a file tree and
// enumerates the paths it contains (spec §4.8). A path's first segment is
// always the owning account's root name; by convention the root's
// encrypted name is the account's username, so no separate identity lookup
// is needed to render or match it.
package pathops

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/tree"
)

// Filter restricts which entries ListPaths reports.
type Filter int

const (
	All Filter = iota
	DocumentsOnly
	FoldersOnly
	LeafNodesOnly
)

// PathToID resolves a slash-separated path to the id of the file it names.
// Resolution walks child-name lookups starting at the caller's own root; a
// Link encountered mid-walk is a synthesized entry point — its own name is
// matched as the path segment, but the *next* segment's children are drawn
// from its target, not from the link itself (glossary: "Link ... resolves
// to the target when walking paths"). A leading slash is accepted and
// ignored, and so is a trailing slash: it denotes a folder but isn't itself
// a path segment.
func PathToID(t tree.TreeLike, ctx tree.AccessContext, path string) (uuid.UUID, error) {
	lt := asLazy(t)

	segments, err := splitPath(path)
	if err != nil {
		return uuid.Nil, err
	}

	root, err := tree.RootOf(t, func(f *model.SignedFile) bool { return f.File.Owner.Equal(ctx.Self()) })
	if err != nil {
		return uuid.Nil, err
	}

	rootName, err := lt.Name(root.File.ID, ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if segments[0] != norm.NFC.String(rootName) {
		return uuid.Nil, model.New(model.ErrFileNonexistent, path)
	}

	matched := root.File.ID
	lookupFrom := root.File.ID

	for _, seg := range segments[1:] {
		child, err := findChildByName(t, lt, ctx, lookupFrom, seg)
		if err != nil {
			return uuid.Nil, err
		}
		matched = child.File.ID

		if child.File.FileType == model.Link {
			target, err := tree.Find(t, child.File.LinkTarget)
			if err != nil {
				return uuid.Nil, err
			}
			lookupFrom = target.File.ID
		} else {
			lookupFrom = matched
		}
	}

	final, err := tree.Find(t, matched)
	if err != nil {
		return uuid.Nil, err
	}
	if final.File.FileType == model.Link {
		return final.File.LinkTarget, nil
	}
	return matched, nil
}

// findChildByName scans parentID's children for one whose decrypted name
// (and, for a link, its own name — not its target's) equals name, skipping
// tombstoned entries.
func findChildByName(t tree.TreeLike, lt *tree.LazyTree, ctx tree.AccessContext, parentID uuid.UUID, name string) (*model.SignedFile, error) {
	for _, c := range tree.Children(t, parentID) {
		deleted, err := lt.CalculateDeleted(c.File.ID)
		if err != nil {
			return nil, err
		}
		if deleted {
			continue
		}

		cname, err := lt.Name(c.File.ID, ctx)
		if err != nil {
			return nil, err
		}
		if norm.NFC.String(cname) == name {
			return c, nil
		}
	}
	return nil, model.New(model.ErrFileNonexistent, name)
}

// splitPath validates and tokenizes path, stripping a single optional
// leading slash and a single optional trailing slash and rejecting any
// other empty segment. Each segment is
// NFC-normalized so a path typed or read back from a filesystem that
// stores names in NFD (notably macOS) still matches the NFC form a
// decrypted file name compares against (see the teacher's scanner.go,
// which normalizes for the same reason).
func splitPath(path string) ([]string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSuffix(path, "/"), "/")
	if trimmed == "" {
		return nil, model.New(model.ErrPathContainsEmptyFileName, path)
	}

	raw := strings.Split(trimmed, "/")
	segments := make([]string, len(raw))
	for i, s := range raw {
		if s == "" {
			return nil, model.New(model.ErrPathContainsEmptyFileName, path)
		}
		segments[i] = norm.NFC.String(s)
	}
	return segments, nil
}

// asLazy wraps t in a LazyTree unless it already is one, so repeated name
// and deletion lookups during a single walk share one memoized cache.
func asLazy(t tree.TreeLike) *tree.LazyTree {
	if lt, ok := t.(*tree.LazyTree); ok {
		return lt
	}
	return tree.NewLazyTree(t)
}

// ListPaths enumerates every non-deleted path reachable from the caller's
// own root, including everything visible through an accepted share: a Link
// is walked as a synthesized entry point, so a shared folder's contents
// appear under the link's own path rather than the sharer's (spec §4.8).
// The returned map is keyed by each entry's own id — a link's id for
// anything reached through one, not the id of what it points at.
func ListPaths(t tree.TreeLike, ctx tree.AccessContext, filter Filter) (map[uuid.UUID]string, error) {
	lt := asLazy(t)

	root, err := tree.RootOf(t, func(f *model.SignedFile) bool { return f.File.Owner.Equal(ctx.Self()) })
	if err != nil {
		return nil, err
	}

	rootName, err := lt.Name(root.File.ID, ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]string)
	visited := make(map[uuid.UUID]bool)
	if err := walk(t, lt, ctx, root.File.ID, "/"+rootName, filter, out, visited); err != nil {
		return nil, err
	}
	return out, nil
}

// walk records id's own path entry (subject to filter) and, if id denotes a
// folder (directly or through a link), recurses into its children. visited
// guards against a malformed tree's link cycle the way Ancestors guards
// against a malformed parent cycle — a defense of last resort, since
// invariants 7-8 already rule this out in a valid tree.
func walk(t tree.TreeLike, lt *tree.LazyTree, ctx tree.AccessContext, id uuid.UUID, pathSoFar string, filter Filter, out map[uuid.UUID]string, visited map[uuid.UUID]bool) error {
	if visited[id] {
		return model.New(model.ErrCycle, id.String())
	}
	visited[id] = true
	defer delete(visited, id)

	deleted, err := lt.CalculateDeleted(id)
	if err != nil {
		return err
	}
	if deleted {
		return nil
	}

	f, err := tree.Find(t, id)
	if err != nil {
		return err
	}

	effectiveType := f.File.FileType
	childSource := id
	if f.File.FileType == model.Link {
		target, err := tree.Find(t, f.File.LinkTarget)
		if err != nil {
			return err
		}
		effectiveType = target.File.FileType
		childSource = target.File.ID
	}

	// Only a folder's own path ends in "/"; a link's path does not, even
	// when its target is a folder.
	entryPath := pathSoFar
	if f.File.FileType == model.Folder {
		entryPath += "/"
	}

	children := tree.Children(t, childSource)
	leaf := len(children) == 0

	if matches(filter, effectiveType, leaf) {
		out[id] = entryPath
	}

	if effectiveType != model.Folder {
		return nil
	}

	for _, c := range children {
		name, err := lt.Name(c.File.ID, ctx)
		if err != nil {
			return err
		}
		if err := walk(t, lt, ctx, c.File.ID, pathSoFar+"/"+name, filter, out, visited); err != nil {
			return err
		}
	}
	return nil
}

func matches(filter Filter, fileType model.FileType, leaf bool) bool {
	switch filter {
	case DocumentsOnly:
		return fileType == model.Document
	case FoldersOnly:
		return fileType == model.Folder
	case LeafNodesOnly:
		return leaf
	default:
		return true
	}
}
