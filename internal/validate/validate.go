// Package validate enforces the structural and cryptographic invariants a
// committed tree must satisfy (spec §3.2, §4.3). Checks run in a fixed
// order and short-circuit on first failure; callers that staged an overlay
// for the purpose of validating it are expected to discard that overlay on
// any error returned here.
package validate

import (
	"time"

	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/tree"
)

// Options bounds the checks that need external context: the server clock
// used to validate signature timestamps and the skew tolerated around it.
type Options struct {
	ServerNow time.Time
	MaxSkew   time.Duration

	// DecryptName resolves an encrypted name to plaintext, given the id of
	// the folder it's wrapped under, letting checkUniqueSiblingNames catch
	// a real plaintext collision instead of only a byte-identical
	// ciphertext blob. Callers without key material (purely structural
	// checks) may leave it nil.
	DecryptName func(parentID uuid.UUID, encryptedName []byte) (string, error)
}

// Tree runs every structural check against t in spec order, returning the
// first violation found. A nil result means t is safe to commit.
func Tree(t tree.TreeLike, opts Options) error {
	if err := checkSignedRecords(t, opts); err != nil {
		return err
	}
	if err := checkSingleRootPerOwner(t); err != nil {
		return err
	}
	if err := checkAcyclic(t); err != nil {
		return err
	}
	if err := checkNoOrphans(t); err != nil {
		return err
	}
	if err := checkParentIsFolder(t); err != nil {
		return err
	}
	if err := checkUniqueSiblingNames(t, opts); err != nil {
		return err
	}
	if err := checkLinksAndShares(t); err != nil {
		return err
	}
	return nil
}

// checkSignedRecords verifies invariant 9: every record's signature and
// timestamp skew.
func checkSignedRecords(t tree.TreeLike, opts Options) error {
	for _, id := range t.Ids() {
		f, _ := t.MaybeFind(id)
		if f == nil {
			continue
		}
		if err := f.Verify(opts.ServerNow, opts.MaxSkew); err != nil {
			return model.Wrap(model.ErrSignatureInvalid, "file "+id.String(), err)
		}
	}
	return nil
}

// checkSingleRootPerOwner verifies invariant 1.
func checkSingleRootPerOwner(t tree.TreeLike) error {
	seen := make(map[string]uuid.UUID)
	for _, id := range t.Ids() {
		f, _ := t.MaybeFind(id)
		if f == nil || !f.File.IsRoot() {
			continue
		}
		owner := f.File.Owner.String()
		if _, ok := seen[owner]; ok {
			return model.New(model.ErrRootModificationInvalid, "owner "+owner+" has more than one root")
		}
		seen[owner] = id
		if f.File.FileType != model.Folder {
			return model.New(model.ErrRootModificationInvalid, "root "+id.String()+" is not a folder")
		}
		if _, ok := f.File.UserAccessKeys[owner]; !ok {
			return model.New(model.ErrRootModificationInvalid, "root "+id.String()+" missing owner access key")
		}
	}
	return nil
}

// checkAcyclic verifies invariant 2 for every node via tortoise-and-hare,
// so a cycle is caught in O(n) per node without allocating a visited set.
func checkAcyclic(t tree.TreeLike) error {
	for _, id := range t.Ids() {
		slow, fast := id, id
	walk:
		for {
			// A missing parent ends the walk; checkNoOrphans reports it.
			sf, ok := t.MaybeFind(slow)
			if !ok {
				break
			}
			if sf.File.IsRoot() {
				break
			}
			slow = sf.File.Parent

			for range [2]struct{}{} {
				ff, ok := t.MaybeFind(fast)
				if !ok {
					break walk
				}
				if ff.File.IsRoot() {
					slow = fast
					break
				}
				fast = ff.File.Parent
			}

			if slow == fast {
				sfID, _ := t.MaybeFind(slow)
				if sfID == nil || !sfID.File.IsRoot() {
					return model.New(model.ErrCycle, id.String())
				}
				break
			}
		}
	}
	return nil
}

// checkNoOrphans verifies invariant 3.
func checkNoOrphans(t tree.TreeLike) error {
	for _, id := range t.Ids() {
		f, _ := t.MaybeFind(id)
		if f == nil || f.File.IsRoot() {
			continue
		}
		if _, ok := t.MaybeFind(f.File.Parent); !ok {
			return model.New(model.ErrOrphan, id.String())
		}
	}
	return nil
}

// checkParentIsFolder verifies invariant 4.
func checkParentIsFolder(t tree.TreeLike) error {
	for _, id := range t.Ids() {
		f, _ := t.MaybeFind(id)
		if f == nil || f.File.IsRoot() {
			continue
		}
		parent, err := tree.Find(t, f.File.Parent)
		if err != nil {
			return err
		}
		if parent.File.FileType != model.Folder {
			return model.New(model.ErrNonFolderParent, id.String())
		}
	}
	return nil
}

// checkUniqueSiblingNames verifies invariant 5. When opts.DecryptName is
// set, names are decrypted and compared as plaintext — the only comparison
// that can actually detect two siblings sharing a display name, since
// crypto.EncryptSym draws a fresh nonce per call and so never produces
// equal ciphertext for two independent encryptions of the same plaintext.
// Without a decrypt function, this falls back to the weaker ciphertext
// comparison, which only catches an exact repeated blob.
func checkUniqueSiblingNames(t tree.TreeLike, opts Options) error {
	children := tree.AllChildrenMap(t)
	for parent, kids := range children {
		seen := make(map[string]bool)
		for _, k := range kids {
			if k.File.IsDeleted {
				continue
			}

			key := string(k.File.EncryptedName)
			if opts.DecryptName != nil {
				name, err := opts.DecryptName(parent, k.File.EncryptedName)
				if err != nil {
					return err
				}
				key = name
			}

			if seen[key] {
				return model.New(model.ErrNameConflict, "parent "+parent.String())
			}
			seen[key] = true
		}
	}
	return nil
}

// checkLinksAndShares verifies invariants 7 and 8: link targets must exist,
// be owned by someone else, not themselves be links, and have at most one
// link per target per owner; shared folders cannot contain a link or be
// moved into another shared folder owned by a different user.
func checkLinksAndShares(t tree.TreeLike) error {
	linkOwners := make(map[uuid.UUID]map[string]bool) // target -> set of linking owners

	for _, id := range t.Ids() {
		f, _ := t.MaybeFind(id)
		if f == nil || f.File.IsDeleted {
			continue
		}

		switch f.File.FileType {
		case model.Link:
			target, err := tree.Find(t, f.File.LinkTarget)
			if err != nil {
				return model.New(model.ErrLinkTargetNonexistent, id.String())
			}
			if target.File.Owner.Equal(f.File.Owner) {
				return model.New(model.ErrLinkTargetIsOwned, id.String())
			}
			if target.File.FileType == model.Link {
				return model.New(model.ErrLinkTargetNonexistent, "link to link: "+id.String())
			}

			owner := f.File.Owner.String()
			if linkOwners[f.File.LinkTarget] == nil {
				linkOwners[f.File.LinkTarget] = make(map[string]bool)
			}
			if linkOwners[f.File.LinkTarget][owner] {
				return model.New(model.ErrMultipleLinksToSameFile, id.String())
			}
			linkOwners[f.File.LinkTarget][owner] = true

		case model.Folder:
			if f.File.IsRoot() || !isShared(f) {
				continue
			}

			for _, child := range tree.Children(t, id) {
				if !child.File.IsDeleted && child.File.FileType == model.Link {
					return model.New(model.ErrLinkInSharedFolder, child.File.ID.String())
				}
			}

			parent, err := tree.Find(t, f.File.Parent)
			if err != nil {
				return err
			}
			if isShared(parent) && !parent.File.Owner.Equal(f.File.Owner) {
				return model.New(model.ErrSharedLink, id.String())
			}
		}
	}

	return nil
}

func isShared(f *model.SignedFile) bool {
	for key := range f.File.UserAccessKeys {
		if key != f.File.Owner.String() {
			return true
		}
	}
	return false
}

// CheckNoUpdatesToDeleted enforces that once base tombstones a file,
// overlay may not replace it with a non-deleted record (other than
// re-asserting the tombstone) — the only legal edit to a deleted file is
// to keep it deleted.
func CheckNoUpdatesToDeleted(base tree.TreeLike, overlay tree.TreeLike) error {
	for _, id := range overlay.Ids() {
		baseFile, ok := base.MaybeFind(id)
		if !ok || !baseFile.File.IsDeleted {
			continue
		}

		overlayFile, _ := overlay.MaybeFind(id)
		if overlayFile != nil && !overlayFile.File.IsDeleted {
			return model.New(model.ErrDeletedFileUpdated, id.String())
		}
	}
	return nil
}
