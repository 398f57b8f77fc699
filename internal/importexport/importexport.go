// Package importexport converts between the encrypted lockbook tree and a
// plain directory tree on disk (spec §2, "Import/export ... Disk tree <->
// lockbook tree"). Export decrypts a subtree to real files; Import walks a
// local directory and encrypts it into new, signed tree entries. Writes on
// both sides favor the teacher's own transfer idiom: a temp file plus an
// atomic rename rather than writing the destination in place
// (internal/sync/executor_transfer.go's .partial-then-rename).
package importexport

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/tree"
)

// DocumentReader is the subset of *docstore.Store Export needs.
type DocumentReader interface {
	Get(id uuid.UUID, hmac [32]byte) ([]byte, error)
}

// DocumentWriter is the subset of *docstore.Store Import needs.
type DocumentWriter interface {
	Insert(id uuid.UUID, hmac [32]byte, ciphertext []byte) error
}

// ProgressFunc is called once per file or folder processed, carrying that
// item's full local filesystem path (under destPath for Export, under the
// imported local path for Import); the path is not made relative to the
// operation's root.
type ProgressFunc func(relPath string)

// Export decrypts id (and, if it's a folder, everything beneath it) to
// destPath on disk. A Link is followed to its target, matching how
// pathops walks one (glossary: "resolves to the target when walking
// paths"). destPath is the file's own destination: callers exporting a
// folder get a directory at destPath containing its children; callers
// exporting a document get a single file there.
func Export(t tree.TreeLike, ctx tree.AccessContext, docs DocumentReader, id uuid.UUID, destPath string, progress ProgressFunc) error {
	lt := asLazy(t)

	deleted, err := lt.CalculateDeleted(id)
	if err != nil {
		return err
	}
	if deleted {
		return fmt.Errorf("importexport: export: %s is deleted", id)
	}

	f, err := tree.Find(t, id)
	if err != nil {
		return err
	}

	targetID := id
	if f.File.FileType == model.Link {
		targetID = f.File.LinkTarget
	}
	target, err := tree.Find(t, targetID)
	if err != nil {
		return err
	}

	if target.File.FileType == model.Folder {
		return exportFolder(t, lt, ctx, docs, targetID, destPath, progress)
	}
	return exportDocument(t, lt, ctx, docs, targetID, destPath, progress)
}

func exportFolder(t tree.TreeLike, lt *tree.LazyTree, ctx tree.AccessContext, docs DocumentReader, id uuid.UUID, destPath string, progress ProgressFunc) error {
	if err := os.MkdirAll(destPath, 0o755); err != nil {
		return fmt.Errorf("importexport: creating %s: %w", destPath, err)
	}
	if progress != nil {
		progress(destPath)
	}

	for _, c := range tree.Children(t, id) {
		deleted, err := lt.CalculateDeleted(c.File.ID)
		if err != nil {
			return err
		}
		if deleted {
			continue
		}

		name, err := lt.Name(c.File.ID, ctx)
		if err != nil {
			return err
		}

		childType := c.File.FileType
		childID := c.File.ID
		if childType == model.Link {
			linkTarget, err := tree.Find(t, c.File.LinkTarget)
			if err != nil {
				return err
			}
			childType = linkTarget.File.FileType
			childID = linkTarget.File.ID
		}

		childDest := filepath.Join(destPath, name)
		if childType == model.Folder {
			if err := exportFolder(t, lt, ctx, docs, childID, childDest, progress); err != nil {
				return err
			}
		} else {
			if err := exportDocument(t, lt, ctx, docs, childID, childDest, progress); err != nil {
				return err
			}
		}
	}
	return nil
}

func exportDocument(t tree.TreeLike, lt *tree.LazyTree, ctx tree.AccessContext, docs DocumentReader, id uuid.UUID, destPath string, progress ProgressFunc) error {
	f, err := tree.Find(t, id)
	if err != nil {
		return err
	}

	var plaintext []byte
	if f.File.HasDocumentHMAC {
		ciphertext, err := docs.Get(id, f.File.DocumentHMAC)
		if err != nil {
			return fmt.Errorf("importexport: reading content for %s: %w", id, err)
		}

		key, err := lt.DecryptKey(id, ctx)
		if err != nil {
			return err
		}

		plaintext, err = crypto.DecryptSym(key, ciphertext)
		if err != nil {
			return fmt.Errorf("importexport: decrypting %s: %w", id, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("importexport: creating parent dir for %s: %w", destPath, err)
	}

	tmpPath := destPath + ".partial"
	if err := os.WriteFile(tmpPath, plaintext, 0o644); err != nil {
		return fmt.Errorf("importexport: writing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("importexport: renaming %s to %s: %w", tmpPath, destPath, err)
	}

	if progress != nil {
		progress(destPath)
	}
	return nil
}

// Import walks localPath and encrypts it into new signed files parented
// under destParentID, an existing folder the caller already has write
// access to. Returns every newly signed file — new folders and documents
// alike — for the caller to fold into local_metadata and the document
// store's ciphertext already landed via docs.Insert. Entries are walked in
// os.ReadDir's name order, already sorted, so repeat imports of the same
// tree produce files in the same order (spec invariant 6).
func Import(t tree.TreeLike, ctx tree.AccessContext, docs DocumentWriter, destParentID uuid.UUID, localPath string, now time.Time, progress ProgressFunc) ([]*model.SignedFile, error) {
	lt := asLazy(t)

	parent, err := tree.Find(t, destParentID)
	if err != nil {
		return nil, err
	}
	if parent.File.FileType != model.Folder {
		return nil, model.New(model.ErrFileNotFolder, destParentID.String())
	}

	parentKey, err := lt.DecryptKey(destParentID, ctx)
	if err != nil {
		return nil, err
	}

	var created []*model.SignedFile
	if err := importInto(t, lt, ctx, docs, destParentID, parentKey, localPath, now, progress, &created); err != nil {
		return nil, err
	}
	return created, nil
}

func importInto(t tree.TreeLike, lt *tree.LazyTree, ctx tree.AccessContext, docs DocumentWriter, parentID uuid.UUID, parentKey [32]byte, localPath string, now time.Time, progress ProgressFunc, created *[]*model.SignedFile) error {
	entries, err := os.ReadDir(localPath)
	if err != nil {
		return fmt.Errorf("importexport: reading %s: %w", localPath, err)
	}

	for _, entry := range entries {
		// NFC-normalize for the encrypted name and tree lookups; childPath
		// below is built from the entry's original on-disk name so reads
		// still hit the real file, the same original-for-I/O /
		// normalized-for-storage split the teacher's scanner.go uses.
		fsName := entry.Name()
		name := norm.NFC.String(fsName)
		if taken, err := childNameTaken(t, lt, ctx, parentID, name); err != nil {
			return err
		} else if taken {
			return model.New(model.ErrPathTaken, name)
		}

		childKey, err := crypto.NewSymKey()
		if err != nil {
			return err
		}
		wrappedKey, err := crypto.EncryptSym(parentKey, childKey[:])
		if err != nil {
			return err
		}
		encName, err := crypto.EncryptSym(parentKey, []byte(name))
		if err != nil {
			return err
		}

		id := uuid.New()
		meta := model.FileMetadata{
			ID: id, Parent: parentID, Owner: ctx.Self(),
			EncryptedName:   encName,
			FolderAccessKey: wrappedKey,
			HasFolderKey:    true,
		}

		childPath := filepath.Join(localPath, fsName)

		if entry.IsDir() {
			meta.FileType = model.Folder
			signed, err := model.SignFile(meta, ctx.Seed(), now)
			if err != nil {
				return err
			}
			*created = append(*created, signed)
			if progress != nil {
				progress(childPath)
			}

			if err := importInto(t, lt, ctx, docs, id, childKey, childPath, now, progress, created); err != nil {
				return err
			}
			continue
		}

		meta.FileType = model.Document
		plaintext, err := os.ReadFile(childPath)
		if err != nil {
			return fmt.Errorf("importexport: reading %s: %w", childPath, err)
		}

		ciphertext, contentHMAC, err := crypto.SealDocument(childKey, plaintext)
		if err != nil {
			return err
		}
		if err := docs.Insert(id, contentHMAC, ciphertext); err != nil {
			return err
		}

		meta.DocumentHMAC = contentHMAC
		meta.HasDocumentHMAC = true

		signed, err := model.SignFile(meta, ctx.Seed(), now)
		if err != nil {
			return err
		}
		*created = append(*created, signed)
		if progress != nil {
			progress(childPath)
		}
	}
	return nil
}

func childNameTaken(t tree.TreeLike, lt *tree.LazyTree, ctx tree.AccessContext, parentID uuid.UUID, name string) (bool, error) {
	for _, c := range tree.Children(t, parentID) {
		deleted, err := lt.CalculateDeleted(c.File.ID)
		if err != nil {
			return false, err
		}
		if deleted {
			continue
		}
		existing, err := lt.Name(c.File.ID, ctx)
		if err != nil {
			return false, err
		}
		if norm.NFC.String(existing) == name {
			return true, nil
		}
	}
	return false, nil
}

func asLazy(t tree.TreeLike) *tree.LazyTree {
	if lt, ok := t.(*tree.LazyTree); ok {
		return lt
	}
	return tree.NewLazyTree(t)
}
