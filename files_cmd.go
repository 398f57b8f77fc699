package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/importexport"
	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/pathops"
	"github.com/lockbookgo/lbcore/internal/tree"
)

func newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"f"},
		Short:   "Work with files in the encrypted tree",
	}

	cmd.AddCommand(newFilesLsCmd())
	cmd.AddCommand(newFilesMkdirCmd())
	cmd.AddCommand(newFilesRmCmd())
	cmd.AddCommand(newFilesImportCmd())
	cmd.AddCommand(newFilesExportCmd())

	return cmd
}

// workingTree returns the merged view of base metadata overlaid with
// not-yet-synced local edits — the same view the sync engine builds for its
// own localTree before merging (engine.go's Merging phase), reused here so
// offline file commands see their own pending edits (spec §3.3).
func workingTree(cc *CLIContext) (*tree.LazyTree, error) {
	base, err := cc.Store.BaseMetadata()
	if err != nil {
		return nil, err
	}
	local, err := cc.Store.LocalMetadata()
	if err != nil {
		return nil, err
	}

	staged := tree.Stage(tree.MapTree(base), tree.MapTree(local))
	return tree.NewLazyTree(staged), nil
}

func newFilesLsCmd() *cobra.Command {
	var flagLong bool

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List paths in the encrypted tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc := mustCLIContext(ctx)
			kc, _, _, err := cc.Account(ctx)
			if err != nil {
				return err
			}

			lt, err := workingTree(cc)
			if err != nil {
				return err
			}

			paths, err := pathops.ListPaths(lt, kc, pathops.All)
			if err != nil {
				return err
			}

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}

			var sorted []string
			for _, p := range paths {
				if prefix == "" || strings.HasPrefix(p, prefix) {
					sorted = append(sorted, p)
				}
			}
			sort.Strings(sorted)

			for _, p := range sorted {
				fmt.Println(p)
			}
			if flagLong {
				cc.Statusf("%d entries\n", len(sorted))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flagLong, "long", "l", false, "print an entry count after the listing")
	return cmd
}

func newFilesMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder at path, creating missing parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMkdir(cmd.Context(), args[0])
		},
	}
}

func runMkdir(ctx context.Context, path string) error {
	cc := mustCLIContext(ctx)
	kc, _, _, err := cc.Account(ctx)
	if err != nil {
		return err
	}

	lt, err := workingTree(cc)
	if err != nil {
		return err
	}

	parentID, parentKey, missing, err := resolveParent(lt, kc, path)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return model.New(model.ErrPathTaken, path)
	}

	now := time.Now()
	for _, name := range missing {
		if err := model.ValidateName(name); err != nil {
			return err
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

		childID := uuid.New()
		meta := model.FileMetadata{
			ID: childID, Parent: parentID, FileType: model.Folder, Owner: kc.Self(),
			EncryptedName:   encName,
			FolderAccessKey: wrappedKey,
			HasFolderKey:    true,
		}
		signed, err := model.SignFile(meta, kc.Seed(), now)
		if err != nil {
			return err
		}
		if err := cc.Store.UpsertLocal(signed); err != nil {
			return err
		}
		lt.Invalidate()

		parentID, parentKey = childID, childKey
	}

	cc.Statusf("Created %s\n", path)
	return nil
}

// resolveParent walks path's segments as far as they already exist and
// returns the deepest existing folder's id and key plus the remaining
// segments that still need creating — the same "walk what exists, create
// the rest" shape mkdir -p uses, expressed against the decrypted tree
// instead of a filesystem.
func resolveParent(lt *tree.LazyTree, ctx tree.AccessContext, path string) (uuid.UUID, [32]byte, []string, error) {
	trimmed := strings.TrimSuffix(path, "/")
	segments := strings.Split(strings.TrimPrefix(trimmed, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return uuid.Nil, [32]byte{}, nil, model.New(model.ErrPathContainsEmptyFileName, path)
	}

	root, err := tree.RootOf(lt, func(f *model.SignedFile) bool { return f.File.Owner.Equal(ctx.Self()) })
	if err != nil {
		return uuid.Nil, [32]byte{}, nil, err
	}

	rootName, err := lt.Name(root.File.ID, ctx)
	if err != nil {
		return uuid.Nil, [32]byte{}, nil, err
	}
	if segments[0] != norm.NFC.String(rootName) {
		return uuid.Nil, [32]byte{}, nil, model.New(model.ErrFileNonexistent, path)
	}

	curID := root.File.ID
	curKey, err := lt.DecryptKey(curID, ctx)
	if err != nil {
		return uuid.Nil, [32]byte{}, nil, err
	}

	remaining := segments[1:]
	for i, seg := range remaining {
		child, found, err := findChild(lt, ctx, curID, seg)
		if err != nil {
			return uuid.Nil, [32]byte{}, nil, err
		}
		if !found {
			return curID, curKey, remaining[i:], nil
		}
		if child.File.FileType != model.Folder {
			return uuid.Nil, [32]byte{}, nil, model.New(model.ErrFileNotFolder, seg)
		}

		curID = child.File.ID
		curKey, err = lt.DecryptKey(curID, ctx)
		if err != nil {
			return uuid.Nil, [32]byte{}, nil, err
		}
	}

	return curID, curKey, nil, nil
}

func findChild(lt *tree.LazyTree, ctx tree.AccessContext, parentID uuid.UUID, name string) (*model.SignedFile, bool, error) {
	for _, c := range tree.Children(lt, parentID) {
		deleted, err := lt.CalculateDeleted(c.File.ID)
		if err != nil {
			return nil, false, err
		}
		if deleted {
			continue
		}
		cname, err := lt.Name(c.File.ID, ctx)
		if err != nil {
			return nil, false, err
		}
		if cname == name {
			return c, true, nil
		}
	}
	return nil, false, nil
}

func newFilesRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Tombstone the file at path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(cmd.Context(), args[0])
		},
	}
}

func runRm(ctx context.Context, path string) error {
	cc := mustCLIContext(ctx)
	kc, _, _, err := cc.Account(ctx)
	if err != nil {
		return err
	}

	lt, err := workingTree(cc)
	if err != nil {
		return err
	}

	id, err := pathops.PathToID(lt, kc, path)
	if err != nil {
		return err
	}

	f, err := tree.Find(lt, id)
	if err != nil {
		return err
	}

	meta := f.File.Clone()
	meta.IsDeleted = true
	signed, err := model.SignFile(meta, kc.Seed(), time.Now())
	if err != nil {
		return err
	}
	if err := cc.Store.UpsertLocal(signed); err != nil {
		return err
	}

	cc.Statusf("Removed %s\n", path)
	return nil
}

func newFilesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <local-dir> <path>",
		Short: "Encrypt a local directory tree into the folder at path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0], args[1])
		},
	}
}

func runImport(ctx context.Context, localDir, destPath string) error {
	cc := mustCLIContext(ctx)
	kc, _, _, err := cc.Account(ctx)
	if err != nil {
		return err
	}

	lt, err := workingTree(cc)
	if err != nil {
		return err
	}

	destID, err := pathops.PathToID(lt, kc, destPath)
	if err != nil {
		return err
	}

	progress := func(relPath string) {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  %s\n", relPath)
		}
	}

	created, err := importexport.Import(lt, kc, cc.Docs, destID, localDir, time.Now(), progress)
	if err != nil {
		return err
	}

	for _, f := range created {
		if err := cc.Store.UpsertLocal(f); err != nil {
			return err
		}
		if f.File.FileType == model.Document {
			if err := recordWrite(cc, f.File.ID); err != nil {
				return err
			}
		}
	}

	cc.Statusf("Imported %d entries into %s\n", len(created), destPath)
	return nil
}

func newFilesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <path> <local-dir>",
		Short: "Decrypt the file or folder at path onto local disk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), args[0], args[1])
		},
	}
}

func runExport(ctx context.Context, srcPath, localDir string) error {
	cc := mustCLIContext(ctx)
	kc, _, _, err := cc.Account(ctx)
	if err != nil {
		return err
	}

	lt, err := workingTree(cc)
	if err != nil {
		return err
	}

	srcID, err := pathops.PathToID(lt, kc, srcPath)
	if err != nil {
		return err
	}

	progress := func(relPath string) {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  %s\n", relPath)
		}
	}

	if err := importexport.Export(lt, kc, cc.Docs, srcID, localDir, progress); err != nil {
		return err
	}
	if err := recordRead(cc, srcID); err != nil {
		return err
	}

	cc.Statusf("Exported %s to %s\n", srcPath, localDir)
	return nil
}
