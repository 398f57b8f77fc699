package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/pathops"
	"github.com/lockbookgo/lbcore/internal/tree"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Grant, list, and accept shares",
	}

	cmd.AddCommand(newSharePendingCmd())
	cmd.AddCommand(newShareGrantCmd())
	cmd.AddCommand(newShareAcceptCmd())

	return cmd
}

func newShareGrantCmd() *cobra.Command {
	var flagWrite bool

	cmd := &cobra.Command{
		Use:   "grant <path> <username>",
		Short: "Share the file or folder at path with another user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShareGrant(cmd.Context(), args[0], args[1], flagWrite)
		},
	}

	cmd.Flags().BoolVar(&flagWrite, "write", false, "grant write access instead of read-only")
	return cmd
}

func runShareGrant(ctx context.Context, path, username string, write bool) error {
	cc := mustCLIContext(ctx)
	kc, rc, _, err := cc.Account(ctx)
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
	if !f.File.Owner.Equal(kc.Self()) {
		return model.New(model.ErrInsufficientPermission, "only the owner can grant a share for "+path)
	}

	recipientPub, err := rc.GetPublicKey(ctx, username)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", username, err)
	}

	fileKey, err := lt.DecryptKey(id, kc)
	if err != nil {
		return err
	}
	wrappedKey, err := kc.EncryptFor(recipientPub, fileKey[:])
	if err != nil {
		return err
	}

	mode := model.Read
	if write {
		mode = model.Write
	}

	meta := f.File.Clone()
	if meta.UserAccessKeys == nil {
		meta.UserAccessKeys = make(map[string]model.UserAccessKey)
	}
	meta.UserAccessKeys[recipientPub.String()] = model.UserAccessKey{EncryptedKey: wrappedKey, Mode: mode}

	signed, err := model.SignFile(meta, kc.Seed(), time.Now())
	if err != nil {
		return err
	}
	if err := cc.Store.UpsertLocal(signed); err != nil {
		return err
	}

	cc.Statusf("Shared %s with %s (%s)\n", path, username, shareModeName(mode))
	return nil
}

func shareModeName(m model.ShareMode) string {
	switch m {
	case model.Write:
		return "write"
	case model.Owner:
		return "owner"
	default:
		return "read"
	}
}

func newSharePendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List shares granted to you that you haven't accepted yet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSharePending(cmd.Context())
		},
	}
}

func runSharePending(ctx context.Context) error {
	cc := mustCLIContext(ctx)
	kc, _, _, err := cc.Account(ctx)
	if err != nil {
		return err
	}

	lt, err := workingTree(cc)
	if err != nil {
		return err
	}

	var found int
	for _, id := range lt.Ids() {
		pending, err := lt.InPendingShare(id, kc)
		if err != nil {
			return err
		}
		if !pending {
			continue
		}

		f, err := tree.Find(lt, id)
		if err != nil {
			return err
		}
		owner, err := kc.UsernameFor(ctx, f.File.Owner)
		if err != nil {
			owner = f.File.Owner.String()
		}

		fmt.Printf("%s  from %s  (%s)\n", id, owner, f.File.FileType)
		found++
	}

	if found == 0 {
		cc.Statusf("No pending shares.\n")
	}
	return nil
}

func newShareAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <share-id> <dest-path>",
		Short: "Accept a pending share, linking it into your own tree at dest-path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShareAccept(cmd.Context(), args[0], args[1])
		},
	}
}

func runShareAccept(ctx context.Context, shareIDStr, destPath string) error {
	cc := mustCLIContext(ctx)
	kc, _, _, err := cc.Account(ctx)
	if err != nil {
		return err
	}

	shareID, err := uuid.Parse(shareIDStr)
	if err != nil {
		return fmt.Errorf("parsing share id %q: %w", shareIDStr, err)
	}

	lt, err := workingTree(cc)
	if err != nil {
		return err
	}

	pending, err := lt.InPendingShare(shareID, kc)
	if err != nil {
		return err
	}
	if !pending {
		return model.New(model.ErrShareNonexistent, shareIDStr)
	}

	parentID, parentKey, missing, err := resolveParent(lt, kc, destPath)
	if err != nil {
		return err
	}
	if len(missing) != 1 {
		return model.New(model.ErrPathTaken, destPath)
	}
	linkName := missing[0]
	if err := model.ValidateName(linkName); err != nil {
		return err
	}

	encName, err := crypto.EncryptSym(parentKey, []byte(linkName))
	if err != nil {
		return err
	}

	link := model.FileMetadata{
		ID: uuid.New(), Parent: parentID, FileType: model.Link, LinkTarget: shareID,
		Owner:         kc.Self(),
		EncryptedName: encName,
	}
	signed, err := model.SignFile(link, kc.Seed(), time.Now())
	if err != nil {
		return err
	}
	if err := cc.Store.UpsertLocal(signed); err != nil {
		return err
	}

	cc.Statusf("Linked %s at %s\n", shareID, destPath)
	return nil
}
