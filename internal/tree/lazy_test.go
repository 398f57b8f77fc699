package tree

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
)

type testCtx struct {
	seed crypto.Seed
	pub  crypto.PublicKey
}

func (c testCtx) Seed() crypto.Seed      { return c.seed }
func (c testCtx) Self() crypto.PublicKey { return c.pub }

func newTestCtx(t *testing.T) testCtx {
	t.Helper()
	seed, err := crypto.NewSeed()
	require.NoError(t, err)
	pub, err := crypto.Public(seed)
	require.NoError(t, err)
	return testCtx{seed: seed, pub: pub}
}

// buildRootAndChild wires a root folder owned by ctx and a single child
// document under it, with keys wrapped the way the engine wraps them at
// creation time (spec §4.2).
func buildRootAndChild(t *testing.T, ctx testCtx, childName string) (MapTree, uuid.UUID, uuid.UUID) {
	t.Helper()

	rootID := uuid.New()
	rootKey, err := crypto.NewSymKey()
	require.NoError(t, err)

	wrappedRootKey, err := crypto.EncryptFor(ctx.seed, ctx.pub, rootKey[:])
	require.NoError(t, err)

	rootName, err := crypto.EncryptSym(rootKey, []byte("root"))
	require.NoError(t, err)

	root := model.FileMetadata{
		ID: rootID, Parent: rootID, FileType: model.Folder, Owner: ctx.pub,
		EncryptedName: rootName,
		UserAccessKeys: map[string]model.UserAccessKey{
			ctx.pub.String(): {EncryptedKey: wrappedRootKey, Mode: model.Owner},
		},
	}

	childID := uuid.New()
	childKey, err := crypto.NewSymKey()
	require.NoError(t, err)

	wrappedChildKey, err := crypto.EncryptSym(rootKey, childKey[:])
	require.NoError(t, err)

	childNameEnc, err := crypto.EncryptSym(rootKey, []byte(childName))
	require.NoError(t, err)

	child := model.FileMetadata{
		ID: childID, Parent: rootID, FileType: model.Document, Owner: ctx.pub,
		EncryptedName:   childNameEnc,
		FolderAccessKey: wrappedChildKey,
		HasFolderKey:    true,
	}

	now := time.Now()
	signedRoot, err := model.SignFile(root, ctx.seed, now)
	require.NoError(t, err)
	signedChild, err := model.SignFile(child, ctx.seed, now)
	require.NoError(t, err)

	return MapTree{rootID: signedRoot, childID: signedChild}, rootID, childID
}

func TestLazyTreeDecryptKeyAndName(t *testing.T) {
	ctx := newTestCtx(t)
	mt, rootID, childID := buildRootAndChild(t, ctx, "notes.md")
	lt := NewLazyTree(mt)

	rootName, err := lt.Name(rootID, ctx)
	require.NoError(t, err)
	require.Equal(t, "root", rootName)

	childName, err := lt.Name(childID, ctx)
	require.NoError(t, err)
	require.Equal(t, "notes.md", childName)

	_, err = lt.DecryptKey(childID, ctx)
	require.NoError(t, err)
}

func TestLazyTreeCalculateDeleted(t *testing.T) {
	ctx := newTestCtx(t)
	mt, rootID, childID := buildRootAndChild(t, ctx, "notes.md")
	lt := NewLazyTree(mt)

	deleted, err := lt.CalculateDeleted(childID)
	require.NoError(t, err)
	require.False(t, deleted)

	root := mt[rootID]
	root.File.IsDeleted = true
	lt.Invalidate()

	deleted, err = lt.CalculateDeleted(childID)
	require.NoError(t, err)
	require.True(t, deleted)
}

func TestLazyTreeIDToPath(t *testing.T) {
	ctx := newTestCtx(t)
	mt, _, childID := buildRootAndChild(t, ctx, "notes.md")
	lt := NewLazyTree(mt)

	path, err := lt.IDToPath(childID, ctx)
	require.NoError(t, err)
	require.Equal(t, "/root/notes.md", path)
}

func TestLazyTreeInPendingShare(t *testing.T) {
	owner := newTestCtx(t)
	recipient := newTestCtx(t)
	mt, rootID, _ := buildRootAndChild(t, owner, "notes.md")

	sharedKey, err := crypto.NewSymKey()
	require.NoError(t, err)
	wrapped, err := crypto.EncryptFor(owner.seed, recipient.pub, sharedKey[:])
	require.NoError(t, err)

	shareID := uuid.New()
	shared := model.FileMetadata{
		ID: shareID, Parent: rootID, FileType: model.Folder, Owner: owner.pub,
		UserAccessKeys: map[string]model.UserAccessKey{
			owner.pub.String():     {EncryptedKey: []byte{}, Mode: model.Owner},
			recipient.pub.String(): {EncryptedKey: wrapped, Mode: model.Read},
		},
	}
	signed, err := model.SignFile(shared, owner.seed, time.Now())
	require.NoError(t, err)
	mt[shareID] = signed

	lt := NewLazyTree(mt)
	pending, err := lt.InPendingShare(shareID, recipient)
	require.NoError(t, err)
	require.True(t, pending)
}
