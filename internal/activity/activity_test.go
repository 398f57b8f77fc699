package activity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/store"
	"github.com/lockbookgo/lbcore/internal/tree"
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

// buildTwoDocs wires a root folder owned by ctx with two documents under
// it, one tombstoned.
func buildTwoDocs(t *testing.T, ctx testCtx) (tree.MapTree, uuid.UUID, uuid.UUID) {
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

	liveID := uuid.New()
	liveKey, err := crypto.NewSymKey()
	require.NoError(t, err)
	wrappedLiveKey, err := crypto.EncryptSym(rootKey, liveKey[:])
	require.NoError(t, err)
	liveName, err := crypto.EncryptSym(rootKey, []byte("live.md"))
	require.NoError(t, err)
	live := model.FileMetadata{
		ID: liveID, Parent: rootID, FileType: model.Document, Owner: ctx.pub,
		EncryptedName: liveName, FolderAccessKey: wrappedLiveKey, HasFolderKey: true,
	}

	deletedID := uuid.New()
	deletedKey, err := crypto.NewSymKey()
	require.NoError(t, err)
	wrappedDeletedKey, err := crypto.EncryptSym(rootKey, deletedKey[:])
	require.NoError(t, err)
	deletedName, err := crypto.EncryptSym(rootKey, []byte("gone.md"))
	require.NoError(t, err)
	deleted := model.FileMetadata{
		ID: deletedID, Parent: rootID, FileType: model.Document, Owner: ctx.pub,
		EncryptedName: deletedName, FolderAccessKey: wrappedDeletedKey, HasFolderKey: true,
		IsDeleted: true,
	}

	now := time.Now()
	signedRoot, err := model.SignFile(root, ctx.seed, now)
	require.NoError(t, err)
	signedLive, err := model.SignFile(live, ctx.seed, now)
	require.NoError(t, err)
	signedDeleted, err := model.SignFile(deleted, ctx.seed, now)
	require.NoError(t, err)

	mt := tree.MapTree{rootID: signedRoot, liveID: signedLive, deletedID: signedDeleted}
	return mt, liveID, deletedID
}

func TestSuggestedDocsExcludesDeletedAndUnknown(t *testing.T) {
	ctx := newTestCtx(t)
	mt, liveID, deletedID := buildTwoDocs(t, ctx)
	lt := tree.NewLazyTree(mt)

	unknownID := uuid.New()
	events := []store.DocEvent{
		{Kind: store.DocEventRead, ID: liveID, At: time.Unix(100, 0)},
		{Kind: store.DocEventWrite, ID: liveID, At: time.Unix(200, 0)},
		{Kind: store.DocEventRead, ID: deletedID, At: time.Unix(300, 0)},
		{Kind: store.DocEventRead, ID: unknownID, At: time.Unix(400, 0)},
	}

	result, err := SuggestedDocs(events, lt, ctx, DefaultWeights())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{liveID}, result)
}

func TestSuggestedDocsRanksMoreActiveDocFirst(t *testing.T) {
	ctx := newTestCtx(t)
	mt, liveID, deletedID := buildTwoDocs(t, ctx)
	lt := tree.NewLazyTree(mt)

	// Undelete the second document so both are live and comparable.
	f := mt[deletedID]
	f.File.IsDeleted = false

	events := []store.DocEvent{
		{Kind: store.DocEventRead, ID: liveID, At: time.Unix(1, 0)},
		{Kind: store.DocEventRead, ID: deletedID, At: time.Unix(1, 0)},
		{Kind: store.DocEventWrite, ID: deletedID, At: time.Unix(2, 0)},
		{Kind: store.DocEventRead, ID: deletedID, At: time.Unix(3, 0)},
	}

	result, err := SuggestedDocs(events, lt, ctx, DefaultWeights())
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, deletedID, result[0], "the more active document should rank first")
}

func TestAggregateCountsReadsAndWrites(t *testing.T) {
	id := uuid.New()
	events := []store.DocEvent{
		{Kind: store.DocEventRead, ID: id, At: time.Unix(1, 0)},
		{Kind: store.DocEventRead, ID: id, At: time.Unix(5, 0)},
		{Kind: store.DocEventWrite, ID: id, At: time.Unix(3, 0)},
	}

	metrics := aggregate(events)
	require.Len(t, metrics, 1)
	require.Equal(t, int64(2), metrics[0].readCount)
	require.Equal(t, int64(1), metrics[0].writeCount)
	require.Equal(t, time.Unix(5, 0).UnixNano(), metrics[0].lastRead)
	require.Equal(t, time.Unix(3, 0).UnixNano(), metrics[0].lastWrite)
}
