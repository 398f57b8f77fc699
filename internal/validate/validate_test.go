package validate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/tree"
)

func freshOwner(t *testing.T) (crypto.Seed, crypto.PublicKey) {
	t.Helper()
	seed, err := crypto.NewSeed()
	require.NoError(t, err)
	pub, err := crypto.Public(seed)
	require.NoError(t, err)
	return seed, pub
}

func signedRoot(t *testing.T, seed crypto.Seed, pub crypto.PublicKey) (*model.SignedFile, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	f := model.FileMetadata{
		ID: id, Parent: id, FileType: model.Folder, Owner: pub,
		UserAccessKeys: map[string]model.UserAccessKey{pub.String(): {Mode: model.Owner}},
	}
	signed, err := model.SignFile(f, seed, time.Now())
	require.NoError(t, err)
	return signed, id
}

func TestTreeValidRootPasses(t *testing.T) {
	seed, pub := freshOwner(t)
	root, id := signedRoot(t, seed, pub)

	mt := tree.MapTree{id: root}
	opts := Options{ServerNow: time.Now(), MaxSkew: 5 * time.Minute}
	require.NoError(t, Tree(mt, opts))
}

func TestTreeDetectsOrphan(t *testing.T) {
	seed, pub := freshOwner(t)

	orphanID := uuid.New()
	missingParent := uuid.New()
	orphan := model.FileMetadata{ID: orphanID, Parent: missingParent, FileType: model.Document, Owner: pub}
	signedOrphan, err := model.SignFile(orphan, seed, time.Now())
	require.NoError(t, err)

	mt := tree.MapTree{orphanID: signedOrphan}

	opts := Options{ServerNow: time.Now(), MaxSkew: 5 * time.Minute}
	err = Tree(mt, opts)
	require.Error(t, err)
	require.Equal(t, model.ErrOrphan, model.KindOf(err))
}

func TestTreeDetectsCycle(t *testing.T) {
	seed, pub := freshOwner(t)

	a, b := uuid.New(), uuid.New()
	fa := model.FileMetadata{ID: a, Parent: b, FileType: model.Folder, Owner: pub}
	fb := model.FileMetadata{ID: b, Parent: a, FileType: model.Folder, Owner: pub}

	sfa, err := model.SignFile(fa, seed, time.Now())
	require.NoError(t, err)
	sfb, err := model.SignFile(fb, seed, time.Now())
	require.NoError(t, err)

	mt := tree.MapTree{a: sfa, b: sfb}
	opts := Options{ServerNow: time.Now(), MaxSkew: 5 * time.Minute}
	err = Tree(mt, opts)
	require.Error(t, err)
	require.Equal(t, model.ErrCycle, model.KindOf(err))
}

func TestTreeDetectsNameConflict(t *testing.T) {
	seed, pub := freshOwner(t)
	root, rootID := signedRoot(t, seed, pub)

	encName := []byte("same-ciphertext")
	c1 := model.FileMetadata{ID: uuid.New(), Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: encName}
	c2 := model.FileMetadata{ID: uuid.New(), Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: encName}

	sc1, err := model.SignFile(c1, seed, time.Now())
	require.NoError(t, err)
	sc2, err := model.SignFile(c2, seed, time.Now())
	require.NoError(t, err)

	mt := tree.MapTree{rootID: root, c1.ID: sc1, c2.ID: sc2}
	opts := Options{ServerNow: time.Now(), MaxSkew: 5 * time.Minute}
	err = Tree(mt, opts)
	require.Error(t, err)
	require.Equal(t, model.ErrNameConflict, model.KindOf(err))
}

func TestCheckNoUpdatesToDeleted(t *testing.T) {
	seed, pub := freshOwner(t)
	id := uuid.New()

	deleted := model.FileMetadata{ID: id, Parent: id, FileType: model.Folder, Owner: pub, IsDeleted: true}
	signedDeleted, err := model.SignFile(deleted, seed, time.Now())
	require.NoError(t, err)

	revived := model.FileMetadata{ID: id, Parent: id, FileType: model.Folder, Owner: pub, IsDeleted: false}
	signedRevived, err := model.SignFile(revived, seed, time.Now())
	require.NoError(t, err)

	base := tree.MapTree{id: signedDeleted}
	overlay := tree.MapTree{id: signedRevived}

	err = CheckNoUpdatesToDeleted(base, overlay)
	require.Error(t, err)
	require.Equal(t, model.ErrDeletedFileUpdated, model.KindOf(err))
}
