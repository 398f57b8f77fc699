package merge

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/tree"
)

// nameCodec builds DecryptName/EncryptName closures over a fixed set of
// folder keys, the same pair of operations the sync engine's real
// nameCodec performs through a LazyTree, for tests that need genuinely
// encrypted (not literal-plaintext) names.
func nameCodec(keys map[uuid.UUID][32]byte) (
	func(uuid.UUID, []byte) (string, error),
	func(uuid.UUID, string) ([]byte, error),
) {
	decrypt := func(parentID uuid.UUID, blob []byte) (string, error) {
		key, ok := keys[parentID]
		if !ok {
			return "", fmt.Errorf("no key for parent %s", parentID)
		}
		raw, err := crypto.DecryptSym(key, blob)
		return string(raw), err
	}
	encrypt := func(parentID uuid.UUID, plain string) ([]byte, error) {
		key, ok := keys[parentID]
		if !ok {
			return nil, fmt.Errorf("no key for parent %s", parentID)
		}
		return crypto.EncryptSym(key, []byte(plain))
	}
	return decrypt, encrypt
}

// encryptedRootTree builds a root folder with a real wrapped symmetric key
// (the same construction pathops_test.go's addRoot helper uses), returning
// the tree, the root's id, and its symmetric key so callers can encrypt
// children's names for real instead of using literal plaintext bytes.
func encryptedRootTree(t *testing.T, seed crypto.Seed, pub crypto.PublicKey) (tree.MapTree, uuid.UUID, [32]byte) {
	t.Helper()
	id := uuid.New()
	key, err := crypto.NewSymKey()
	require.NoError(t, err)
	wrapped, err := crypto.EncryptFor(seed, pub, key[:])
	require.NoError(t, err)
	encName, err := crypto.EncryptSym(key, []byte("alice"))
	require.NoError(t, err)

	f := model.FileMetadata{
		ID: id, Parent: id, FileType: model.Folder, Owner: pub,
		EncryptedName:  encName,
		UserAccessKeys: map[string]model.UserAccessKey{pub.String(): {EncryptedKey: wrapped, Mode: model.Owner}},
	}
	signed, err := model.SignFile(f, seed, time.Now())
	require.NoError(t, err)
	return tree.MapTree{id: signed}, id, key
}

func newAccount(t *testing.T) (crypto.Seed, crypto.PublicKey) {
	t.Helper()
	seed, err := crypto.NewSeed()
	require.NoError(t, err)
	pub, err := crypto.Public(seed)
	require.NoError(t, err)
	return seed, pub
}

func rootTree(t *testing.T, seed crypto.Seed, pub crypto.PublicKey) (tree.MapTree, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	f := model.FileMetadata{
		ID: id, Parent: id, FileType: model.Folder, Owner: pub,
		UserAccessKeys: map[string]model.UserAccessKey{pub.String(): {Mode: model.Owner}},
	}
	signed, err := model.SignFile(f, seed, time.Now())
	require.NoError(t, err)
	return tree.MapTree{id: signed}, id
}

func sign(t *testing.T, seed crypto.Seed, f model.FileMetadata) *model.SignedFile {
	t.Helper()
	signed, err := model.SignFile(f, seed, time.Now())
	require.NoError(t, err)
	return signed
}

func baseOpts(seed crypto.Seed, pub crypto.PublicKey) Options {
	return Options{Signer: seed, SignerPK: pub, Now: time.Now(), MaxSkew: 5 * time.Minute}
}

func TestMergeUnchangedLocalTakesRemote(t *testing.T) {
	seed, pub := newAccount(t)
	base, rootID := rootTree(t, seed, pub)

	docID := uuid.New()
	doc := model.FileMetadata{ID: docID, Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: []byte("a")}
	base[docID] = sign(t, seed, doc)

	remoteDoc := doc
	remoteDoc.EncryptedName = []byte("a-renamed-remotely")
	remote := tree.MapTree{rootID: base[rootID], docID: sign(t, seed, remoteDoc)}

	local := tree.MapTree{rootID: base[rootID], docID: base[docID]} // unchanged locally

	res, err := Merge(base, remote, local, baseOpts(seed, pub))
	require.NoError(t, err)
	require.NotContains(t, res.NewLocal, docID)
	require.Equal(t, remoteDoc.EncryptedName, res.NewBase[docID].File.EncryptedName)
}

func TestMergeUnchangedRemoteKeepsLocal(t *testing.T) {
	seed, pub := newAccount(t)
	base, rootID := rootTree(t, seed, pub)

	docID := uuid.New()
	doc := model.FileMetadata{ID: docID, Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: []byte("a")}
	base[docID] = sign(t, seed, doc)

	remote := tree.MapTree{rootID: base[rootID], docID: base[docID]} // unchanged remotely

	localDoc := doc
	localDoc.EncryptedName = []byte("a-renamed-locally")
	local := tree.MapTree{rootID: base[rootID], docID: sign(t, seed, localDoc)}

	res, err := Merge(base, remote, local, baseOpts(seed, pub))
	require.NoError(t, err)
	require.Contains(t, res.NewLocal, docID)
	require.Equal(t, localDoc.EncryptedName, res.NewLocal[docID].File.EncryptedName)
}

func TestMergeBothRenamedRemoteWins(t *testing.T) {
	seed, pub := newAccount(t)
	base, rootID := rootTree(t, seed, pub)

	docID := uuid.New()
	doc := model.FileMetadata{ID: docID, Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: []byte("orig")}
	base[docID] = sign(t, seed, doc)

	remoteDoc := doc
	remoteDoc.EncryptedName = []byte("remote-name")
	remote := tree.MapTree{rootID: base[rootID], docID: sign(t, seed, remoteDoc)}

	localDoc := doc
	localDoc.EncryptedName = []byte("local-name")
	local := tree.MapTree{rootID: base[rootID], docID: sign(t, seed, localDoc)}

	res, err := Merge(base, remote, local, baseOpts(seed, pub))
	require.NoError(t, err)
	require.Contains(t, res.NewLocal, docID)
	require.Equal(t, remoteDoc.EncryptedName, res.NewLocal[docID].File.EncryptedName)
}

func TestMergeDeleteVsEditDeleteWins(t *testing.T) {
	seed, pub := newAccount(t)
	base, rootID := rootTree(t, seed, pub)

	docID := uuid.New()
	doc := model.FileMetadata{ID: docID, Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: []byte("a")}
	base[docID] = sign(t, seed, doc)

	remoteDoc := doc
	remoteDoc.IsDeleted = true
	remote := tree.MapTree{rootID: base[rootID], docID: sign(t, seed, remoteDoc)}

	localDoc := doc
	localDoc.EncryptedName = []byte("edited-locally")
	local := tree.MapTree{rootID: base[rootID], docID: sign(t, seed, localDoc)}

	res, err := Merge(base, remote, local, baseOpts(seed, pub))
	require.NoError(t, err)
	require.NotContains(t, res.NewLocal, docID)
}

func TestMergeNameConflictRenamesLocal(t *testing.T) {
	seed, pub := newAccount(t)
	base, rootID, rootKey := encryptedRootTree(t, seed, pub)
	remote := tree.MapTree{rootID: base[rootID]}

	existingName, err := crypto.EncryptSym(rootKey, []byte("same-name"))
	require.NoError(t, err)
	existingID := uuid.New()
	existing := model.FileMetadata{ID: existingID, Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: existingName}
	remote[existingID] = sign(t, seed, existing)

	// Independently encrypted: same plaintext as existingName, but
	// crypto.EncryptSym draws a fresh nonce every call, so the ciphertext
	// differs even though both names read "same-name".
	createdName, err := crypto.EncryptSym(rootKey, []byte("same-name"))
	require.NoError(t, err)
	require.NotEqual(t, existingName, createdName, "two independent encryptions of the same plaintext must not produce equal ciphertext")

	newID := uuid.New()
	created := model.FileMetadata{ID: newID, Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: createdName}
	local := tree.MapTree{rootID: base[rootID], newID: sign(t, seed, created)}

	decrypt, encrypt := nameCodec(map[uuid.UUID][32]byte{rootID: rootKey})
	opts := baseOpts(seed, pub)
	opts.DecryptName = decrypt
	opts.EncryptName = encrypt

	res, err := Merge(base, remote, local, opts)
	require.NoError(t, err)
	require.Contains(t, res.NewLocal, newID)

	gotName, err := decrypt(rootID, res.NewLocal[newID].File.EncryptedName)
	require.NoError(t, err)
	require.NotEqual(t, "same-name", gotName)
	require.Contains(t, gotName, "same-name", "the renamed file's name should still be readable and carry the original name")
	require.Contains(t, gotName, "NAME-CONFLICT")
}

// TestMergeNameConflictCiphertextFallbackMissesPlaintextCollision documents
// the weaker fallback: without a DecryptName callback, two independent
// encryptions of the same plaintext aren't recognized as a collision, since
// they never compare equal as ciphertext.
func TestMergeNameConflictCiphertextFallbackMissesPlaintextCollision(t *testing.T) {
	seed, pub := newAccount(t)
	base, rootID, rootKey := encryptedRootTree(t, seed, pub)
	remote := tree.MapTree{rootID: base[rootID]}

	existingName, err := crypto.EncryptSym(rootKey, []byte("same-name"))
	require.NoError(t, err)
	existingID := uuid.New()
	existing := model.FileMetadata{ID: existingID, Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: existingName}
	remote[existingID] = sign(t, seed, existing)

	createdName, err := crypto.EncryptSym(rootKey, []byte("same-name"))
	require.NoError(t, err)

	newID := uuid.New()
	created := model.FileMetadata{ID: newID, Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: createdName}
	local := tree.MapTree{rootID: base[rootID], newID: sign(t, seed, created)}

	res, err := Merge(base, remote, local, baseOpts(seed, pub))
	require.NoError(t, err)
	require.Contains(t, res.NewLocal, newID)
	require.Equal(t, createdName, res.NewLocal[newID].File.EncryptedName, "without DecryptName, merge cannot see the plaintext collision and leaves the name untouched")
}

func TestMergeContentConflictKeepsBoth(t *testing.T) {
	seed, pub := newAccount(t)
	base, rootID, rootKey := encryptedRootTree(t, seed, pub)

	docName, err := crypto.EncryptSym(rootKey, []byte("doc"))
	require.NoError(t, err)

	docID := uuid.New()
	doc := model.FileMetadata{
		ID: docID, Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: docName,
		DocumentHMAC: [32]byte{0}, HasDocumentHMAC: true,
	}
	base[docID] = sign(t, seed, doc)

	remoteDoc := doc
	remoteDoc.DocumentHMAC = [32]byte{1}
	remote := tree.MapTree{rootID: base[rootID], docID: sign(t, seed, remoteDoc)}

	localDoc := doc
	localDoc.DocumentHMAC = [32]byte{2}
	local := tree.MapTree{rootID: base[rootID], docID: sign(t, seed, localDoc)}

	decrypt, encrypt := nameCodec(map[uuid.UUID][32]byte{rootID: rootKey})
	opts := baseOpts(seed, pub)
	opts.DecryptName = decrypt
	opts.EncryptName = encrypt

	res, err := Merge(base, remote, local, opts)
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	require.Equal(t, "ContentConflictKeepBoth", res.Conflicts[0].Kind)
	require.Equal(t, remoteDoc.DocumentHMAC, res.NewBase[docID].File.DocumentHMAC)

	dupID := uuid.MustParse(res.Conflicts[0].Detail)
	dup, ok := res.NewLocal[dupID]
	require.True(t, ok)
	gotName, err := decrypt(rootID, dup.File.EncryptedName)
	require.NoError(t, err)
	require.Contains(t, gotName, "doc")
	require.Contains(t, gotName, "CONTENT-CONFLICT")
}

func TestMergeIsDeterministic(t *testing.T) {
	seed, pub := newAccount(t)
	base, rootID := rootTree(t, seed, pub)

	docID := uuid.New()
	doc := model.FileMetadata{ID: docID, Parent: rootID, FileType: model.Document, Owner: pub, EncryptedName: []byte("a")}
	base[docID] = sign(t, seed, doc)

	localDoc := doc
	localDoc.EncryptedName = []byte("local")
	local := tree.MapTree{rootID: base[rootID], docID: sign(t, seed, localDoc)}
	remote := tree.MapTree{rootID: base[rootID], docID: base[docID]}

	opts := baseOpts(seed, pub)
	res1, err := Merge(base, remote, local, opts)
	require.NoError(t, err)
	res2, err := Merge(base, remote, local, opts)
	require.NoError(t, err)

	require.True(t, res1.NewLocal[docID].File.Equal(res2.NewLocal[docID].File))
}
