package importexport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
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

type memDocs struct {
	blobs map[string][]byte
}

func newMemDocs() *memDocs { return &memDocs{blobs: map[string][]byte{}} }

func key(id uuid.UUID, hmac [32]byte) string { return id.String() + string(hmac[:]) }

func (d *memDocs) Insert(id uuid.UUID, hmac [32]byte, ciphertext []byte) error {
	d.blobs[key(id, hmac)] = ciphertext
	return nil
}

func (d *memDocs) Get(id uuid.UUID, hmac [32]byte) ([]byte, error) {
	b, ok := d.blobs[key(id, hmac)]
	if !ok {
		return nil, model.New(model.ErrNonexistentDocument, id.String())
	}
	return b, nil
}

func newRoot(t *testing.T, tr tree.MapTree, ctx testCtx, name string) (uuid.UUID, [32]byte) {
	t.Helper()
	id := uuid.New()
	rootKey, err := crypto.NewSymKey()
	require.NoError(t, err)
	wrapped, err := crypto.EncryptFor(ctx.seed, ctx.pub, rootKey[:])
	require.NoError(t, err)
	encName, err := crypto.EncryptSym(rootKey, []byte(name))
	require.NoError(t, err)

	f := model.FileMetadata{
		ID: id, Parent: id, FileType: model.Folder, Owner: ctx.pub,
		EncryptedName: encName,
		UserAccessKeys: map[string]model.UserAccessKey{
			ctx.pub.String(): {EncryptedKey: wrapped, Mode: model.Owner},
		},
	}
	signed, err := model.SignFile(f, ctx.seed, time.Now())
	require.NoError(t, err)
	tr[id] = signed
	return id, rootKey
}

func TestImportWalksDirectoryTreeAndEncrypts(t *testing.T) {
	ctx := newTestCtx(t)
	tr := tree.MapTree{}
	rootID, _ := newRoot(t, tr, ctx, "alice")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes", "todo.md"), []byte("buy milk\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.txt"), []byte("hello\n"), 0o644))

	docs := newMemDocs()
	created, err := Import(tr, ctx, docs, rootID, dir, time.Now(), nil)
	require.NoError(t, err)
	require.Len(t, created, 3) // notes/, notes/todo.md, top.txt

	for _, f := range created {
		tr[f.File.ID] = f
	}

	lt := tree.NewLazyTree(tr)
	var notesID, todoID, topID uuid.UUID
	for _, f := range created {
		name, err := lt.Name(f.File.ID, ctx)
		require.NoError(t, err)
		switch name {
		case "notes":
			notesID = f.File.ID
		case "todo.md":
			todoID = f.File.ID
		case "top.txt":
			topID = f.File.ID
		}
	}
	require.NotEqual(t, uuid.Nil, notesID)
	require.NotEqual(t, uuid.Nil, todoID)
	require.NotEqual(t, uuid.Nil, topID)

	todo, err := tree.Find(tr, todoID)
	require.NoError(t, err)
	require.Equal(t, rootID, tr[notesID].File.Parent)
	require.Equal(t, notesID, todo.File.Parent)

	key, err := lt.DecryptKey(todoID, ctx)
	require.NoError(t, err)
	ciphertext, err := docs.Get(todoID, todo.File.DocumentHMAC)
	require.NoError(t, err)
	plaintext, err := crypto.DecryptSym(key, ciphertext)
	require.NoError(t, err)
	require.Equal(t, "buy milk\n", string(plaintext))
}

func TestImportRejectsNameAlreadyTaken(t *testing.T) {
	ctx := newTestCtx(t)
	tr := tree.MapTree{}
	rootID, rootKey := newRoot(t, tr, ctx, "alice")

	existingKey, err := crypto.NewSymKey()
	require.NoError(t, err)
	wrapped, err := crypto.EncryptSym(rootKey, existingKey[:])
	require.NoError(t, err)
	encName, err := crypto.EncryptSym(rootKey, []byte("top.txt"))
	require.NoError(t, err)
	existing := model.FileMetadata{
		ID: uuid.New(), Parent: rootID, FileType: model.Document, Owner: ctx.pub,
		EncryptedName: encName, FolderAccessKey: wrapped, HasFolderKey: true,
	}
	signedExisting, err := model.SignFile(existing, ctx.seed, time.Now())
	require.NoError(t, err)
	tr[existing.ID] = signedExisting

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.txt"), []byte("hi"), 0o644))

	_, err = Import(tr, ctx, newMemDocs(), rootID, dir, time.Now(), nil)
	require.Error(t, err)
	require.True(t, model.Is(err, model.ErrPathTaken))
}

func TestExportRoundTripsFolderToDisk(t *testing.T) {
	ctx := newTestCtx(t)
	tr := tree.MapTree{}
	rootID, _ := newRoot(t, tr, ctx, "alice")

	srcDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "notes", "todo.md"), []byte("buy milk\n"), 0o644))

	docs := newMemDocs()
	created, err := Import(tr, ctx, docs, rootID, srcDir, time.Now(), nil)
	require.NoError(t, err)
	for _, f := range created {
		tr[f.File.ID] = f
	}

	destDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Export(tr, ctx, docs, rootID, destDir, nil))

	content, err := os.ReadFile(filepath.Join(destDir, "notes", "todo.md"))
	require.NoError(t, err)
	require.Equal(t, "buy milk\n", string(content))
}

func TestExportSkipsDeletedEntries(t *testing.T) {
	ctx := newTestCtx(t)
	tr := tree.MapTree{}
	rootID, rootKey := newRoot(t, tr, ctx, "alice")

	docKey, err := crypto.NewSymKey()
	require.NoError(t, err)
	wrapped, err := crypto.EncryptSym(rootKey, docKey[:])
	require.NoError(t, err)
	encName, err := crypto.EncryptSym(rootKey, []byte("gone.md"))
	require.NoError(t, err)
	doc := model.FileMetadata{
		ID: uuid.New(), Parent: rootID, FileType: model.Document, Owner: ctx.pub,
		EncryptedName: encName, FolderAccessKey: wrapped, HasFolderKey: true, IsDeleted: true,
	}
	signedDoc, err := model.SignFile(doc, ctx.seed, time.Now())
	require.NoError(t, err)
	tr[doc.ID] = signedDoc

	destDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Export(tr, ctx, newMemDocs(), rootID, destDir, nil))

	_, err = os.Stat(filepath.Join(destDir, "gone.md"))
	require.True(t, os.IsNotExist(err))
}
