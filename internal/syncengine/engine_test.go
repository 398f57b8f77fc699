package syncengine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/docstore"
	"github.com/lockbookgo/lbcore/internal/keychain"
	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/relay"
)

type fakeStore struct {
	base       map[uuid.UUID]*model.SignedFile
	local      map[uuid.UUID]*model.SignedFile
	lastSynced int64
	promotions int
}

func newFakeStore() *fakeStore {
	return &fakeStore{base: map[uuid.UUID]*model.SignedFile{}, local: map[uuid.UUID]*model.SignedFile{}}
}

func (s *fakeStore) LastSynced() (int64, error) { return s.lastSynced, nil }

func (s *fakeStore) BaseMetadata() (map[uuid.UUID]*model.SignedFile, error) {
	return cloneFiles(s.base), nil
}

func (s *fakeStore) LocalMetadata() (map[uuid.UUID]*model.SignedFile, error) {
	return cloneFiles(s.local), nil
}

func (s *fakeStore) PromoteSync(newBase map[uuid.UUID]*model.SignedFile, pushedIDs []uuid.UUID, newVersion int64) error {
	s.promotions++
	for id, f := range newBase {
		s.base[id] = f
	}
	for _, id := range pushedIDs {
		delete(s.local, id)
	}
	s.lastSynced = newVersion
	return nil
}

func cloneFiles(m map[uuid.UUID]*model.SignedFile) map[uuid.UUID]*model.SignedFile {
	out := make(map[uuid.UUID]*model.SignedFile, len(m))
	for id, f := range m {
		out[id] = f
	}
	return out
}

type fakeDocs struct {
	blobs map[docstore.LiveKey][]byte
}

func newFakeDocs() *fakeDocs { return &fakeDocs{blobs: map[docstore.LiveKey][]byte{}} }

func (d *fakeDocs) Has(id uuid.UUID, hmac [32]byte) bool {
	_, ok := d.blobs[docstore.LiveKey{ID: id, HMAC: hmac}]
	return ok
}

func (d *fakeDocs) Get(id uuid.UUID, hmac [32]byte) ([]byte, error) {
	b, ok := d.blobs[docstore.LiveKey{ID: id, HMAC: hmac}]
	if !ok {
		return nil, model.New(model.ErrNonexistentDocument, id.String())
	}
	return b, nil
}

func (d *fakeDocs) Insert(id uuid.UUID, hmac [32]byte, ciphertext []byte) error {
	d.blobs[docstore.LiveKey{ID: id, HMAC: hmac}] = ciphertext
	return nil
}

func (d *fakeDocs) Retain(live map[docstore.LiveKey]bool) (int, error) {
	deleted := 0
	for k := range d.blobs {
		if !live[k] {
			delete(d.blobs, k)
			deleted++
		}
	}
	return deleted, nil
}

type fakeRelay struct {
	updates         []*model.SignedFile
	asOfVersion     int64
	getUpdatesCalls int

	pushed        [][]*model.SignedFile
	pushErrOnce   error
	serverContent map[docstore.LiveKey][]byte
}

func (r *fakeRelay) GetUpdates(ctx context.Context, sinceVersion int64) ([]*model.SignedFile, int64, error) {
	r.getUpdatesCalls++
	return r.updates, r.asOfVersion, nil
}

func (r *fakeRelay) GetDocument(ctx context.Context, id uuid.UUID, hmac [32]byte) ([]byte, error) {
	b, ok := r.serverContent[docstore.LiveKey{ID: id, HMAC: hmac}]
	if !ok {
		return nil, fmt.Errorf("fakeRelay: no document %s", id)
	}
	return b, nil
}

func (r *fakeRelay) ChangeDoc(ctx context.Context, id uuid.UUID, newHMAC [32]byte, ciphertext []byte) error {
	if r.serverContent == nil {
		r.serverContent = map[docstore.LiveKey][]byte{}
	}
	r.serverContent[docstore.LiveKey{ID: id, HMAC: newHMAC}] = ciphertext
	return nil
}

func (r *fakeRelay) UpsertMetadata(ctx context.Context, files []*model.SignedFile) error {
	r.pushed = append(r.pushed, files)
	if r.pushErrOnce != nil {
		err := r.pushErrOnce
		r.pushErrOnce = nil
		return err
	}
	return nil
}

func newTestKeychain(t *testing.T) (*keychain.Keychain, crypto.PublicKey) {
	t.Helper()
	acct, err := model.NewAccount("alice", "https://relay.example.test")
	require.NoError(t, err)
	pub, err := acct.PublicKey()
	require.NoError(t, err)
	kc, err := keychain.New(*acct, nil)
	require.NoError(t, err)
	return kc, pub
}

func signedRoot(t *testing.T, kc *keychain.Keychain, pub crypto.PublicKey) *model.SignedFile {
	t.Helper()
	id := uuid.New()
	f := model.FileMetadata{
		ID: id, Parent: id, FileType: model.Folder, Owner: pub,
		UserAccessKeys: map[string]model.UserAccessKey{pub.String(): {Mode: model.Owner}},
	}
	signed, err := model.SignFile(f, kc.Seed(), time.Now())
	require.NoError(t, err)
	return signed
}

func signedChild(t *testing.T, kc *keychain.Keychain, pub crypto.PublicKey, parent uuid.UUID, ft model.FileType) *model.SignedFile {
	t.Helper()
	f := model.FileMetadata{ID: uuid.New(), Parent: parent, FileType: ft, Owner: pub, EncryptedName: []byte("doc")}
	signed, err := model.SignFile(f, kc.Seed(), time.Now())
	require.NoError(t, err)
	return signed
}

func TestSyncWithNoChangesIsANoOp(t *testing.T) {
	kc, pub := newTestKeychain(t)
	root := signedRoot(t, kc, pub)

	st := newFakeStore()
	st.base[root.File.ID] = root

	docs := newFakeDocs()
	rc := &fakeRelay{asOfVersion: 7}

	e := New(st, docs, rc, kc, nil)
	report, err := e.Sync(t.Context(), Options{})
	require.NoError(t, err)
	require.Equal(t, 0, report.PulledRecords)
	require.Equal(t, 0, report.PushedRecords)
	require.Equal(t, 1, st.promotions)
	require.EqualValues(t, 7, st.lastSynced)
}

func TestSyncPushesAndUploadsLocalDocument(t *testing.T) {
	kc, pub := newTestKeychain(t)
	root := signedRoot(t, kc, pub)

	st := newFakeStore()
	st.base[root.File.ID] = root

	doc := signedChild(t, kc, pub, root.File.ID, model.Document)
	doc.File.HasDocumentHMAC = true
	doc.File.DocumentHMAC = crypto.HMAC([32]byte{1}, []byte("hello"))
	resigned, err := model.SignFile(doc.File, kc.Seed(), time.Now())
	require.NoError(t, err)
	st.local[doc.File.ID] = resigned

	docs := newFakeDocs()
	require.NoError(t, docs.Insert(doc.File.ID, doc.File.DocumentHMAC, []byte("hello")))

	rc := &fakeRelay{asOfVersion: 1}

	e := New(st, docs, rc, kc, nil)
	report, err := e.Sync(t.Context(), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, report.PushedRecords)
	require.Equal(t, 1, report.Uploaded)
	require.Len(t, rc.pushed, 1)
	require.Len(t, rc.pushed[0], 1)

	_, stillLocal := st.local[doc.File.ID]
	require.False(t, stillLocal, "pushed record should be cleared from local_metadata")

	_, uploaded := rc.serverContent[docstore.LiveKey{ID: doc.File.ID, HMAC: doc.File.DocumentHMAC}]
	require.True(t, uploaded, "document content should have reached the server")
}

func TestSyncRetriesOnceOnStaleBaseThenSucceeds(t *testing.T) {
	kc, pub := newTestKeychain(t)
	root := signedRoot(t, kc, pub)

	st := newFakeStore()
	st.base[root.File.ID] = root

	doc := signedChild(t, kc, pub, root.File.ID, model.Folder)
	st.local[doc.File.ID] = doc

	docs := newFakeDocs()
	rc := &fakeRelay{asOfVersion: 2, pushErrOnce: relay.ErrStaleBase}

	e := New(st, docs, rc, kc, nil)
	report, err := e.Sync(t.Context(), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, report.PushedRecords)
	require.Equal(t, 2, rc.getUpdatesCalls)
	require.Len(t, rc.pushed, 2)
}

func TestSyncFailsFastWhenAlreadyRunning(t *testing.T) {
	kc, pub := newTestKeychain(t)
	root := signedRoot(t, kc, pub)

	st := newFakeStore()
	st.base[root.File.ID] = root

	e := New(st, newFakeDocs(), &fakeRelay{}, kc, nil)
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.Sync(t.Context(), Options{})
	require.Error(t, err)
	require.True(t, model.Is(err, model.ErrAlreadySyncing))
}
