package syncengine

import (
	"context"
	"sync"
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

// fakeCentralRelay is a minimal in-memory stand-in for the relay server
// shared by every device syncing the same account, used to exercise the
// "two clients converge" scenarios end to end without a live server
// (spec §8). It tracks a version counter for GetUpdates but, unlike a real
// server, UpsertMetadata never rejects a push as stale — staleness
// rejection is modeled separately by fakeRelayStaleOnce below. Tests that
// want a genuine rename/rename race rely on the normal pull-before-push
// ordering (device b's Merging phase pulls device a's already-landed
// change as its remote side) rather than on a rejected push.
type fakeCentralRelay struct {
	mu      sync.Mutex
	records map[uuid.UUID]*model.SignedFile
	version int64
	content map[docstore.LiveKey][]byte
}

func newFakeCentralRelay() *fakeCentralRelay {
	return &fakeCentralRelay{
		records: map[uuid.UUID]*model.SignedFile{},
		content: map[docstore.LiveKey][]byte{},
	}
}

func (r *fakeCentralRelay) GetUpdates(ctx context.Context, sinceVersion int64) ([]*model.SignedFile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.SignedFile
	for _, f := range r.records {
		out = append(out, f)
	}
	return out, r.version, nil
}

func (r *fakeCentralRelay) GetDocument(ctx context.Context, id uuid.UUID, hmac [32]byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.content[docstore.LiveKey{ID: id, HMAC: hmac}]
	if !ok {
		return nil, model.New(model.ErrNonexistentDocument, id.String())
	}
	return b, nil
}

func (r *fakeCentralRelay) ChangeDoc(ctx context.Context, id uuid.UUID, newHMAC [32]byte, ciphertext []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.content[docstore.LiveKey{ID: id, HMAC: newHMAC}] = ciphertext
	return nil
}

func (r *fakeCentralRelay) UpsertMetadata(ctx context.Context, files []*model.SignedFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range files {
		r.records[f.File.ID] = f
	}
	r.version++
	return nil
}

// device bundles one client's independent local state (its own
// base/local metadata and its own document cache) against the shared
// fakeCentralRelay, modeling two machines syncing the same account.
type device struct {
	store *fakeStore
	docs  *fakeDocs
	kc    *keychain.Keychain
	pub   crypto.PublicKey
	eng   *Engine
}

func newDevice(t *testing.T, acct model.Account) *device {
	t.Helper()
	pub, err := acct.PublicKey()
	require.NoError(t, err)
	kc, err := keychain.New(acct, nil)
	require.NoError(t, err)
	return &device{store: newFakeStore(), docs: newFakeDocs(), kc: kc, pub: pub}
}

func (d *device) wireEngine(rc relayClient) {
	d.eng = New(d.store, d.docs, rc, d.kc, nil)
}

// TestTwoDevicesConvergeOnIndependentEdits exercises spec §8's baseline
// convergence scenario: two devices of the same account each create a
// document offline, then both sync against a shared server. Both new
// documents sit under the same root but are different files, so no
// content or move conflict is expected, and a
// third sync on either device must pull the other's file into view.
func TestTwoDevicesConvergeOnIndependentEdits(t *testing.T) {
	acct, err := model.NewAccount("alice", "https://relay.example.test")
	require.NoError(t, err)

	central := newFakeCentralRelay()

	a := newDevice(t, *acct)
	b := newDevice(t, *acct)
	a.wireEngine(central)
	b.wireEngine(central)

	root := signedRoot(t, a.kc, a.pub)
	a.store.base[root.File.ID] = root
	b.store.base[root.File.ID] = root
	central.records[root.File.ID] = root

	docA := signedChild(t, a.kc, a.pub, root.File.ID, model.Document)
	a.store.local[docA.File.ID] = docA

	docB := signedChild(t, b.kc, b.pub, root.File.ID, model.Document)
	b.store.local[docB.File.ID] = docB

	ctx := t.Context()

	_, err = a.eng.Sync(ctx, Options{})
	require.NoError(t, err)

	_, err = b.eng.Sync(ctx, Options{})
	require.NoError(t, err)

	// b's second sync (after a's push landed) must observe both files;
	// a needs one more sync to pull b's.
	report, err := a.eng.Sync(ctx, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, report.PulledRecords, "a should pull b's new document")

	_, aHasB := a.store.base[docB.File.ID]
	_, bHasA := b.store.base[docA.File.ID]
	require.True(t, aHasB, "device a should end up with device b's document")
	require.True(t, bHasA, "device b should end up with device a's document")
}

// TestTwoDevicesRenameSameFileConcurrentlyConverge exercises a real
// concurrent edit to the very same file (not merely the same folder):
// both devices rename the same document while offline. Device a's rename
// reaches the server first; when device b syncs, its own Merging phase
// pulls a's version as the remote side and resolves the rename-rename
// race the way merge.resolveBothChanged always does — remote wins on
// name (spec §4.4) — rather than either side's push clobbering the
// other or the sync failing.
func TestTwoDevicesRenameSameFileConcurrentlyConverge(t *testing.T) {
	acct, err := model.NewAccount("alice", "https://relay.example.test")
	require.NoError(t, err)

	central := newFakeCentralRelay()

	a := newDevice(t, *acct)
	b := newDevice(t, *acct)
	a.wireEngine(central)
	b.wireEngine(central)

	root := signedRoot(t, a.kc, a.pub)
	a.store.base[root.File.ID] = root
	b.store.base[root.File.ID] = root
	central.records[root.File.ID] = root

	shared := signedChild(t, a.kc, a.pub, root.File.ID, model.Document)
	a.store.base[shared.File.ID] = shared
	b.store.base[shared.File.ID] = shared
	central.records[shared.File.ID] = shared

	renamedA := shared.File.Clone()
	renamedA.EncryptedName = []byte("renamed-by-a")
	signedA, err := model.SignFile(renamedA, a.kc.Seed(), time.Now())
	require.NoError(t, err)
	a.store.local[shared.File.ID] = signedA

	renamedB := shared.File.Clone()
	renamedB.EncryptedName = []byte("renamed-by-b")
	signedB, err := model.SignFile(renamedB, b.kc.Seed(), time.Now())
	require.NoError(t, err)
	b.store.local[shared.File.ID] = signedB

	ctx := t.Context()

	_, err = a.eng.Sync(ctx, Options{})
	require.NoError(t, err)

	// b's Merging phase now pulls a's already-landed rename as the remote
	// side of the very file b renamed locally; resolveBothChanged settles
	// the race by keeping remote's name, so b's push carries a's name
	// forward rather than b's own.
	_, err = b.eng.Sync(ctx, Options{})
	require.NoError(t, err)

	finalB := b.store.base[shared.File.ID]
	require.NotNil(t, finalB)
	require.Equal(t, renamedA.EncryptedName, finalB.File.EncryptedName,
		"rename/rename race on the same file should resolve to the remote (already-synced) name")

	// a's next sync pulls the record b just pushed; the name must still
	// read as a's original rename, not b's, confirming the resolution was
	// pushed back to the server rather than only applied locally on b.
	_, err = a.eng.Sync(ctx, Options{})
	require.NoError(t, err)
	finalA := a.store.base[shared.File.ID]
	require.Equal(t, renamedA.EncryptedName, finalA.File.EncryptedName)
}

// fakeRelayStaleOnce wraps a fakeCentralRelay and rejects exactly the
// next UpsertMetadata call with relay.ErrStaleBase, modeling the server
// having accepted a concurrent writer's push in between this caller's
// pull and push (spec §4.6's Pushing phase, §8's retry scenario).
type fakeRelayStaleOnce struct {
	*fakeCentralRelay
	triggered bool
}

func (r *fakeRelayStaleOnce) UpsertMetadata(ctx context.Context, files []*model.SignedFile) error {
	if !r.triggered {
		r.triggered = true
		return relay.ErrStaleBase
	}
	return r.fakeCentralRelay.UpsertMetadata(ctx, files)
}

// TestSyncRetryRecoversFromInjectedStaleBase exercises the engine's own
// retry loop directly against a realistic server, rather than the single-
// push fake relay's hardcoded pushErrOnce, confirming the retry re-pulls
// before re-pushing so the eventual push carries an up-to-date base.
func TestSyncRetryRecoversFromInjectedStaleBase(t *testing.T) {
	acct, err := model.NewAccount("alice", "https://relay.example.test")
	require.NoError(t, err)

	central := newFakeCentralRelay()
	stale := &fakeRelayStaleOnce{fakeCentralRelay: central}

	d := newDevice(t, *acct)
	d.wireEngine(stale)

	root := signedRoot(t, d.kc, d.pub)
	d.store.base[root.File.ID] = root
	central.records[root.File.ID] = root

	doc := signedChild(t, d.kc, d.pub, root.File.ID, model.Folder)
	d.store.local[doc.File.ID] = doc

	report, err := d.eng.Sync(t.Context(), Options{MaxRetries: 2})
	require.NoError(t, err)
	require.Equal(t, 1, report.PushedRecords)
	require.True(t, stale.triggered)
}
