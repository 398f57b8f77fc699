// Package syncengine drives the sync state machine (spec §4.6): pull
// server-side changes, three-way merge them with the local overlay,
// download/upload document content, push metadata, and atomically promote
// the result. At most one sync runs per account at a time.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lockbookgo/lbcore/internal/docstore"
	"github.com/lockbookgo/lbcore/internal/keychain"
	"github.com/lockbookgo/lbcore/internal/merge"
	"github.com/lockbookgo/lbcore/internal/model"
	"github.com/lockbookgo/lbcore/internal/relay"
	"github.com/lockbookgo/lbcore/internal/tree"
)

// clockSkew bounds how far a signature's timestamp may drift from this
// engine's clock during the Merging phase's validation pass, matching the
// bound validate and merge's own tests already assume (spec §3.2
// invariant 9 leaves the exact window unspecified).
const clockSkew = 5 * time.Minute

// Engine owns one account's sync state machine. Not safe to share a single
// Sync call across goroutines; a Sync call made while another is running on
// the same Engine fails with ErrAlreadySyncing instead of racing (spec §5).
type Engine struct {
	store  accountStore
	docs   documentStore
	relay  relayClient
	kc     *keychain.Keychain
	logger *slog.Logger

	mu sync.Mutex
}

// New creates a sync engine over the given account database, document
// store, relay client, and keychain. st, docs, and rc need only satisfy
// the narrow interfaces this package declares — production callers pass
// *store.Store, *docstore.Store, and *relay.Client.
func New(st accountStore, docs documentStore, rc relayClient, kc *keychain.Keychain, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, docs: docs, relay: rc, kc: kc, logger: logger}
}

// Report summarizes one completed sync round.
type Report struct {
	PulledRecords int
	Downloaded    int
	Uploaded      int
	PushedRecords int
	AsOfVersion   int64
	Conflicts     []merge.ConflictNote
}

// Sync runs one sync attempt to completion, retrying from Pulling up to
// opts.MaxRetries times if the server rejects the push as stale. Only one
// Sync may run at a time per Engine; a concurrent call fails immediately
// with ErrAlreadySyncing rather than blocking (spec §5).
func (e *Engine) Sync(ctx context.Context, opts Options) (*Report, error) {
	if !e.mu.TryLock() {
		return nil, model.New(model.ErrAlreadySyncing, "a sync is already in progress for this account")
	}
	defer e.mu.Unlock()

	opts = opts.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, opts.PerSyncTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		report, err := e.attempt(ctx, opts)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, relay.ErrStaleBase) {
			opts.Progress.transition(Failed)
			return nil, err
		}

		lastErr = err
		e.logger.Warn("sync: server rejected push as stale, retrying from pulling",
			"attempt", attempt+1, "max_retries", opts.MaxRetries)
	}

	opts.Progress.transition(Failed)
	return nil, fmt.Errorf("sync: exhausted %d retries after stale-base rejections: %w", opts.MaxRetries, lastErr)
}

// attempt runs the phases of one sync round in order, stopping and
// returning unpromoted on the first error or cancellation.
func (e *Engine) attempt(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{}

	// --- Pulling ---
	opts.Progress.transition(Pulling)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lastSynced, err := e.store.LastSynced()
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, opts.PerRequestTimeout)
	updates, asOf, err := e.relay.GetUpdates(reqCtx, lastSynced)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("sync: pulling updates: %w", err)
	}
	report.PulledRecords = len(updates)
	report.AsOfVersion = asOf

	// --- Merging ---
	opts.Progress.transition(Merging)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	baseMeta, err := e.store.BaseMetadata()
	if err != nil {
		return nil, err
	}
	localMeta, err := e.store.LocalMetadata()
	if err != nil {
		return nil, err
	}

	baseTree := tree.MapTree(baseMeta)

	remoteOverlay := tree.MapTree{}
	for _, f := range updates {
		remoteOverlay[f.File.ID] = f
	}
	remoteTree := tree.Stage(baseTree, remoteOverlay)
	localTree := tree.Stage(baseTree, tree.MapTree(localMeta))

	docsAdapter := &docTextAdapter{lt: tree.NewLazyTree(remoteTree), ctx: e.kc, docs: e.docs}

	// names may need decrypting under a folder only the local overlay
	// knows about (e.g. a brand new local folder), so the codec's tree
	// spans both remote and local rather than remote alone.
	names := &nameCodec{lt: tree.NewLazyTree(tree.Stage(remoteTree, tree.MapTree(localMeta))), ctx: e.kc}

	result, err := merge.Merge(baseTree, remoteTree, localTree, merge.Options{
		Signer:      e.kc.Seed(),
		SignerPK:    e.kc.Self(),
		Now:         time.Now(),
		MaxSkew:     clockSkew,
		Docs:        docsAdapter,
		Logger:      e.logger,
		DecryptName: names.decrypt,
		EncryptName: names.encrypt,
	})
	if err != nil {
		return nil, fmt.Errorf("sync: merging: %w", err)
	}
	report.Conflicts = result.Conflicts

	// --- Downloading ---
	opts.Progress.transition(Downloading)
	downloaded, err := e.download(ctx, opts, result.NewBase)
	if err != nil {
		return nil, fmt.Errorf("sync: downloading: %w", err)
	}
	report.Downloaded = downloaded

	// --- Uploading ---
	opts.Progress.transition(Uploading)
	uploaded, err := e.upload(ctx, opts, result.NewBase, result.NewLocal)
	if err != nil {
		return nil, fmt.Errorf("sync: uploading: %w", err)
	}
	report.Uploaded = uploaded

	// --- Pushing ---
	opts.Progress.transition(Pushing)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pushIDs := sortedIDs(result.NewLocal)
	pushFiles := make([]*model.SignedFile, 0, len(pushIDs))
	for _, id := range pushIDs {
		pushFiles = append(pushFiles, result.NewLocal[id])
	}

	if len(pushFiles) > 0 {
		reqCtx, cancel := context.WithTimeout(ctx, opts.PerRequestTimeout)
		err := e.relay.UpsertMetadata(reqCtx, pushFiles)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("sync: pushing metadata: %w", err)
		}
	}
	report.PushedRecords = len(pushFiles)

	// --- Finalizing ---
	opts.Progress.transition(Finalizing)
	if err := e.finalize(result, pushIDs, asOf); err != nil {
		return nil, fmt.Errorf("sync: finalizing: %w", err)
	}

	opts.Progress.transition(Idle)
	return report, nil
}

// download fetches ciphertext for every document in newBase not already
// present locally, bounded to opts.FanOut concurrent requests.
func (e *Engine) download(ctx context.Context, opts Options, newBase map[uuid.UUID]*model.SignedFile) (int, error) {
	var pending []uuid.UUID
	for _, id := range sortedIDs(newBase) {
		f := newBase[id]
		if f.File.FileType != model.Document || !f.File.HasDocumentHMAC {
			continue
		}
		if e.docs.Has(id, f.File.DocumentHMAC) {
			continue
		}
		pending = append(pending, id)
	}

	if len(pending) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.FanOut)

	var mu sync.Mutex
	var completed int

	for _, id := range pending {
		id := id
		f := newBase[id]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			reqCtx, cancel := context.WithTimeout(gctx, opts.PerRequestTimeout)
			ciphertext, err := e.relay.GetDocument(reqCtx, id, f.File.DocumentHMAC)
			cancel()
			if err != nil {
				return fmt.Errorf("downloading %s: %w", id, err)
			}

			if err := e.docs.Insert(id, f.File.DocumentHMAC, ciphertext); err != nil {
				return err
			}

			mu.Lock()
			completed++
			opts.Progress.file(Downloading, completed, len(pending), id)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(pending), nil
}

// upload pushes ciphertext for every local document whose content HMAC has
// changed since the (pre-push) server base, bounded to opts.FanOut
// concurrent requests.
func (e *Engine) upload(ctx context.Context, opts Options, newBase, newLocal map[uuid.UUID]*model.SignedFile) (int, error) {
	var pending []uuid.UUID
	for _, id := range sortedIDs(newLocal) {
		f := newLocal[id]
		if f.File.FileType != model.Document || !f.File.HasDocumentHMAC {
			continue
		}
		if bf, ok := newBase[id]; ok && bf.File.HasDocumentHMAC && bf.File.DocumentHMAC == f.File.DocumentHMAC {
			continue
		}
		pending = append(pending, id)
	}

	if len(pending) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.FanOut)

	var mu sync.Mutex
	var completed int

	for _, id := range pending {
		id := id
		f := newLocal[id]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			ciphertext, err := e.docs.Get(id, f.File.DocumentHMAC)
			if err != nil {
				return fmt.Errorf("reading local content for %s: %w", id, err)
			}

			reqCtx, cancel := context.WithTimeout(gctx, opts.PerRequestTimeout)
			err = e.relay.ChangeDoc(reqCtx, id, f.File.DocumentHMAC, ciphertext)
			cancel()
			if err != nil {
				return fmt.Errorf("uploading %s: %w", id, err)
			}

			mu.Lock()
			completed++
			opts.Progress.file(Uploading, completed, len(pending), id)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(pending), nil
}

// finalize promotes the merge result and garbage-collects orphaned
// document blobs, the atomic "all or none" step of spec §4.6/§5.
func (e *Engine) finalize(result *merge.Result, pushedIDs []uuid.UUID, newVersion int64) error {
	if err := e.store.PromoteSync(result.NewBase, pushedIDs, newVersion); err != nil {
		return err
	}

	live := make(map[docstore.LiveKey]bool, len(result.NewBase))
	for _, f := range result.NewBase {
		if f.File.FileType == model.Document && f.File.HasDocumentHMAC {
			live[docstore.LiveKey{ID: f.File.ID, HMAC: f.File.DocumentHMAC}] = true
		}
	}
	for _, f := range result.NewLocal {
		if f.File.FileType == model.Document && f.File.HasDocumentHMAC {
			live[docstore.LiveKey{ID: f.File.ID, HMAC: f.File.DocumentHMAC}] = true
		}
	}

	if _, err := e.docs.Retain(live); err != nil {
		return err
	}
	return nil
}

func sortedIDs(m map[uuid.UUID]*model.SignedFile) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
