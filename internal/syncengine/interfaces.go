package syncengine

import (
	"context"

	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/docstore"
	"github.com/lockbookgo/lbcore/internal/model"
)

// relayClient is the subset of *relay.Client the engine drives. Declared
// here, satisfied there — the teacher's EngineConfig takes the same shape
// (DeltaFetcher/ItemClient/Downloader/Uploader, each satisfied by
// *graph.Client) so tests can swap in a fake without a live server.
type relayClient interface {
	GetUpdates(ctx context.Context, sinceVersion int64) ([]*model.SignedFile, int64, error)
	GetDocument(ctx context.Context, id uuid.UUID, hmac [32]byte) ([]byte, error)
	ChangeDoc(ctx context.Context, id uuid.UUID, newHMAC [32]byte, ciphertext []byte) error
	UpsertMetadata(ctx context.Context, files []*model.SignedFile) error
}

// accountStore is the subset of *store.Store the engine needs.
type accountStore interface {
	LastSynced() (int64, error)
	BaseMetadata() (map[uuid.UUID]*model.SignedFile, error)
	LocalMetadata() (map[uuid.UUID]*model.SignedFile, error)
	PromoteSync(newBase map[uuid.UUID]*model.SignedFile, pushedIDs []uuid.UUID, newVersion int64) error
}

// documentStore is the subset of *docstore.Store the engine needs.
type documentStore interface {
	Has(id uuid.UUID, hmac [32]byte) bool
	Get(id uuid.UUID, hmac [32]byte) ([]byte, error)
	Insert(id uuid.UUID, hmac [32]byte, ciphertext []byte) error
	Retain(live map[docstore.LiveKey]bool) (int, error)
}
