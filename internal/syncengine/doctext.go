package syncengine

import (
	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/merge"
	"github.com/lockbookgo/lbcore/internal/tree"
)

// docTextAdapter satisfies merge.DocumentText by decrypting a document's
// content key through a LazyTree and reading its ciphertext from the local
// document store, bounded to documents small enough for textual merge.
type docTextAdapter struct {
	lt   *tree.LazyTree
	ctx  tree.AccessContext
	docs documentStore
}

var _ merge.DocumentText = (*docTextAdapter)(nil)

func (d *docTextAdapter) Text(id uuid.UUID, hmac [32]byte) (string, bool) {
	if !d.docs.Has(id, hmac) {
		return "", false
	}

	ciphertext, err := d.docs.Get(id, hmac)
	if err != nil {
		return "", false
	}
	if len(ciphertext) > merge.MaxTextMergeBytes {
		return "", false
	}

	key, err := d.lt.DecryptKey(id, d.ctx)
	if err != nil {
		return "", false
	}

	plaintext, err := crypto.DecryptSym(key, ciphertext)
	if err != nil {
		return "", false
	}

	return string(plaintext), true
}
