package syncengine

import (
	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/tree"
)

// nameCodec satisfies merge's DecryptName/EncryptName callbacks by
// resolving a folder's symmetric key through a LazyTree, the same
// key-resolution path docTextAdapter uses for document content.
type nameCodec struct {
	lt  *tree.LazyTree
	ctx tree.AccessContext
}

func (n *nameCodec) decrypt(parentID uuid.UUID, encryptedName []byte) (string, error) {
	key, err := n.lt.DecryptKey(parentID, n.ctx)
	if err != nil {
		return "", err
	}
	plaintext, err := crypto.DecryptSym(key, encryptedName)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (n *nameCodec) encrypt(parentID uuid.UUID, plaintext string) ([]byte, error) {
	key, err := n.lt.DecryptKey(parentID, n.ctx)
	if err != nil {
		return nil, err
	}
	return crypto.EncryptSym(key, []byte(plaintext))
}
