package tree

import (
	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
)

// AccessContext is the minimal identity a LazyTree needs to decrypt keys
// and names: the caller's own seed (for unwrapping a user_access_key
// addressed to them) and the corresponding public key (to recognize which
// ancestor's user_access_key is theirs). Satisfied by *keychain.Keychain
// without tree importing keychain, avoiding an import cycle.
type AccessContext interface {
	Seed() crypto.Seed
	Self() crypto.PublicKey
}

// LazyTree wraps a TreeLike with memoized, invalidate-on-write caches for
// the values that are expensive to recompute: decrypted names, derived
// symmetric keys, and deletion status (spec §4.2).
type LazyTree struct {
	Inner TreeLike
	cache *memo
}

func NewLazyTree(inner TreeLike) *LazyTree {
	return &LazyTree{Inner: inner, cache: newMemo()}
}

func (lt *LazyTree) Ids() []uuid.UUID { return lt.Inner.Ids() }

func (lt *LazyTree) MaybeFind(id uuid.UUID) (*model.SignedFile, bool) {
	return lt.Inner.MaybeFind(id)
}

// Invalidate drops every memoized value. Called after any mutation to the
// underlying tree — the engine is single-writer, so wholesale invalidation
// is simpler and cheap enough to not need per-key tracking (spec §9).
func (lt *LazyTree) Invalidate() {
	lt.cache.clear()
}

// DecryptKey returns id's symmetric key, walking up the parent chain to the
// nearest ancestor carrying a user_access_key for ctx, unwrapping it via
// ECDH, then re-wrapping back down through each folder_access_key
// (spec §4.2).
func (lt *LazyTree) DecryptKey(id uuid.UUID, ctx AccessContext) ([32]byte, error) {
	cacheKey := "key:" + id.String() + ":" + ctx.Self().String()
	if v, ok := lt.cache.get(cacheKey); ok {
		return v.([32]byte), nil
	}

	key, err := lt.decryptKeyUncached(id, ctx)
	if err != nil {
		return [32]byte{}, err
	}

	lt.cache.set(cacheKey, key)
	return key, nil
}

func (lt *LazyTree) decryptKeyUncached(id uuid.UUID, ctx AccessContext) ([32]byte, error) {
	f, err := Find(lt, id)
	if err != nil {
		return [32]byte{}, err
	}

	selfKey := ctx.Self().String()
	if uak, ok := f.File.UserAccessKeys[selfKey]; ok {
		raw, err := crypto.DecryptFrom(ctx.Seed(), f.File.Owner, uak.EncryptedKey)
		if err != nil {
			return [32]byte{}, model.Wrap(model.ErrUnexpected, "unwrapping user access key", err)
		}
		var key [32]byte
		copy(key[:], raw)
		return key, nil
	}

	if f.File.IsRoot() {
		return [32]byte{}, model.New(model.ErrInsufficientPermission, "no access key for root "+id.String())
	}

	parentKey, err := lt.DecryptKey(f.File.Parent, ctx)
	if err != nil {
		return [32]byte{}, err
	}

	if !f.File.HasFolderKey {
		return [32]byte{}, model.New(model.ErrUnexpected, "file missing folder_access_key: "+id.String())
	}

	raw, err := crypto.DecryptSym(parentKey, f.File.FolderAccessKey)
	if err != nil {
		return [32]byte{}, model.Wrap(model.ErrUnexpected, "unwrapping folder access key", err)
	}

	var key [32]byte
	copy(key[:], raw)
	return key, nil
}

// Name decrypts id's name using its parent's key.
func (lt *LazyTree) Name(id uuid.UUID, ctx AccessContext) (string, error) {
	cacheKey := "name:" + id.String() + ":" + ctx.Self().String()
	if v, ok := lt.cache.get(cacheKey); ok {
		return v.(string), nil
	}

	f, err := Find(lt, id)
	if err != nil {
		return "", err
	}

	var key [32]byte
	if f.File.IsRoot() {
		key, err = lt.DecryptKey(id, ctx)
	} else {
		key, err = lt.DecryptKey(f.File.Parent, ctx)
	}
	if err != nil {
		return "", err
	}

	raw, err := crypto.DecryptSym(key, f.File.EncryptedName)
	if err != nil {
		return "", model.Wrap(model.ErrUnexpected, "decrypting name", err)
	}

	name := string(raw)
	lt.cache.set(cacheKey, name)
	return name, nil
}

// NameUsingLinks resolves id's display name, following a link to its
// target's name when id is itself a link (spec §4.2).
func (lt *LazyTree) NameUsingLinks(id uuid.UUID, ctx AccessContext) (string, error) {
	f, err := Find(lt, id)
	if err != nil {
		return "", err
	}

	if f.File.FileType == model.Link {
		return lt.Name(f.File.LinkTarget, ctx)
	}
	return lt.Name(id, ctx)
}

// CalculateDeleted reports whether id or any ancestor is tombstoned.
func (lt *LazyTree) CalculateDeleted(id uuid.UUID) (bool, error) {
	cacheKey := "deleted:" + id.String()
	if v, ok := lt.cache.get(cacheKey); ok {
		return v.(bool), nil
	}

	f, err := Find(lt, id)
	if err != nil {
		return false, err
	}
	if f.File.IsDeleted {
		lt.cache.set(cacheKey, true)
		return true, nil
	}
	if f.File.IsRoot() {
		lt.cache.set(cacheKey, false)
		return false, nil
	}

	parentDeleted, err := lt.CalculateDeleted(f.File.Parent)
	if err != nil {
		return false, err
	}

	lt.cache.set(cacheKey, parentDeleted)
	return parentDeleted, nil
}

// linkedBy indexes, for every link target, the id of the link pointing at
// it — invariant 7 limits this to at most one link per target per owner,
// so the index is a plain map rather than a multimap.
func (lt *LazyTree) linkedByIndex() map[uuid.UUID]uuid.UUID {
	if v, ok := lt.cache.get("linked_by_index"); ok {
		return v.(map[uuid.UUID]uuid.UUID)
	}

	idx := make(map[uuid.UUID]uuid.UUID)
	for _, id := range lt.Ids() {
		f, _ := lt.MaybeFind(id)
		if f != nil && f.File.FileType == model.Link && !f.File.IsDeleted {
			idx[f.File.LinkTarget] = id
		}
	}

	lt.cache.set("linked_by_index", idx)
	return idx
}

// LinkedBy returns the id of the link pointing at target, if any.
func (lt *LazyTree) LinkedBy(target uuid.UUID) (uuid.UUID, bool) {
	id, ok := lt.linkedByIndex()[target]
	return id, ok
}

// InPendingShare reports whether id carries a user_access_key for ctx but
// has no local link pointing to it yet — a share the user has been granted
// but not yet "accepted" into their own namespace (spec glossary, activity.rs).
func (lt *LazyTree) InPendingShare(id uuid.UUID, ctx AccessContext) (bool, error) {
	f, err := Find(lt, id)
	if err != nil {
		return false, err
	}

	if _, ok := f.File.UserAccessKeys[ctx.Self().String()]; !ok {
		return false, nil
	}
	if f.File.Owner.Equal(ctx.Self()) {
		return false, nil
	}

	_, linked := lt.LinkedBy(id)
	return !linked, nil
}

// IDToPath renders id's full slash-separated path by decrypting names up
// the ancestor chain (spec §4.2, §4.8).
func (lt *LazyTree) IDToPath(id uuid.UUID, ctx AccessContext) (string, error) {
	ancestors, err := Ancestors(lt, id)
	if err != nil {
		return "", err
	}

	chain := append([]uuid.UUID{id}, ancestors...)
	names := make([]string, len(chain))
	for i, a := range chain {
		name, err := lt.Name(a, ctx)
		if err != nil {
			return "", err
		}
		names[i] = name
	}

	out := ""
	for i := len(names) - 1; i >= 0; i-- {
		out += "/" + names[i]
	}
	return out, nil
}
