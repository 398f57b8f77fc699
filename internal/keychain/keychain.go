// Package keychain holds an account's private key and the sole entry
// points to ECDH-wrapped encryption, plus a cache mapping public keys to
// usernames learned from the server (spec §4.7).
package keychain

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
)

// UsernameResolver looks up a username for a public key against the relay
// server when the local cache misses.
type UsernameResolver interface {
	GetUsername(ctx context.Context, pub crypto.PublicKey) (string, error)
}

// Keychain is the sole holder of an account's private key material. It is
// never logged and never written anywhere outside the account database.
type Keychain struct {
	account  model.Account
	self     crypto.PublicKey
	usernames *ristretto.Cache
	resolver UsernameResolver
}

// New derives the account's public key once and wraps it with a
// pubkey->username lookup cache.
func New(account model.Account, resolver UsernameResolver) (*Keychain, error) {
	pub, err := account.PublicKey()
	if err != nil {
		return nil, model.Wrap(model.ErrUnexpected, "deriving account public key", err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("keychain: invalid username cache config: %w", err)
	}

	return &Keychain{account: account, self: pub, usernames: cache, resolver: resolver}, nil
}

// Seed returns the account's private seed, satisfying tree.AccessContext.
func (k *Keychain) Seed() crypto.Seed { return k.account.Seed }

// Self returns the account's public key, satisfying tree.AccessContext.
func (k *Keychain) Self() crypto.PublicKey { return k.self }

// Account returns the underlying account record.
func (k *Keychain) Account() model.Account { return k.account }

// EncryptFor wraps bytes (typically a file's symmetric key) for recipient.
// This and DecryptFrom are the only entry points to ECDH+AEAD (spec §4.7).
func (k *Keychain) EncryptFor(recipient crypto.PublicKey, bytes []byte) ([]byte, error) {
	return crypto.EncryptFor(k.account.Seed, recipient, bytes)
}

// DecryptFrom opens a blob produced by EncryptFor(senderSeed, k.Self(), ...),
// returning the plaintext. The caller supplies the claimed sender's public
// key, typically recovered from the owning file's signed metadata.
func (k *Keychain) DecryptFrom(sender crypto.PublicKey, blob []byte) ([]byte, error) {
	return crypto.DecryptFrom(k.account.Seed, sender, blob)
}

// UsernameFor resolves pub to a username, hitting the local cache before
// falling back to the server.
func (k *Keychain) UsernameFor(ctx context.Context, pub crypto.PublicKey) (string, error) {
	key := pub.String()
	if v, ok := k.usernames.Get(key); ok {
		return v.(string), nil
	}

	if k.resolver == nil {
		return "", model.New(model.ErrUsernameNotFound, key)
	}

	name, err := k.resolver.GetUsername(ctx, pub)
	if err != nil {
		return "", err
	}

	k.usernames.Set(key, name, 1)
	k.usernames.Wait()
	return name, nil
}

// CacheUsername records a known (pubkey, username) pair without a round
// trip, e.g. after NewAccount or a successful GetUpdates that included the
// mapping inline.
func (k *Keychain) CacheUsername(pub crypto.PublicKey, username string) {
	k.usernames.Set(pub.String(), username, 1)
	k.usernames.Wait()
}

// Sign signs msg with the account's signing subkey.
func (k *Keychain) Sign(msg []byte) []byte {
	return crypto.Sign(k.account.Seed, msg)
}
