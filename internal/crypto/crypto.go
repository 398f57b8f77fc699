// Package crypto implements the primitive cryptographic operations the
// lockbook-go engine is built on: X25519 ECDH key agreement, HKDF key
// derivation, ChaCha20-Poly1305 AEAD encryption, Ed25519 signing, and
// HMAC-SHA256 content addressing.
//
// Go's standard library and golang.org/x/crypto don't expose a single
// elliptic curve usable for both ECDSA-style signing and Diffie-Hellman
// key agreement the way the original implementation's curve does. Rather
// than hand-roll that conversion, an account's identity key is a pair of
// independently-derived subkeys (one X25519, one Ed25519) stretched from a
// single 32-byte seed via HKDF. See DESIGN.md for the rationale.
package crypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// SeedSize is the size, in bytes, of an account's root private key.
const SeedSize = 32

// SymKeySize is the size, in bytes, of a file's symmetric key.
const SymKeySize = 32

const (
	hkdfInfoECDH = "lockbook-go/ecdh/v1"
	hkdfInfoSign = "lockbook-go/sign/v1"
	hkdfInfoAEAD = "lockbook-go/aead-from-shared/v1"
)

// Seed is an account's root private key: 32 random bytes from which both
// the ECDH and signing subkeys are deterministically derived.
type Seed [SeedSize]byte

// PublicKey is an account's public identity: the X25519 public point used
// for ECDH key wrapping, paired with the Ed25519 public key used to verify
// signatures. The two always travel together — sharing or signature
// verification needs both halves.
type PublicKey struct {
	ECDH [32]byte
	Sign [32]byte
}

// String renders the public key as a single base64 token suitable for use
// as a map key or for display (e.g. "share with <token>").
func (p PublicKey) String() string {
	var buf [64]byte
	copy(buf[:32], p.ECDH[:])
	copy(buf[32:], p.Sign[:])
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

// Equal reports whether two public keys are identical.
func (p PublicKey) Equal(o PublicKey) bool {
	return subtle.ConstantTimeCompare(p.ECDH[:], o.ECDH[:]) == 1 &&
		subtle.ConstantTimeCompare(p.Sign[:], o.Sign[:]) == 1
}

// ParsePublicKey decodes a PublicKey from its String() form.
func ParsePublicKey(s string) (PublicKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(raw) != 64 {
		return PublicKey{}, fmt.Errorf("crypto: malformed public key: %w", err)
	}

	var pk PublicKey
	copy(pk.ECDH[:], raw[:32])
	copy(pk.Sign[:], raw[32:])
	return pk, nil
}

// NewSeed generates a fresh random account seed.
func NewSeed() (Seed, error) {
	var s Seed
	if _, err := io.ReadFull(rand.Reader, s[:]); err != nil {
		return Seed{}, fmt.Errorf("crypto: generating seed: %w", err)
	}
	return s, nil
}

func stretch(seed Seed, info string) [32]byte {
	r := hkdf.New(sha256.New, seed[:], nil, []byte(info))
	var out [32]byte
	// hkdf.New's Reader never errors short of entropy exhaustion.
	_, _ = io.ReadFull(r, out[:])
	return out
}

// ecdhPriv derives the account's X25519 scalar. curve25519.X25519 clamps
// the scalar per RFC 7748 internally, so the raw HKDF output is usable as-is.
func ecdhPriv(seed Seed) [32]byte { return stretch(seed, hkdfInfoECDH) }

func signPriv(seed Seed) ed25519.PrivateKey {
	sub := stretch(seed, hkdfInfoSign)
	return ed25519.NewKeyFromSeed(sub[:])
}

// Public derives the account's public identity from its seed.
func Public(seed Seed) (PublicKey, error) {
	priv := ecdhPriv(seed)
	ecdhPub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return PublicKey{}, fmt.Errorf("crypto: deriving ecdh public key: %w", err)
	}

	signPub := signPriv(seed).Public().(ed25519.PublicKey)

	var pk PublicKey
	copy(pk.ECDH[:], ecdhPub)
	copy(pk.Sign[:], signPub)
	return pk, nil
}

// Sign signs msg with the account's Ed25519 subkey.
func Sign(seed Seed, msg []byte) []byte {
	return ed25519.Sign(signPriv(seed), msg)
}

// Verify checks sig against msg under the signer's public key.
func Verify(signer PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(signer.Sign[:]), msg, sig)
}

// NewSymKey generates a fresh random symmetric key for a file.
func NewSymKey() ([SymKeySize]byte, error) {
	var k [SymKeySize]byte
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return k, fmt.Errorf("crypto: generating symmetric key: %w", err)
	}
	return k, nil
}

// EncryptSym seals plaintext under key with ChaCha20-Poly1305, returning
// nonce||ciphertext||tag. Used for document bodies, encrypted names, and
// folder_access_key wrapping (a key wrapped under its parent's key).
func EncryptSym(key [SymKeySize]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: building aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: generating nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// DecryptSym opens a blob produced by EncryptSym.
func DecryptSym(key [SymKeySize]byte, blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: building aead: %w", err)
	}

	if len(blob) < aead.NonceSize() {
		return nil, errors.New("crypto: ciphertext too short")
	}

	nonce, ct := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: decryption failed: %w", err)
	}

	return pt, nil
}

// sharedAEADKey derives a symmetric key from a static-static X25519 ECDH
// exchange between mySeed and theirs, suitable for wrapping a user_access_key.
func sharedAEADKey(mySeed Seed, theirs PublicKey) ([32]byte, error) {
	priv := ecdhPriv(mySeed)
	shared, err := curve25519.X25519(priv[:], theirs.ECDH[:])
	if err != nil {
		return [32]byte{}, fmt.Errorf("crypto: ecdh: %w", err)
	}

	r := hkdf.New(sha256.New, shared, nil, []byte(hkdfInfoAEAD))
	var key [32]byte
	_, _ = io.ReadFull(r, key[:])
	return key, nil
}

// EncryptFor wraps bytes (typically a file's symmetric key) for recipient,
// using static-static ECDH between mySeed and recipient. Returns a blob
// that only the recipient's matching seed can open.
func EncryptFor(mySeed Seed, recipient PublicKey, bytes []byte) ([]byte, error) {
	key, err := sharedAEADKey(mySeed, recipient)
	if err != nil {
		return nil, err
	}
	return EncryptSym(key, bytes)
}

// DecryptFrom opens a blob produced by EncryptFor(senderSeed, myPub, ...).
// The caller supplies the claimed sender's public key (recovered from the
// owning file's signed metadata) since the ciphertext itself carries no
// sender identity — ECDH wrapping authenticates implicitly via the AEAD
// tag: a wrong sender key fails to decrypt.
func DecryptFrom(mySeed Seed, sender PublicKey, blob []byte) ([]byte, error) {
	priv := ecdhPriv(mySeed)
	shared, err := curve25519.X25519(priv[:], sender.ECDH[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: ecdh: %w", err)
	}

	r := hkdf.New(sha256.New, shared, nil, []byte(hkdfInfoAEAD))
	var key [32]byte
	_, _ = io.ReadFull(r, key[:])

	return DecryptSym(key, blob)
}

// HMAC returns the keyed HMAC-SHA256 of data under key, used to content-
// address encrypted documents (spec invariant 10).
func HMAC(key [SymKeySize]byte, data []byte) [sha256.Size]byte {
	mac := hmac.New(sha256.New, key[:])
	mac.Write(data)

	var out [sha256.Size]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// HMACEqual constant-time compares two HMAC digests.
func HMACEqual(a, b [sha256.Size]byte) bool {
	return hmac.Equal(a[:], b[:])
}

// SealDocument encrypts a document body under key and returns both the
// ciphertext and its content-address HMAC, the pairing every write of new
// or changed document content produces (spec invariant 10).
func SealDocument(key [SymKeySize]byte, plaintext []byte) ([]byte, [sha256.Size]byte, error) {
	ciphertext, err := EncryptSym(key, plaintext)
	if err != nil {
		return nil, [sha256.Size]byte{}, err
	}
	return ciphertext, HMAC(key, ciphertext), nil
}
