package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/crypto"
)

// FileType tags a file's kind. Go has no sum type with per-variant payload,
// so Link's target id rides alongside as a separate, Kind-gated field.
type FileType int

const (
	Document FileType = iota
	Folder
	Link
)

func (t FileType) String() string {
	switch t {
	case Document:
		return "Document"
	case Folder:
		return "Folder"
	case Link:
		return "Link"
	default:
		return "Unknown"
	}
}

// ShareMode is the access level granted by a UserAccessKey.
type ShareMode int

const (
	Read ShareMode = iota
	Write
	Owner
)

// Higher returns the more permissive of two share modes, used when
// resolving concurrent share-grant races during merge (spec §4.4).
func Higher(a, b ShareMode) ShareMode {
	if a > b {
		return a
	}
	return b
}

// UserAccessKey grants a recipient access to a file: the file's symmetric
// key, ECDH-wrapped for that recipient, plus the access level granted.
type UserAccessKey struct {
	EncryptedKey []byte
	Mode         ShareMode
}

// FileMetadata is the plaintext, pre-signature form of a file record.
// Every mutation produces a new FileMetadata that replaces the prior
// version in local_metadata; base records are never mutated in place.
type FileMetadata struct {
	ID       uuid.UUID
	Parent   uuid.UUID
	FileType FileType
	// LinkTarget is set only when FileType == Link.
	LinkTarget uuid.UUID

	// EncryptedName is the file's name, AEAD-encrypted under the parent's
	// symmetric key. Plaintext names are never persisted.
	EncryptedName []byte

	Owner crypto.PublicKey

	IsDeleted bool

	// DocumentHMAC is set only for documents once content has been written.
	DocumentHMAC    [32]byte
	HasDocumentHMAC bool

	UserAccessKeys map[string]UserAccessKey // keyed by crypto.PublicKey.String()

	// FolderAccessKey wraps this file's symmetric key under its parent's
	// symmetric key. Absent on roots, which are reached only via a
	// user_access_key for the owner.
	FolderAccessKey []byte
	HasFolderKey    bool
}

// IsRoot reports whether this file is its own parent — the self-parent
// sentinel every owner's single root carries.
func (f *FileMetadata) IsRoot() bool { return f.ID == f.Parent }

// SignedFile wraps a FileMetadata with the signer's signature and a
// server-bounded timestamp. Once signed, a record's content is immutable;
// further edits produce a brand new SignedFile.
type SignedFile struct {
	File      FileMetadata
	Signer    crypto.PublicKey
	Timestamp time.Time
	Signature []byte
}

// signableBytes canonicalizes the metadata for signing: JSON with sorted
// map keys (encoding/json already sorts map[string]V keys) plus the
// timestamp, so two equal FileMetadata+timestamp pairs always hash the
// same way regardless of construction order.
func signableBytes(f FileMetadata, signer crypto.PublicKey, ts time.Time) ([]byte, error) {
	type wire struct {
		ID              uuid.UUID
		Parent          uuid.UUID
		FileType        FileType
		LinkTarget      uuid.UUID
		EncryptedName   []byte
		Owner           string
		IsDeleted       bool
		DocumentHMAC    [32]byte
		HasDocumentHMAC bool
		UserAccessKeys  map[string]UserAccessKey
		FolderAccessKey []byte
		HasFolderKey    bool
		Signer          string
		Timestamp       int64
	}

	w := wire{
		ID: f.ID, Parent: f.Parent, FileType: f.FileType, LinkTarget: f.LinkTarget,
		EncryptedName: f.EncryptedName, Owner: f.Owner.String(), IsDeleted: f.IsDeleted,
		DocumentHMAC: f.DocumentHMAC, HasDocumentHMAC: f.HasDocumentHMAC,
		UserAccessKeys: f.UserAccessKeys, FolderAccessKey: f.FolderAccessKey,
		HasFolderKey: f.HasFolderKey, Signer: signer.String(), Timestamp: ts.UnixNano(),
	}

	buf, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("model: canonicalizing file for signing: %w", err)
	}
	return buf, nil
}

// SignFile produces a SignedFile by signing the metadata with signerSeed.
// now should be the caller's best estimate of server time (spec §3.2
// invariant 9 bounds the skew a server will accept).
func SignFile(f FileMetadata, signerSeed crypto.Seed, now time.Time) (*SignedFile, error) {
	signer, err := crypto.Public(signerSeed)
	if err != nil {
		return nil, Wrap(ErrUnexpected, "deriving signer public key", err)
	}

	msg, err := signableBytes(f, signer, now)
	if err != nil {
		return nil, Wrap(ErrUnexpected, "canonicalizing file", err)
	}

	return &SignedFile{
		File:      f,
		Signer:    signer,
		Timestamp: now,
		Signature: crypto.Sign(signerSeed, msg),
	}, nil
}

// Verify checks the record's signature and that its timestamp falls within
// maxSkew of serverNow (spec §3.2 invariant 9).
func (s *SignedFile) Verify(serverNow time.Time, maxSkew time.Duration) error {
	msg, err := signableBytes(s.File, s.Signer, s.Timestamp)
	if err != nil {
		return Wrap(ErrUnexpected, "canonicalizing file", err)
	}

	if !crypto.Verify(s.Signer, msg, s.Signature) {
		return New(ErrSignatureInvalid, "signature does not verify under claimed signer")
	}

	delta := s.Timestamp.Sub(serverNow)
	if delta < 0 {
		delta = -delta
	}
	if delta > maxSkew {
		return New(ErrSignatureInvalid, fmt.Sprintf("timestamp skew %s exceeds bound %s", delta, maxSkew))
	}

	return nil
}

// ValidateName enforces spec §3.2 invariant 6: non-empty, no slashes.
func ValidateName(plaintextName string) error {
	if plaintextName == "" {
		return New(ErrFileNameEmpty, "file name must not be empty")
	}
	if strings.Contains(plaintextName, "/") {
		return New(ErrFileNameContainsSlash, "file name must not contain '/'")
	}
	return nil
}

// Clone deep-copies a FileMetadata so callers can safely mutate a copy
// without aliasing slices/maps with the original (each local_metadata
// mutation must start from an independent value, per spec §3.3).
func (f FileMetadata) Clone() FileMetadata {
	out := f
	out.EncryptedName = append([]byte(nil), f.EncryptedName...)
	out.FolderAccessKey = append([]byte(nil), f.FolderAccessKey...)

	if f.UserAccessKeys != nil {
		out.UserAccessKeys = make(map[string]UserAccessKey, len(f.UserAccessKeys))
		for k, v := range f.UserAccessKeys {
			v.EncryptedKey = append([]byte(nil), v.EncryptedKey...)
			out.UserAccessKeys[k] = v
		}
	}

	return out
}

// Equal reports deep equality, used by determinism tests (I6) to assert
// merge produces byte-identical outputs.
func (f FileMetadata) Equal(o FileMetadata) bool {
	if f.ID != o.ID || f.Parent != o.Parent || f.FileType != o.FileType ||
		f.LinkTarget != o.LinkTarget || f.IsDeleted != o.IsDeleted ||
		f.HasDocumentHMAC != o.HasDocumentHMAC || f.HasFolderKey != o.HasFolderKey ||
		!f.Owner.Equal(o.Owner) {
		return false
	}
	if f.HasDocumentHMAC && f.DocumentHMAC != o.DocumentHMAC {
		return false
	}
	if !bytes.Equal(f.EncryptedName, o.EncryptedName) {
		return false
	}
	if !bytes.Equal(f.FolderAccessKey, o.FolderAccessKey) {
		return false
	}
	if len(f.UserAccessKeys) != len(o.UserAccessKeys) {
		return false
	}
	for k, v := range f.UserAccessKeys {
		ov, ok := o.UserAccessKeys[k]
		if !ok || ov.Mode != v.Mode || !bytes.Equal(ov.EncryptedKey, v.EncryptedKey) {
			return false
		}
	}
	return true
}
