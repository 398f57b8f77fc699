package model

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lockbookgo/lbcore/internal/crypto"
)

// MaxUsernameLength is the longest a username may be.
const MaxUsernameLength = 32

var validate = validator.New()

// betaUsers mirrors the original implementation's opt-in telemetry list —
// users who've agreed to have riskier code paths enabled for them first.
// Has no effect on sync/merge behavior; kept for fidelity to the source
// this engine was distilled from.
var betaUsers = map[string]bool{
	"parth": true, "travis": true, "smail": true, "adam": true,
	"krish": true, "aravd": true, "luca": true, "steve": true,
}

// Account is a single process install's identity: a username, the relay
// server's API URL, and the root private key everything else derives from.
// Identity is the public key, not the username — two accounts can claim
// the same username only if the server rejects the collision at creation.
type Account struct {
	Username string `validate:"required,max=32,excludesall=/ "`
	APIURL   string `validate:"required,url"`
	Seed     crypto.Seed
}

// Validate checks the account's plaintext fields against their structural
// shape (non-empty username within MaxUsernameLength, no path separators or
// spaces, a well-formed API URL). This is the structural layer; semantic
// checks that need decrypted file content (e.g. ValidateName) live
// separately.
func (a *Account) Validate() error {
	if err := validate.Struct(a); err != nil {
		return Wrap(ErrUsernameInvalid, "validating account", err)
	}
	return nil
}

// NewAccount generates a fresh account with a random seed.
func NewAccount(username, apiURL string) (*Account, error) {
	acct := &Account{Username: username, APIURL: apiURL}
	if err := acct.Validate(); err != nil {
		return nil, err
	}

	seed, err := crypto.NewSeed()
	if err != nil {
		return nil, Wrap(ErrUnexpected, "generating account key", err)
	}
	acct.Seed = seed

	return acct, nil
}

// PublicKey derives the account's public identity.
func (a *Account) PublicKey() (crypto.PublicKey, error) {
	pk, err := crypto.Public(a.Seed)
	if err != nil {
		return crypto.PublicKey{}, Wrap(ErrUnexpected, "deriving public key", err)
	}
	return pk, nil
}

// Color hashes the username and takes the first three bytes as an RGB
// triple, giving UIs a stable per-user color without a profile picture.
// Ported from the original account.rs's color() — no consumer in this
// repo renders it, but it's part of the account's public surface there.
func (a *Account) Color() (r, g, b uint8) {
	sum := sha256.Sum256([]byte(a.Username))
	return sum[0], sum[1], sum[2]
}

// IsBeta reports whether this username opted into the beta program.
func (a *Account) IsBeta() bool {
	return betaUsers[a.Username]
}

const (
	phraseWordCount  = 24
	phraseBitsPerKey = crypto.SeedSize * 8 // 256
	checksumBits     = 4
	wordBits         = 11
)

// Phrase encodes the account's private key as 24 words from the engine's
// mnemonic wordlist, with a trailing 4-bit SHA-256 checksum folded into the
// final word's index — mirroring the original implementation's get_phrase.
func (a *Account) Phrase() ([phraseWordCount]string, error) {
	return SeedToPhrase(a.Seed)
}

// SeedToPhrase encodes a raw seed as a 24-word phrase. The 256 key bits and
// 4 checksum bits (260 total) are padded with 4 trailing zero bits to reach
// 264 = 24*11, so every word carries a full 11-bit index; PhraseToSeed
// simply discards those 4 padding bits on decode. The original
// implementation instead relies on its final chunk being short by
// construction (260 is not a multiple of 11) and strips the resulting
// zero-padding from the reassembled bitstring — equivalent in effect, but
// this version avoids a partial final chunk.
func SeedToPhrase(seed crypto.Seed) ([phraseWordCount]string, error) {
	bitstring := bytesToBits(seed[:])

	checksum := sha256.Sum256(seed[:])
	checksumBitstring := bytesToBits(checksum[:])[:checksumBits]

	combined := bitstring + checksumBitstring + strings.Repeat("0", phraseWordCount*wordBits-phraseBitsPerKey-checksumBits)
	if len(combined) != phraseWordCount*wordBits {
		return [phraseWordCount]string{}, New(ErrUnexpected, "combined bit length mismatch")
	}

	var phrase [phraseWordCount]string
	for i := 0; i < phraseWordCount; i++ {
		chunk := combined[i*wordBits : (i+1)*wordBits]
		idx := bitsToUint16(chunk)
		phrase[i] = wordlist[idx]
	}

	return phrase, nil
}

// PhraseToSeed reverses SeedToPhrase, validating the embedded checksum.
// Returns ErrKeyPhraseInvalid on any malformed word or checksum mismatch.
func PhraseToSeed(phrase [phraseWordCount]string) (crypto.Seed, error) {
	wordIndex := make(map[string]int, len(wordlist))
	for i, w := range wordlist {
		wordIndex[w] = i
	}

	var combined strings.Builder
	for _, word := range phrase {
		idx, ok := wordIndex[strings.ToLower(strings.TrimSpace(word))]
		if !ok {
			return crypto.Seed{}, New(ErrKeyPhraseInvalid, fmt.Sprintf("unknown word %q", word))
		}
		combined.WriteString(uint16ToBits(uint16(idx), wordBits))
	}

	full := combined.String()
	if len(full) != phraseWordCount*wordBits {
		return crypto.Seed{}, New(ErrKeyPhraseInvalid, "unexpected phrase bit length")
	}

	keyBits := full[:phraseBitsPerKey]
	checksumBitstring := full[phraseBitsPerKey : phraseBitsPerKey+checksumBits]

	var seed crypto.Seed
	keyBytes := bitsToBytes(keyBits)
	copy(seed[:], keyBytes)

	want := sha256.Sum256(seed[:])
	wantChecksum := bytesToBits(want[:])[:checksumBits]

	if wantChecksum != checksumBitstring {
		return crypto.Seed{}, New(ErrKeyPhraseInvalid, "checksum mismatch")
	}

	return seed, nil
}

func bytesToBits(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 8)
	for _, by := range b {
		for i := 7; i >= 0; i-- {
			if by&(1<<uint(i)) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String()
}

func bitsToBytes(s string) []byte {
	out := make([]byte, len(s)/8)
	for i := range out {
		var b byte
		for j := 0; j < 8; j++ {
			b <<= 1
			if s[i*8+j] == '1' {
				b |= 1
			}
		}
		out[i] = b
	}
	return out
}

func bitsToUint16(s string) uint16 {
	var v uint16
	for i := 0; i < len(s); i++ {
		v <<= 1
		if s[i] == '1' {
			v |= 1
		}
	}
	return v
}

func uint16ToBits(v uint16, width int) string {
	var sb strings.Builder
	for i := width - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
