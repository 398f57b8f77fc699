package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
)

// signedRequestBody is the part of a request that gets signed: the
// caller's identity, a monotonic timestamp, the method name, and its
// payload (spec §6.1).
type signedRequestBody struct {
	PublicKey crypto.PublicKey `json:"public_key"`
	Timestamp int64            `json:"timestamp"`
	Method    string           `json:"method"`
	Payload   json.RawMessage `json:"payload"`
}

type signedRequest struct {
	Body      signedRequestBody `json:"body"`
	Signature []byte            `json:"signature"`
}

// envelope is the top-level request sent over HTTPS.
type envelope struct {
	SignedRequest signedRequest `json:"signed_request"`
	ClientVersion string        `json:"client_version"`
}

// serverError is the typed-error half of a response envelope.
type serverError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// response is the top-level reply: exactly one of Result/Error is set.
type response struct {
	Result json.RawMessage `json:"result"`
	Error  *serverError    `json:"error"`
}

func signableRequestBytes(body signedRequestBody) ([]byte, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("relay: canonicalizing request body: %w", err)
	}
	return buf, nil
}

// --- Method payload/result shapes ---

type newAccountPayload struct {
	Username  string            `json:"username"`
	PublicKey crypto.PublicKey  `json:"public_key"`
	Root      *model.SignedFile `json:"root"`
}

type getPublicKeyPayload struct {
	Username string `json:"username"`
}

type getPublicKeyResult struct {
	PublicKey crypto.PublicKey `json:"public_key"`
}

type getUsernamePayload struct {
	PublicKey crypto.PublicKey `json:"public_key"`
}

type getUsernameResult struct {
	Username string `json:"username"`
}

type getUpdatesPayload struct {
	SinceMetadataVersion int64 `json:"since_metadata_version"`
}

type getUpdatesResult struct {
	FileMetadata []*model.SignedFile `json:"file_metadata"`
	AsOfVersion  int64               `json:"as_of_version"`
}

type getDocumentPayload struct {
	ID   uuid.UUID `json:"id"`
	HMAC []byte    `json:"hmac"`
}

type getDocumentResult struct {
	Ciphertext []byte `json:"ciphertext"`
}

type changeDocPayload struct {
	ID         uuid.UUID `json:"id"`
	NewHMAC    []byte    `json:"new_hmac"`
	Ciphertext []byte    `json:"ciphertext"`
}

type upsertMetadataPayload struct {
	Files []*model.SignedFile `json:"files"`
}

type getFileIdsResult struct {
	IDs []uuid.UUID `json:"ids"`
}

// clockNow is overridable in tests that need deterministic request
// timestamps; production callers always get time.Now.
var clockNow = time.Now
