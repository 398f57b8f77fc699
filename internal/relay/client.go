// Package relay implements the wire-protocol client against the sync
// server (spec §6.1): every call signs a request envelope with the
// account's private key, posts it over HTTPS, and classifies the
// server's typed response into a sentinel error or a decoded result.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/crypto"
	"github.com/lockbookgo/lbcore/internal/model"
)

const (
	maxRetries     = 3
	baseBackoff    = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
	clientVersion  = "lbcore/0.1"
)

// Client is an HTTP client for the relay server's signed-envelope RPC
// protocol, structured like the teacher's graph.Client: request
// construction, retry with exponential backoff, and error classification
// all live in one small file.
type Client struct {
	baseURL    string
	httpClient *http.Client
	seed       crypto.Seed
	self       crypto.PublicKey
	logger     *slog.Logger

	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates a relay client that signs every request with seed.
func NewClient(baseURL string, httpClient *http.Client, seed crypto.Seed, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	self, err := crypto.Public(seed)
	if err != nil {
		return nil, model.Wrap(model.ErrUnexpected, "deriving relay client identity", err)
	}

	return &Client{
		baseURL: baseURL, httpClient: httpClient, seed: seed, self: self,
		logger: logger, sleepFunc: timeSleep,
	}, nil
}

// call signs method+payload, posts it with retry on transient transport
// failures, and decodes the result into out (which may be nil for
// methods with no reply payload).
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("relay: marshaling %s payload: %w", method, err)
	}

	body := signedRequestBody{
		PublicKey: c.self,
		Timestamp: clockNow().UnixNano(),
		Method:    method,
		Payload:   payloadBytes,
	}

	signable, err := signableRequestBytes(body)
	if err != nil {
		return err
	}

	env := envelope{
		SignedRequest: signedRequest{Body: body, Signature: crypto.Sign(c.seed, signable)},
		ClientVersion: clientVersion,
	}

	reqBytes, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("relay: marshaling %s envelope: %w", method, err)
	}

	respBytes, err := c.postRetry(ctx, method, reqBytes)
	if err != nil {
		return err
	}

	var resp response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return fmt.Errorf("relay: decoding %s response: %w", method, err)
	}

	if resp.Error != nil {
		return classifyKind(resp.Error.Kind, resp.Error.Message)
	}

	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("relay: decoding %s result: %w", method, err)
		}
	}

	return nil
}

func (c *Client) postRetry(ctx context.Context, method string, reqBytes []byte) ([]byte, error) {
	var attempt int
	for {
		respBytes, status, err := c.postOnce(ctx, reqBytes)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("relay: %s canceled: %w", method, ctx.Err())
			}

			if attempt < maxRetries {
				backoff := calcBackoff(attempt)
				c.logger.Warn("retrying relay call after network error",
					"method", method, "attempt", attempt+1, "backoff", backoff, "error", err)

				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return nil, fmt.Errorf("relay: %s canceled: %w", method, sleepErr)
				}
				attempt++
				continue
			}

			return nil, fmt.Errorf("relay: %s failed after %d retries: %w", method, maxRetries, err)
		}

		if status >= 200 && status < 300 {
			return respBytes, nil
		}

		if isRetryableStatus(status) && attempt < maxRetries {
			backoff := calcBackoff(attempt)
			c.logger.Warn("retrying relay call after HTTP error",
				"method", method, "status", status, "attempt", attempt+1, "backoff", backoff)

			if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
				return nil, fmt.Errorf("relay: %s canceled: %w", method, sleepErr)
			}
			attempt++
			continue
		}

		return nil, fmt.Errorf("relay: %s: unexpected HTTP status %d", method, status)
	}
}

func (c *Client) postOnce(ctx context.Context, reqBytes []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("relay: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("relay: reading response body: %w", err)
	}

	return respBytes, resp.StatusCode, nil
}

func calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter, not a secret
	return time.Duration(backoff + jitter)
}

func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewAccount registers username/publicKey with root as the account's
// initial root folder record.
func (c *Client) NewAccount(ctx context.Context, username string, pub crypto.PublicKey, root *model.SignedFile) error {
	return c.call(ctx, "NewAccount", newAccountPayload{Username: username, PublicKey: pub, Root: root}, nil)
}

// GetPublicKey resolves a username to its account's public key.
func (c *Client) GetPublicKey(ctx context.Context, username string) (crypto.PublicKey, error) {
	var result getPublicKeyResult
	if err := c.call(ctx, "GetPublicKey", getPublicKeyPayload{Username: username}, &result); err != nil {
		return crypto.PublicKey{}, err
	}
	return result.PublicKey, nil
}

// GetUsername resolves a public key to its account's username. Satisfies
// keychain.UsernameResolver.
func (c *Client) GetUsername(ctx context.Context, pub crypto.PublicKey) (string, error) {
	var result getUsernameResult
	if err := c.call(ctx, "GetUsername", getUsernamePayload{PublicKey: pub}, &result); err != nil {
		return "", err
	}
	return result.Username, nil
}

// GetUpdates requests every signed metadata record newer than
// sinceVersion, plus the server's current max version.
func (c *Client) GetUpdates(ctx context.Context, sinceVersion int64) ([]*model.SignedFile, int64, error) {
	var result getUpdatesResult
	if err := c.call(ctx, "GetUpdates", getUpdatesPayload{SinceMetadataVersion: sinceVersion}, &result); err != nil {
		return nil, 0, err
	}
	return result.FileMetadata, result.AsOfVersion, nil
}

// GetDocument downloads the ciphertext stored at (id, hmac).
func (c *Client) GetDocument(ctx context.Context, id uuid.UUID, hmac [32]byte) ([]byte, error) {
	var result getDocumentResult
	if err := c.call(ctx, "GetDocument", getDocumentPayload{ID: id, HMAC: hmac[:]}, &result); err != nil {
		return nil, err
	}
	return result.Ciphertext, nil
}

// ChangeDoc uploads new ciphertext for id, addressed by newHMAC.
func (c *Client) ChangeDoc(ctx context.Context, id uuid.UUID, newHMAC [32]byte, ciphertext []byte) error {
	return c.call(ctx, "ChangeDoc", changeDocPayload{ID: id, NewHMAC: newHMAC[:], Ciphertext: ciphertext}, nil)
}

// UpsertMetadata submits a batch of signed metadata changes. Returns an
// error wrapping ErrStaleBase if the server's base has since diverged
// (spec §4.6 Pushing).
func (c *Client) UpsertMetadata(ctx context.Context, files []*model.SignedFile) error {
	return c.call(ctx, "UpsertMetadata", upsertMetadataPayload{Files: files}, nil)
}

// GetFileIds returns every file id the account can see, for audit
// tooling (spec §6.1).
func (c *Client) GetFileIds(ctx context.Context) ([]uuid.UUID, error) {
	var result getFileIdsResult
	if err := c.call(ctx, "GetFileIds", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.IDs, nil
}
