// Package idempotency implements the Redis-backed reservation protocol that
// gives mutating endpoints at-most-once semantics per (caller, key) pair.
//
// Protocol:
//  1. Begin issues a single atomic SET NX PX of a "processing" placeholder.
//     Exactly one concurrent caller wins; the SET NX is the sole
//     serialization point.
//  2. The winner runs the handler. On a 2xx outcome the record is overwritten
//     with the response body ("succeeded", TTL refreshed) so duplicates can be
//     answered without re-executing side effects. On a 5xx outcome the record
//     is deleted so the client can retry cleanly with the same key.
//  3. Losers look the record up: "succeeded" replays the stored response,
//     anything else is reported as an in-flight conflict.
//
// Records expire after the configured TTL, which bounds both the replay
// window and how long a crashed first attempt can block a legitimate retry.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Reservation record states.
const (
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
)

// GuestIdentity is the identity bucket for unauthenticated callers.
//
// All anonymous callers share this bucket, so two different anonymous clients
// submitting the same client-chosen key will collide. Guest writes are rare
// and low-stakes in this system; revisit if anonymous mutations grow.
const GuestIdentity = "guest"

// keyPrefix namespaces reservation keys in the shared Redis instance. Any
// collaborating service sharing the store must respect this namespace.
const keyPrefix = "idem:"

// ErrNotFound is returned by Lookup when no reservation exists for the key
// (never created, released after a failure, or expired).
var ErrNotFound = errors.New("idempotency record not found")

// Record is the value stored against a reservation key.
//
// While processing, only Status, Method, Path and StartedAt are set. Once
// succeeded, StatusCode, ContentType and Response carry the original outcome
// and the record is immutable until TTL expiry. Response holds the exact
// bytes the first attempt sent (base64 inside the record's JSON envelope), so
// replays are byte-identical even for empty or non-JSON bodies.
type Record struct {
	Status      string `json:"status"`
	Method      string `json:"method,omitempty"`
	Path        string `json:"path,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Response    []byte `json:"response,omitempty"`
	StartedAt   int64  `json:"started_at,omitempty"`  // unix millis
	FinishedAt  int64  `json:"finished_at,omitempty"` // unix millis
}

// Succeeded reports whether the record carries a replayable outcome. An empty
// Response is valid; 204-style successes replay with an empty body.
func (r *Record) Succeeded() bool {
	return r != nil && r.Status == StatusSucceeded && r.StatusCode != 0
}

// Key builds the reservation key for a caller identity and client token.
// Format: idem:{identity}:{token}.
func Key(identity, token string) string {
	if identity == "" {
		identity = GuestIdentity
	}
	return keyPrefix + identity + ":" + token
}

// Store coordinates reservations through a shared Redis instance. It holds no
// per-instance state; all cross-request and cross-instance serialization
// happens in Redis itself.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewStore constructs a Store with the given record TTL.
func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// TTL returns the configured reservation lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Begin atomically reserves key with a "processing" placeholder. It returns
// true when this caller won the reservation (key was absent) and false when a
// reservation already exists. The set-if-absent and the TTL attach in one
// Redis command; there is deliberately no exists-then-set sequence here.
func (s *Store) Begin(ctx context.Context, key, method, path string) (bool, error) {
	rec := Record{
		Status:    StatusProcessing,
		Method:    method,
		Path:      path,
		StartedAt: time.Now().UnixMilli(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("idempotency encode: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, key, raw, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return ok, nil
}

// Lookup fetches the record at key. Returns ErrNotFound when the key is
// absent (treated by callers as a transient conflict or a fresh start,
// depending on context).
func (s *Store) Lookup(ctx context.Context, key string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("idempotency decode: %w", err)
	}
	return &rec, nil
}

// Complete overwrites the reservation with the successful response so later
// duplicates replay it. The body bytes are stored untouched; replay fidelity
// requires serving exactly what the first attempt sent. The TTL is refreshed,
// restarting the replay window from the moment of completion.
func (s *Store) Complete(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	rec := Record{
		Status:      StatusSucceeded,
		StatusCode:  statusCode,
		ContentType: contentType,
		Response:    body,
		FinishedAt:  time.Now().UnixMilli(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release deletes the reservation so a retry with the same key is treated as
// a fresh request. Used after 5xx handler outcomes (and optionally 4xx, per
// policy).
func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}
