// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the idempotency guard for unsafe HTTP methods (e.g.,
// POST). The guard validates the client-supplied idempotency token, reserves
// it atomically in the shared store, and based on the outcome either runs the
// handler (capturing its response), replays a previously stored response, or
// rejects a duplicate that is still in flight. Downstream components can:
//   - read the normalized token (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// Design goals:
//   - Keep transport concerns (validation, capture, context stashing) here.
//   - Delegate all cross-request serialization to the idempotency.Store; this
//     middleware holds no state of its own, so any number of processes can
//     share one Redis-backed store.
//   - Fail closed: if the store is unreachable the request is rejected rather
//     than risking double execution.
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-blog-backend/internal/idempotency"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency token for unsafe operations (e.g., POST).
//
// The value is expected to be stable for a given semantic operation so that
// retries (network, client, or server initiated) can be safely deduplicated.
const HeaderIdempotencyKey = "Idempotency-Key"

// bodyTokenField is the JSON body fallback for clients that cannot set
// custom headers. The header wins when both are present.
const bodyTokenField = "idempotencyKey"

// maxTokenBodyPeek bounds how much of the request body is buffered while
// looking for the fallback token field.
const maxTokenBodyPeek = 1 << 20 // 1 MiB

// Context keys used internally to stash idempotency state.
// These keys are intentionally unexported and referenced via accessor helpers.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay was served
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency token stored in the Gin
// context by Guard. The second return value indicates presence.
//
// Handlers should prefer this function over reading the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether Guard served this request from a stored response
// instead of executing the handler.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// GuardOptions configures token validation and release policy for Guard.
type GuardOptions struct {
	// MaxLen caps the accepted token length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative RFC7230-like
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
	// ReleaseOn4xx deletes the reservation after a 4xx handler outcome, letting
	// the client fix the request and retry under the same token. The default
	// keeps the reservation, treating validation failures as final for the
	// token's lifetime.
	ReleaseOn4xx bool
}

// Guard returns a Gin middleware enforcing at-most-once execution per
// (caller, token) pair for the routes it is mounted on.
//
// Behavior:
//   - No token (header or body field): responds 400; unsafe endpoints behind
//     this guard require one.
//   - Token fails validation: responds 400 with a compact error body.
//   - Reservation won: the handler runs with its response captured. A 2xx
//     outcome persists the response for replay; a 5xx outcome releases the
//     reservation so the same token can retry; 4xx follows ReleaseOn4xx.
//   - Reservation lost, stored response exists: replays the stored bytes with
//     200 and marks the request for rate-limit bypass.
//   - Reservation lost, first attempt still running: responds 409 so the
//     client can poll or back off.
//   - Store unreachable at any step: responds 500. Failing closed is
//     deliberate; proceeding would void the at-most-once guarantee.
func Guard(store *idempotency.Store, opts GuardOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		// RFC-7230-ish token + common safe chars.
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "missing_idempotency_key",
				"message":    "Idempotency-Key header (or idempotencyKey body field) is required",
			})
			return
		}
		if len(token) > maxLen || !pat.MatchString(token) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, token)

		key := idempotency.Key(callerIdentity(c), token)
		ctx := c.Request.Context()

		reserved, err := store.Begin(ctx, key, c.Request.Method, c.FullPath())
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("idempotency reserve failed")
			abortStoreUnavailable(c)
			return
		}

		if !reserved {
			rec, err := store.Lookup(ctx, key)
			switch {
			case err == nil && rec.Succeeded():
				// Replay the stored bytes verbatim under the original content
				// type. Replays are served 200 regardless of the original
				// status; the record keeps the original code for
				// observability.
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
				ct := rec.ContentType
				if ct == "" {
					ct = "application/json"
				}
				c.Data(http.StatusOK, ct, rec.Response)
				c.Abort()
			case err == nil || err == idempotency.ErrNotFound:
				// Still processing, or released/expired between Begin and
				// Lookup. Either way the first attempt owns the token right
				// now; report the conflict.
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"request_id": c.Writer.Header().Get("X-Request-ID"),
					"code":       "conflict",
					"message":    "request with this Idempotency-Key is in progress",
					"status":     idempotency.StatusProcessing,
				})
			default:
				log.Error().Err(err).Str("key", key).Msg("idempotency lookup failed")
				abortStoreUnavailable(c)
			}
			return
		}

		// Reservation won: execute with the response body captured.
		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Next()

		// The client may have disconnected while the handler ran; the
		// bookkeeping below must still reach the store, or an abandoned
		// "processing" record blocks retries until TTL.
		postCtx := context.WithoutCancel(ctx)

		status := cw.Status()
		switch {
		case status >= 200 && status < 300:
			ct := cw.Header().Get("Content-Type")
			if err := store.Complete(postCtx, key, status, ct, cw.body.Bytes()); err != nil {
				// The side effect already happened; the client got its
				// response. Worst case a duplicate surfaces as a 409 until
				// the TTL expires.
				log.Error().Err(err).Str("key", key).Msg("idempotency complete failed")
			}
		case status >= 500:
			if err := store.Release(postCtx, key); err != nil {
				log.Error().Err(err).Str("key", key).Msg("idempotency release failed")
			}
		default:
			if opts.ReleaseOn4xx {
				if err := store.Release(postCtx, key); err != nil {
					log.Error().Err(err).Str("key", key).Msg("idempotency release failed")
				}
			}
		}
	}
}

// extractToken reads the idempotency token from the header, falling back to
// the idempotencyKey field of a JSON body. The body is restored so handler
// binding still sees it.
func extractToken(c *gin.Context) string {
	if v := c.GetHeader(HeaderIdempotencyKey); v != "" {
		return v
	}
	if c.Request.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTokenBodyPeek))
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	var probe struct {
		Token string `json:"idempotencyKey"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return ""
	}
	return probe.Token
}

// callerIdentity buckets reservation keys per authenticated user; anonymous
// callers share the guest bucket.
func callerIdentity(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(uint64(id), 10)
	}
	return idempotency.GuestIdentity
}

func abortStoreUnavailable(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "idempotency_unavailable",
		"message":    "could not verify request uniqueness",
	})
}

// captureWriter tees the response body so Guard can persist a successful
// outcome for replay.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
