package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
	"github.com/wecare-ems/wecare-api/internal/ports/out/idempotency"
)

const idempotencyHeader = "Idempotency-Key"

var idempotencyKeyRe = regexp.MustCompile(`^[A-Za-z0-9_\-]{6,128}$`)

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// idempotencySubject scopes keys to the caller, or to the client IP for anonymous requests.
func idempotencySubject(r *http.Request) domain.SubjectID {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p.Subject()
	}
	return domain.SubjectID("ip:" + clientIP(r))
}

// newIdempotencyMiddleware replays the stored 2xx response when a write is retried with the same key
// and body. Reusing a key with a different body is a 409.
//
// Two records are kept per key: a metadata record (empty BodyHash) pinning the first body hash,
// and the response record keyed by that hash.
func newIdempotencyMiddleware(store idempotency.Store, clk clockport.Clock, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if key == "" || !isWrite(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if !idempotencyKeyRe.MatchString(key) {
				writeError(w, r, http.StatusBadRequest, apperr.CodeIdempotencyKeyInvalid,
					"Idempotency-Key must be 6-128 characters of letters, digits, '-' or '_'", nil)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				writeError(w, r, http.StatusBadRequest, apperr.CodeBadRequest, "could not read request body", nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)
			bodyHash := hex.EncodeToString(sum[:])

			ctx := r.Context()
			metaFP := idempotency.Fingerprint{
				Key:     idempotency.Key(key),
				Subject: idempotencySubject(r),
				Method:  r.Method,
				Route:   r.URL.Path,
			}
			meta, ok, err := store.Get(ctx, metaFP)
			if err != nil {
				writeAppError(w, r, log, err)
				return
			}
			if ok {
				if string(meta.Body) != bodyHash {
					writeError(w, r, http.StatusConflict, apperr.CodeIdempotencyKeyReuse, "idempotency key reuse with different payload", nil)
					return
				}
			} else if err := store.Put(ctx, metaFP, idempotency.Record{
				ContentType: "text/plain",
				Body:        []byte(bodyHash),
				CreatedAt:   clk.Now().UTC(),
			}); err != nil {
				writeAppError(w, r, log, err)
				return
			}

			respFP := metaFP
			respFP.BodyHash = bodyHash
			if rec, ok, err := store.Get(ctx, respFP); err != nil {
				writeAppError(w, r, log, err)
				return
			} else if ok && rec.StatusCode >= 200 && rec.StatusCode < 300 {
				if rec.ContentType != "" {
					w.Header().Set("Content-Type", rec.ContentType)
				}
				w.Header().Set("Idempotency-Replayed", "true")
				w.WriteHeader(rec.StatusCode)
				_, _ = w.Write(rec.Body)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			var buf bytes.Buffer
			ww.Tee(&buf)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status < 200 || status >= 300 {
				return
			}
			if err := store.Put(ctx, respFP, idempotency.Record{
				StatusCode:  status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        buf.Bytes(),
				CreatedAt:   clk.Now().UTC(),
			}); err != nil {
				log.Error("store idempotent response", logger.String("key", key), logger.Error(err))
			}
		})
	}
}
