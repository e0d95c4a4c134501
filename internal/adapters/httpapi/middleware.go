package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
	clockport "github.com/wecare-ems/wecare-api/internal/ports/out/clock"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, PATCH, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, Idempotency-Key, X-Request-ID, X-CSRF-Token"
	corsMaxAge       = "86400"
)

// echoRequestID copies chi's request id into the X-Request-ID response header.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			w.Header().Set(middleware.RequestIDHeader, rid)
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog logs one line per request.
func accessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", status),
				logger.Duration("duration", time.Since(start)),
				logger.String("requestId", middleware.GetReqID(r.Context())),
			}
			if status >= http.StatusInternalServerError {
				log.Error("http request", fields...)
				return
			}
			log.Info("http request", fields...)
		})
	}
}

// cors echoes allow-listed origins only. Preflights from other origins get 403.
func cors(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !set[origin] {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if preflight {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			h.Set("Access-Control-Expose-Headers", "X-Request-ID, Idempotency-Replayed, Content-Disposition, Retry-After")
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter is a fixed-window counter per client IP and route.
type rateLimiter struct {
	limit  int
	window time.Duration
	clk    clockport.Clock

	mu      sync.Mutex
	windows map[string]*fixedWindow
}

type fixedWindow struct {
	start time.Time
	count int
}

func newRateLimiter(limit int, window time.Duration, clk clockport.Clock) *rateLimiter {
	return &rateLimiter{limit: limit, window: window, clk: clk, windows: map[string]*fixedWindow{}}
}

// allow counts one hit for key and reports how long to wait when the limit is exceeded.
func (l *rateLimiter) allow(key string) (bool, time.Duration) {
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.windows) > 4096 {
		for k, fw := range l.windows {
			if now.Sub(fw.start) >= l.window {
				delete(l.windows, k)
			}
		}
	}
	fw, ok := l.windows[key]
	if !ok || now.Sub(fw.start) >= l.window {
		l.windows[key] = &fixedWindow{start: now, count: 1}
		return true, 0
	}
	if fw.count >= l.limit {
		return false, fw.start.Add(l.window).Sub(now)
	}
	fw.count++
	return true, 0
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.allow(clientIP(r) + " " + r.URL.Path)
		if !ok {
			secs := int((wait + time.Second - 1) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, r, http.StatusTooManyRequests, apperr.CodeRateLimited, "Too many requests, please try again later", map[string]any{
				"retryAfter": secs,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the remote address after chi's RealIP rewrite, without the port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.Trim(r.RemoteAddr, "[]")
}
