package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/oapi-codegen/nullable"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/wecare-ems/wecare-api/internal/app/apperr"
	"github.com/wecare-ems/wecare-api/internal/app/patch"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON object into dst. Keys may be snake_case or camelCase; they are
// rewritten to snake_case, which is what request structs are tagged with.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apperr.BadRequest("could not read request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return apperr.BadRequest("request body must be valid JSON")
	}
	if _, ok := generic.(map[string]any); !ok {
		return apperr.BadRequest("request body must be a JSON object")
	}
	normalized, err := json.Marshal(snakeKeys(generic))
	if err != nil {
		return fmt.Errorf("normalize body: %w", err)
	}
	if err := json.Unmarshal(normalized, dst); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && te.Field != "" {
			return apperr.Validation("invalid request body", map[string]any{te.Field: "has the wrong type"})
		}
		return apperr.BadRequest("invalid request body")
	}
	return nil
}

func snakeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[toSnake(k)] = snakeKeys(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = snakeKeys(t[i])
		}
		return t
	default:
		return v
	}
}

// toSnake converts camelCase to snake_case. "driverId" and "driverID" both become "driver_id".
func toSnake(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 && rs[i-1] != '_' {
				prevLower := unicode.IsLower(rs[i-1]) || unicode.IsDigit(rs[i-1])
				nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
				if prevLower || (unicode.IsUpper(rs[i-1]) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// optional converts a decoded nullable field into the tri-state used by services.
func optional[T any](n nullable.Nullable[T]) patch.Optional[T] {
	if !n.IsSpecified() {
		return patch.Unspecified[T]()
	}
	if n.IsNull() {
		return patch.Null[T]()
	}
	v, err := n.Get()
	if err != nil {
		return patch.Unspecified[T]()
	}
	return patch.Some(v)
}

func optionalDate(n nullable.Nullable[openapi_types.Date]) patch.Optional[time.Time] {
	o := optional(n)
	if o.HasValue() {
		return patch.Some(o.Value().Time)
	}
	if o.IsNull() {
		return patch.Null[time.Time]()
	}
	return patch.Unspecified[time.Time]()
}

func datePtr(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// bindQuery binds one optional form-style query parameter into dst.
func bindQuery(r *http.Request, name string, dst any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dst); err != nil {
		return apperr.BadRequest(fmt.Sprintf("invalid query parameter %q", name))
	}
	return nil
}

// bindQueries binds several parameters, stopping at the first failure.
func bindQueries(r *http.Request, params map[string]any) error {
	for name, dst := range params {
		if err := bindQuery(r, name, dst); err != nil {
			return err
		}
	}
	return nil
}
