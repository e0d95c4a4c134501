package sqldb

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRebind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"sqlite untouched", SQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", Postgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"quoted literal kept", Postgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{"no placeholders", Postgres, "SELECT 1", "SELECT 1"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Rebind(tc.dialect, tc.in); got != tc.want {
				t.Fatalf("Rebind() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	if got := Placeholders(3); got != "?, ?, ?" {
		t.Fatalf("Placeholders(3) = %q", got)
	}
	if got := Placeholders(0); got != "" {
		t.Fatalf("Placeholders(0) = %q", got)
	}
}

func TestTimeRoundTripAndOrdering(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("ICT", 7*3600)
	a := time.Date(2025, 1, 2, 9, 0, 0, 0, loc)
	b := a.Add(1500 * time.Millisecond)

	sa, sb := FormatTime(a), FormatTime(b)
	if len(sa) != len(sb) || !(sa < sb) {
		t.Fatalf("expected fixed-width ordered encodings, got %q and %q", sa, sb)
	}
	got, err := ParseTime(sa)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if !got.Equal(a) || got.Location() != time.UTC {
		t.Fatalf("round trip mismatch: got %v want %v", got, a)
	}
}

func TestListCodec(t *testing.T) {
	t.Parallel()

	type tag string
	in := []tag{"wheelchair", "oxygen"}
	enc := EncodeList(in)
	out, err := DecodeList[tag](enc)
	if err != nil {
		t.Fatalf("DecodeList: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if EncodeList[tag](nil) != "[]" {
		t.Fatalf("nil list should encode as []")
	}
	empty, err := DecodeList[tag]("[]")
	if err != nil || empty != nil {
		t.Fatalf("empty list: %#v err=%v", empty, err)
	}
}

func TestIsUniqueViolation_Nil(t *testing.T) {
	t.Parallel()

	if IsUniqueViolation(nil) {
		t.Fatalf("nil error is not a violation")
	}
}
