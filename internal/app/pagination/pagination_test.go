package pagination

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParams_Normalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   Params
		want Params
	}{
		{Params{}, Params{Page: 1, Limit: 20}},
		{Params{Page: -3, Limit: 5}, Params{Page: 1, Limit: 5}},
		{Params{Page: 2, Limit: 1000}, Params{Page: 2, Limit: 100}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("Normalize(%+v)=%+v, want %+v", tc.in, got, tc.want)
		}
	}
	if got := (Params{Page: 3, Limit: 10}).Offset(); got != 20 {
		t.Fatalf("Offset=%d", got)
	}
}

func TestNewInfo(t *testing.T) {
	t.Parallel()

	got := NewInfo(Params{Page: 2, Limit: 10}, 25)
	want := Info{Page: 2, Limit: 10, Total: 25, TotalPages: 3, HasNext: true, HasPrev: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("NewInfo mismatch (-want +got):\n%s", diff)
	}

	empty := New[int](nil, Params{}, 0)
	if empty.Data == nil || empty.Pagination.TotalPages != 0 || empty.Pagination.HasNext {
		t.Fatalf("empty page=%+v", empty)
	}
}
