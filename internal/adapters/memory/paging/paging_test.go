package paging

import "testing"

func TestPage(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5}
	cases := []struct {
		limit, offset int
		want          []int
	}{
		{0, 0, []int{1, 2, 3, 4, 5}},
		{2, 0, []int{1, 2}},
		{2, 4, []int{5}},
		{2, 5, []int{}},
		{10, 1, []int{2, 3, 4, 5}},
		{3, -1, []int{1, 2, 3}},
	}
	for _, tc := range cases {
		got := Page(items, tc.limit, tc.offset)
		if len(got) != len(tc.want) {
			t.Fatalf("Page(limit=%d,offset=%d)=%v, want %v", tc.limit, tc.offset, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("Page(limit=%d,offset=%d)=%v, want %v", tc.limit, tc.offset, got, tc.want)
			}
		}
	}
}
