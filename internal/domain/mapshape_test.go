package domain

import "testing"

func TestMapShapeType_PointsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  MapShapeType
		n    int
		want bool
	}{
		{MapShapeMarker, 1, true},
		{MapShapeMarker, 2, false},
		{MapShapeMarker, 0, false},
		{MapShapePolyline, 1, false},
		{MapShapePolyline, 2, true},
		{MapShapePolygon, 2, false},
		{MapShapePolygon, 5, true},
		{MapShapeType("circle"), 1, false},
	}
	for _, tt := range tests {
		if got := tt.typ.PointsValid(tt.n); got != tt.want {
			t.Fatalf("%s.PointsValid(%d)=%v, want %v", tt.typ, tt.n, got, tt.want)
		}
	}

	if _, ok := ParseMapShapeType("polygon"); !ok {
		t.Fatalf("polygon should parse")
	}
	if _, ok := ParseMapShapeType("Polygon"); ok {
		t.Fatalf("shape types are case sensitive")
	}
}
