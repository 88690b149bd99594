package schema

import "testing"

func TestNormalizeBoundingBoxLayouts(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		want BoundingBox
	}{
		{
			name: "x y w h",
			raw:  map[string]any{"x": 0.1, "y": 0.2, "w": 0.3, "h": 0.4},
			want: BoundingBox{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4},
		},
		{
			name: "x y width height",
			raw:  map[string]any{"x": 0.1, "y": 0.2, "width": 0.3, "height": 0.4},
			want: BoundingBox{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4},
		},
		{
			name: "left top right bottom",
			raw:  map[string]any{"left": 0.1, "top": 0.2, "right": 0.5, "bottom": 0.7},
			want: BoundingBox{X: 0.1, Y: 0.2, Width: 0.4, Height: 0.5},
		},
		{
			name: "xmin ymin xmax ymax",
			raw:  map[string]any{"xmin": 0.0, "ymin": 0.5, "xmax": 0.25, "ymax": 1.0},
			want: BoundingBox{X: 0.0, Y: 0.5, Width: 0.25, Height: 0.5},
		},
		{
			name: "box array",
			raw:  map[string]any{"box": []any{0.1, 0.2, 0.3, 0.4}},
			want: BoundingBox{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4},
		},
		{
			name: "label and confidence carried",
			raw:  map[string]any{"x": 0.1, "y": 0.2, "w": 0.3, "h": 0.4, "label": "person", "confidence": 0.92},
			want: BoundingBox{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4, Label: "person", Confidence: 0.92},
		},
		{
			name: "integer coordinates accepted",
			raw:  map[string]any{"x": 0, "y": 0, "w": 1, "h": 1},
			want: BoundingBox{X: 0, Y: 0, Width: 1, Height: 1},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeBoundingBox(tc.raw)
			if !ok {
				t.Fatalf("NormalizeBoundingBox(%v) rejected", tc.raw)
			}
			const eps = 1e-9
			close := func(a, b float64) bool { d := a - b; return d < eps && d > -eps }
			if !close(got.X, tc.want.X) || !close(got.Y, tc.want.Y) ||
				!close(got.Width, tc.want.Width) || !close(got.Height, tc.want.Height) {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
			if got.Label != tc.want.Label || !close(got.Confidence, tc.want.Confidence) {
				t.Errorf("label/confidence: got %q/%v, want %q/%v",
					got.Label, got.Confidence, tc.want.Label, tc.want.Confidence)
			}
		})
	}
}

func TestNormalizeBoundingBoxRejects(t *testing.T) {
	cases := []map[string]any{
		{},
		{"x": 0.1, "y": 0.2},                           // incomplete
		{"x": "a", "y": 0.2, "w": 0.3, "h": 0.4},       // non-numeric
		{"box": []any{0.1, 0.2, 0.3}},                  // wrong arity
		{"box": []any{0.1, 0.2, "oops", 0.4}},          // non-numeric element
		{"label": "person", "confidence": 0.9},         // metadata only
	}
	for _, raw := range cases {
		if _, ok := NormalizeBoundingBox(raw); ok {
			t.Errorf("NormalizeBoundingBox(%v) accepted, want reject", raw)
		}
	}
}
