package schema

import "context"

// DeviceHandle is one device exposed by the host platform's registry.
// Actuation and capture are methods on the handle so tool providers never
// reach into platform internals.
type DeviceHandle interface {
	ID() string
	Name() string
	Zone() string
	// Class is the device class, e.g. "camera", "light", "sensor".
	Class() string
	// SetCapability writes a capability value (e.g. "onoff", "dim").
	SetCapability(ctx context.Context, capability string, value any) error
	// CaptureImage grabs a still frame. Only meaningful for camera-class
	// devices; others return an error.
	CaptureImage(ctx context.Context) (mimeType string, data []byte, err error)
}

// Directory is the injected read-only view over the host platform's device
// registry. Tool providers receive it at construction instead of consulting
// ambient singletons.
type Directory interface {
	// ListDevices returns devices matching the predicate; a nil predicate
	// matches everything.
	ListDevices(ctx context.Context, match func(DeviceHandle) bool) ([]DeviceHandle, error)
}

// BoundingBox is the single normalized detection-box form accepted at tool
// boundaries. Coordinates are fractions of the frame in [0,1].
type BoundingBox struct {
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Label      string
	Confidence float64
}

// NormalizeBoundingBox converts the field layouts seen in the wild into a
// BoundingBox. Accepted layouts: {x,y,w,h}, {x,y,width,height},
// {left,top,right,bottom}, {xmin,ymin,xmax,ymax} and {box:[x,y,w,h]}.
// Normalization happens once, here, never downstream.
func NormalizeBoundingBox(raw map[string]any) (BoundingBox, bool) {
	bb := BoundingBox{}
	if s, ok := raw["label"].(string); ok {
		bb.Label = s
	}
	if f, ok := toFloat(raw["confidence"]); ok {
		bb.Confidence = f
	}

	if arr, ok := raw["box"].([]any); ok && len(arr) == 4 {
		vals := make([]float64, 0, 4)
		for _, v := range arr {
			f, ok := toFloat(v)
			if !ok {
				return BoundingBox{}, false
			}
			vals = append(vals, f)
		}
		bb.X, bb.Y, bb.Width, bb.Height = vals[0], vals[1], vals[2], vals[3]
		return bb, true
	}

	type layout struct {
		a, b, c, d string
		spanIsSize bool
	}
	layouts := []layout{
		{"x", "y", "w", "h", true},
		{"x", "y", "width", "height", true},
		{"left", "top", "right", "bottom", false},
		{"xmin", "ymin", "xmax", "ymax", false},
	}
	for _, l := range layouts {
		a, okA := toFloat(raw[l.a])
		b, okB := toFloat(raw[l.b])
		c, okC := toFloat(raw[l.c])
		d, okD := toFloat(raw[l.d])
		if !(okA && okB && okC && okD) {
			continue
		}
		bb.X, bb.Y = a, b
		if l.spanIsSize {
			bb.Width, bb.Height = c, d
		} else {
			bb.Width, bb.Height = c-a, d-b
		}
		return bb, true
	}
	return BoundingBox{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
