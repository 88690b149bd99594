package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/store"
)

// CameraProvider exposes camera-class devices from the injected Directory.
type CameraProvider struct {
	dir   schema.Directory
	blobs *store.Store
}

func NewCameraProvider(dir schema.Directory, blobs *store.Store) *CameraProvider {
	return &CameraProvider{dir: dir, blobs: blobs}
}

func (p *CameraProvider) ListTools(ctx context.Context) ([]schema.ToolDescriptor, error) {
	cams, err := p.cameras(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cams))
	for _, c := range cams {
		names = append(names, c.Name())
	}

	return []schema.ToolDescriptor{
		{
			Name:        "camera_snapshot",
			Description: "Capture a still image from a named camera. Available cameras: " + strings.Join(names, ", "),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"camera": map[string]any{
						"type":        "string",
						"description": "Camera name or id",
					},
				},
				"required":             []any{"camera"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "camera_report",
			Description: "Summarise object detections for a snapshot. Accepts detection boxes in any common layout.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"detections": map[string]any{
						"type":        "array",
						"description": "Detection boxes with label and confidence",
						"items":       map[string]any{"type": "object"},
					},
				},
				"required":             []any{"detections"},
				"additionalProperties": false,
			},
		},
	}, nil
}

func (p *CameraProvider) CallTool(ctx context.Context, callID, name string, args map[string]any) (*schema.ToolResult, error) {
	switch name {
	case "camera_snapshot":
		return p.snapshot(ctx, callID, args)
	case "camera_report":
		return p.report(args)
	}
	return nil, fmt.Errorf("camera provider has no tool %q", name)
}

func (p *CameraProvider) snapshot(ctx context.Context, callID string, args map[string]any) (*schema.ToolResult, error) {
	want, _ := args["camera"].(string)
	if want == "" {
		return schema.NewErrorResult("Error: camera is required"), nil
	}

	cams, err := p.cameras(ctx)
	if err != nil {
		return nil, err
	}
	var cam schema.DeviceHandle
	for _, c := range cams {
		if strings.EqualFold(c.Name(), want) || c.ID() == want {
			cam = c
			break
		}
	}
	if cam == nil {
		return schema.NewErrorResult(fmt.Sprintf("Error: no camera named %q", want)), nil
	}

	mime, data, err := cam.CaptureImage(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", cam.Name(), err)
	}
	b64 := base64.StdEncoding.EncodeToString(data)

	// Transient copy so follow-up tools can fetch the raw frame by call id.
	if p.blobs != nil {
		_ = p.blobs.Put("snapshot:"+callID, "data:"+mime+";base64,"+b64)
	}

	return schema.NewToolResult(
		schema.NewTextPart(fmt.Sprintf("Snapshot from %s (%s).", cam.Name(), cam.Zone())),
		schema.NewImagePart(mime, b64),
	), nil
}

// report normalizes detection boxes once, at this boundary, and renders a
// text summary.
func (p *CameraProvider) report(args map[string]any) (*schema.ToolResult, error) {
	raw, _ := args["detections"].([]any)
	if len(raw) == 0 {
		return schema.NewToolResult(schema.NewTextPart("No detections.")), nil
	}

	var lines []string
	skipped := 0
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		bb, ok := schema.NormalizeBoundingBox(m)
		if !ok {
			skipped++
			continue
		}
		label := bb.Label
		if label == "" {
			label = "object"
		}
		lines = append(lines, fmt.Sprintf("- %s at (%.2f, %.2f) size %.2f×%.2f confidence %.2f",
			label, bb.X, bb.Y, bb.Width, bb.Height, bb.Confidence))
	}
	if skipped > 0 {
		lines = append(lines, fmt.Sprintf("(%d detections in an unrecognised format were skipped)", skipped))
	}
	return schema.NewToolResult(schema.NewTextPart(strings.Join(lines, "\n"))), nil
}

func (p *CameraProvider) cameras(ctx context.Context) ([]schema.DeviceHandle, error) {
	return p.dir.ListDevices(ctx, func(d schema.DeviceHandle) bool {
		return d.Class() == "camera"
	})
}
