// Package devices provides the Directory implementation backed by config:
// a fixed inventory of devices declared in the config file. Real platform
// registries can replace it behind the same interface.
package devices

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/hearthmind/hearthmind/internal/schema"
)

// DeviceConfig declares one device in the static inventory.
type DeviceConfig struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Zone  string `yaml:"zone"`
	Class string `yaml:"class"` // "camera", "light", "sensor", ...
	// SnapshotPath is the image file a camera device serves; read on each
	// capture so an external process may refresh it.
	SnapshotPath string `yaml:"snapshotPath,omitempty"`
}

// Device is one static device. Capability writes are held in memory.
type Device struct {
	cfg DeviceConfig

	mu   sync.Mutex
	caps map[string]any
}

func newDevice(cfg DeviceConfig) *Device {
	return &Device{cfg: cfg, caps: make(map[string]any)}
}

func (d *Device) ID() string    { return d.cfg.ID }
func (d *Device) Name() string  { return d.cfg.Name }
func (d *Device) Zone() string  { return d.cfg.Zone }
func (d *Device) Class() string { return d.cfg.Class }

func (d *Device) SetCapability(_ context.Context, capability string, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.caps[capability] = value
	return nil
}

// Capability reads back a stored capability value.
func (d *Device) Capability(capability string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.caps[capability]
	return v, ok
}

func (d *Device) CaptureImage(_ context.Context) (string, []byte, error) {
	if d.cfg.Class != "camera" {
		return "", nil, fmt.Errorf("device %s is not a camera", d.cfg.Name)
	}
	if d.cfg.SnapshotPath == "" {
		return "", nil, fmt.Errorf("camera %s has no snapshot source", d.cfg.Name)
	}
	data, err := os.ReadFile(d.cfg.SnapshotPath)
	if err != nil {
		return "", nil, fmt.Errorf("read snapshot: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(d.cfg.SnapshotPath))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return mimeType, data, nil
}

// Directory is the static device inventory.
type Directory struct {
	devices []*Device
}

func NewDirectory(cfgs []DeviceConfig) *Directory {
	dir := &Directory{}
	for _, cfg := range cfgs {
		if cfg.ID == "" {
			cfg.ID = cfg.Name
		}
		dir.devices = append(dir.devices, newDevice(cfg))
	}
	return dir
}

func (dir *Directory) ListDevices(_ context.Context, match func(schema.DeviceHandle) bool) ([]schema.DeviceHandle, error) {
	var out []schema.DeviceHandle
	for _, d := range dir.devices {
		if match == nil || match(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Get returns a device by id or name, or nil.
func (dir *Directory) Get(idOrName string) *Device {
	for _, d := range dir.devices {
		if d.cfg.ID == idOrName || d.cfg.Name == idOrName {
			return d
		}
	}
	return nil
}

var _ schema.Directory = (*Directory)(nil)
