package devices

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hearthmind/hearthmind/internal/schema"
)

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	snap := filepath.Join(t.TempDir(), "porch.jpg")
	if err := os.WriteFile(snap, []byte("jpegbytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewDirectory([]DeviceConfig{
		{Name: "Porch Cam", Zone: "porch", Class: "camera", SnapshotPath: snap},
		{ID: "light-1", Name: "Kitchen Light", Zone: "kitchen", Class: "light"},
		{ID: "light-2", Name: "Hall Light", Zone: "hall", Class: "light"},
	})
}

func TestListDevicesFiltered(t *testing.T) {
	dir := testDirectory(t)
	lights, err := dir.ListDevices(context.Background(), func(d schema.DeviceHandle) bool {
		return d.Class() == "light"
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(lights) != 2 {
		t.Fatalf("expected 2 lights, got %d", len(lights))
	}

	all, err := dir.ListDevices(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("nil predicate should match everything, got %d", len(all))
	}
}

func TestDefaultIDFallsBackToName(t *testing.T) {
	dir := testDirectory(t)
	if dir.Get("Porch Cam") == nil {
		t.Fatal("camera not found by name")
	}
	if dir.Get("light-1") == nil {
		t.Fatal("light not found by id")
	}
}

func TestSetCapabilityRoundTrip(t *testing.T) {
	dir := testDirectory(t)
	d := dir.Get("light-1")
	if err := d.SetCapability(context.Background(), "onoff", true); err != nil {
		t.Fatal(err)
	}
	v, ok := d.Capability("onoff")
	if !ok || v != true {
		t.Fatalf("capability = %v, %v", v, ok)
	}
}

func TestCaptureImage(t *testing.T) {
	dir := testDirectory(t)
	mimeType, data, err := dir.Get("Porch Cam").CaptureImage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mime = %q", mimeType)
	}
	if string(data) != "jpegbytes" {
		t.Errorf("data = %q", data)
	}
}

func TestCaptureImageNonCamera(t *testing.T) {
	dir := testDirectory(t)
	if _, _, err := dir.Get("light-1").CaptureImage(context.Background()); err == nil {
		t.Fatal("expected error capturing from a light")
	}
}
