// Package gpu is the shape of a data-parallel mirror of the CPU scan
// engine: one that classifies every candidate center in parallel instead
// of raster-sequentially. Buffer objects, shader/kernel compilation, and
// the centroid-merging post-filter that compensates for the lost
// single-pass destructive-NMS property are all out of scope here — this
// package only defines the interface so the CLI and server can refer to
// such a backend uniformly.
//
// The "gpu" build tag selects gpu_real.go instead of gpu_stub.go, but
// neither file wires in a compute binding: with or without the tag, Open
// returns ErrNotBuilt.
package gpu

import "errors"

// ErrNotBuilt indicates the binary was built without GPU support.
var ErrNotBuilt = errors.New("fimd: GPU backend requires building with '-tags gpu'")

// DeviceType describes the class of a compute device a GPU backend runs on.
type DeviceType string

const (
	DeviceTypeGPU         DeviceType = "GPU"
	DeviceTypeCPU         DeviceType = "CPU"
	DeviceTypeAccelerator DeviceType = "Accelerator"
	DeviceTypeUnknown     DeviceType = "Unknown"
)

// DeviceInfo captures metadata about a compute device.
type DeviceInfo struct {
	Name            string
	Vendor          string
	Type            DeviceType
	MaxComputeUnits uint32
}

// MergeConfig configures the centroid-merging post-filter that the GPU
// path needs because parallel per-pixel classification loses the CPU
// engine's single-pass destructive-NMS property: raw detections within
// MergeRadius pixels of each other are grouped and averaged into one.
// The radius is a field here, not a constant, since the right value
// depends on sensor geometry and shouldn't be hard-coded.
type MergeConfig struct {
	MergeRadius int
}

// DefaultMergeConfig is a starting default of 5 pixels — callers are
// expected to tune MergeRadius for their sensor geometry.
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{MergeRadius: 5}
}

// Backend is the data-parallel collaborator's entry point. It exposes
// device enumeration and Close only; it has no detection method.
type Backend interface {
	EnumerateDevices() ([]DeviceInfo, error)
	Close()
}
