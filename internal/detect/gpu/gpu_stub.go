//go:build !gpu

package gpu

// Open returns an error when the binary was built without GPU support.
func Open() (Backend, error) {
	return nil, ErrNotBuilt
}
