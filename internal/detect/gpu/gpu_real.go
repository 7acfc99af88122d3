//go:build gpu

package gpu

// Open is the real GPU backend entry point. No compute-pipeline binding
// is wired in (see DESIGN.md) — building with -tags gpu still returns
// ErrNotBuilt until one is.
func Open() (Backend, error) {
	return nil, ErrNotBuilt
}
