package server

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fimd/fimd/internal/imageio"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".raw": true, ".gray": true,
}

func formatFromString(s string) imageio.Format {
	switch imageio.Format(s) {
	case imageio.FormatRaw, imageio.FormatPNG, imageio.FormatJPEG, imageio.FormatBMP:
		return imageio.Format(s)
	default:
		return imageio.FormatAuto
	}
}

// listImages returns the sorted paths of every file directly under dir
// whose extension looks like an image this program knows how to load.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
