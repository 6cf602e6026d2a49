package trafficsim

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// newOSMScanner guesses file extension and prepares correct scanner
func newOSMScanner(ctx context.Context, reader io.Reader, filename string) (OSMScanner, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(ctx, reader), nil
	case ".pbf":
		return osmpbf.New(ctx, reader, 4), nil
	default:
		if strings.HasSuffix(filename, ".osm.pbf") {
			return osmpbf.New(ctx, reader, 4), nil
		}
		return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}
