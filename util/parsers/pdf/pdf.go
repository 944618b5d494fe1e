// Package pdf extracts a page count and a first-page raster from PDF
// uploads. Rasterization capability is an optional system dependency, so the
// raster side degrades through a strategy chain instead of failing.
package pdf

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pkg/errors"
)

// PageCount reads the page count from the document structure. Callers treat
// a failure as "page count unknown", never as a fatal upload error.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to read page count of %s", path)
	}
	return n, nil
}
