package pdf

import (
	"context"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	fitz "github.com/gen2brain/go-fitz"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const rasterDPI = 150

// A Strategy attempts to produce a first-page JPEG at dst. Returning an
// error hands over to the next tier.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, src, dst string) error
}

// DefaultStrategies is the production fallback chain: the external poppler
// raster tool, then in-process rasterization, then a synthesized placeholder
// so the UI never shows a broken image.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "pdftoppm", Run: rasterWithPdftoppm},
		{Name: "native", Run: rasterNative},
		{Name: "placeholder", Run: writePlaceholder},
	}
}

// FirstPage runs the chain in order and reports which tier produced dst.
func FirstPage(ctx context.Context, src, dst string) (string, error) {
	return firstSuccess(ctx, DefaultStrategies(), src, dst)
}

func firstSuccess(ctx context.Context, strategies []Strategy, src, dst string) (string, error) {
	var lastErr error
	for _, s := range strategies {
		if err := s.Run(ctx, src, dst); err != nil {
			lastErr = errors.Wrapf(err, "raster strategy %s", s.Name)
			continue
		}
		return s.Name, nil
	}
	return "", lastErr
}

func rasterWithPdftoppm(ctx context.Context, src, dst string) error {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return errors.Wrap(err, "pdftoppm not installed")
	}
	// pdftoppm appends .jpg to the output base name itself.
	base := strings.TrimSuffix(dst, filepath.Ext(dst))
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-f", "1", "-l", "1", "-singlefile", "-jpeg", src, base)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "pdftoppm failed: %s", strings.TrimSpace(string(out)))
	}
	if _, err := os.Stat(dst); err != nil {
		return errors.Wrap(err, "pdftoppm produced no output")
	}
	return nil
}

func rasterNative(_ context.Context, src, dst string) error {
	doc, err := fitz.New(src)
	if err != nil {
		return errors.Wrap(err, "unable to open document")
	}
	defer doc.Close()

	img, err := doc.ImageDPI(0, rasterDPI)
	if err != nil {
		return errors.Wrap(err, "unable to rasterize page 1")
	}
	return imaging.Save(img, dst, imaging.JPEGQuality(85))
}

// writePlaceholder synthesizes a gradient cover with a "PDF" label. It is
// the terminal tier and only fails when the disk does.
func writePlaceholder(_ context.Context, _, dst string) error {
	const w, h = 512, 680

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	top := color.RGBA{R: 52, G: 73, B: 120, A: 255}
	bottom := color.RGBA{R: 24, G: 28, B: 44, A: 255}
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h-1)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	label := "PDF"
	face := basicfont.Face7x13
	labelWidth := font.MeasureString(face, label).Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.P(
			(w-labelWidth)/2,
			h/2+face.Metrics().Ascent.Ceil()/2,
		),
	}
	d.DrawString(label)

	return imaging.Save(img, dst, imaging.JPEGQuality(85))
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
