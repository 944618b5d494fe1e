package pdf

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

func TestFirstSuccessTakesFirstWorkingTier(t *testing.T) {
	var ran []string
	mk := func(name string, fail bool) Strategy {
		return Strategy{Name: name, Run: func(_ context.Context, _, _ string) error {
			ran = append(ran, name)
			if fail {
				return errors.New("unavailable")
			}
			return nil
		}}
	}

	used, err := firstSuccess(context.Background(), []Strategy{
		mk("a", true),
		mk("b", false),
		mk("c", false),
	}, "in.pdf", "out.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if used != "b" {
		t.Errorf("used %q, want b", used)
	}
	if len(ran) != 2 {
		t.Errorf("tier c ran despite b succeeding: %v", ran)
	}
}

func TestFirstSuccessReportsLastError(t *testing.T) {
	failing := Strategy{Name: "x", Run: func(_ context.Context, _, _ string) error {
		return errors.New("nope")
	}}
	if _, err := firstSuccess(context.Background(), []Strategy{failing}, "in", "out"); err == nil {
		t.Error("expected an error when every tier fails")
	}
}

func TestPlaceholderTierAlwaysProducesAnImage(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "cover.jpg")
	if err := writePlaceholder(context.Background(), "whatever.pdf", dst); err != nil {
		t.Fatal(err)
	}
	img, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("placeholder is not a decodable image: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 512 || b.Dy() != 680 {
		t.Errorf("placeholder is %dx%d", b.Dx(), b.Dy())
	}

	// Deterministic: a second run yields the same dimensions.
	if err := writePlaceholder(context.Background(), "other.pdf", dst); err != nil {
		t.Fatal(err)
	}
	img2, err := imaging.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	if img2.Bounds() != b {
		t.Error("placeholder is not deterministic")
	}
}
