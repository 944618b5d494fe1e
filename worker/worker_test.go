package worker

import (
	"archive/zip"
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/mangashelf/mangashelf/config"
	"github.com/mangashelf/mangashelf/heal"
	"github.com/mangashelf/mangashelf/log"
	"github.com/mangashelf/mangashelf/model"
	"github.com/mangashelf/mangashelf/store"
	"github.com/mangashelf/mangashelf/store/db"
)

func init() {
	config.GetDefaultOptions()
	log.Logger = log.NewLogger()
}

func TestHealWorkerDrainsQueue(t *testing.T) {
	config.GetDefaultOptions()
	config.Opts.Data = t.TempDir()
	if err := config.Opts.EnsureStorage(); err != nil {
		t.Fatal(err)
	}

	d, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	if err := db.Migrate(d); err != nil {
		t.Fatal(err)
	}
	s := store.NewStore(d)

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, image.NewRGBA(image.Rect(0, 0, 16, 16)), nil); err != nil {
		t.Fatal(err)
	}
	archivePath := filepath.Join(t.TempDir(), "vol.cbz")
	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("1.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(jpg.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	book, err := s.AddBook(&model.Book{Title: "vol", Format: model.FormatCBZ, FilePath: archivePath})
	if err != nil {
		t.Fatal(err)
	}

	queue := make(chan *model.Book, 1)
	queue <- book
	close(queue)

	worker := &HealWorker{id: 0, healer: heal.NewHealer(s)}
	worker.Run(queue)

	healed, err := s.GetBook(&model.FindBook{ID: &book.ID})
	if err != nil {
		t.Fatal(err)
	}
	if healed.PageCount == nil || *healed.PageCount != 1 {
		t.Fatalf("Expected healed page count, got %+v", healed.PageCount)
	}
}
