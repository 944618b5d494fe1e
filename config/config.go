package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var Opts *Options

func GetConfig() (*Options, error) {
	GetDefaultOptions()

	dataDir, err := checkDataDir(Opts.Data)
	if err != nil {
		fmt.Println("Error checking data directory: ", err)
		return nil, err
	}

	Opts.Data = dataDir
	Opts.DSN = filepath.Join(Opts.Data, "/manga-shelf.db")

	return Opts, nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
		}
	}
	return dataDir, nil
}

func ParseFile(file string) (*Options, error) {
	// Check if file exists
	if _, err := os.Stat(file); err != nil {
		return nil, errors.Wrapf(err, "unable to access config file %s", file)
	}

	viper.SetConfigFile(file)
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}
	err = viper.Unmarshal(Opts)
	if err != nil {
		return nil, err
	}
	return Opts, nil
}

// OriginalsDir is the upload-owned directory, read-only to everything
// downstream of the upload step.
func (o *Options) OriginalsDir() string {
	return filepath.Join(o.Data, "originals")
}

// PagesDir holds the numbered page derivatives of one book.
func (o *Options) PagesDir(bookID int) string {
	return filepath.Join(o.Data, "pages", fmt.Sprintf("%d", bookID))
}

func (o *Options) ThumbnailsDir() string {
	return filepath.Join(o.Data, "thumbnails")
}

func (o *Options) PreviewsDir() string {
	return filepath.Join(o.Data, "previews")
}

// EnsureStorage creates the derived-asset layout under the storage root.
func (o *Options) EnsureStorage() error {
	dirs := []string{
		o.Data,
		o.OriginalsDir(),
		filepath.Join(o.Data, "pages"),
		o.ThumbnailsDir(),
		o.PreviewsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "unable to create storage folder %s", dir)
		}
	}
	return nil
}
