package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/samber/do"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// Uploader stores an object and returns the URL it is publicly served at.
type Uploader interface {
	Upload(context.Context, UploadParams) (string, error)
}

type Remover interface {
	Remove(ctx context.Context, name string) error
}

// Storage is an Uploader that can also delete what it stored.
type Storage interface {
	Uploader
	Remover
}

// FileUploader keeps images on local disk below Dir; the HTTP server serves
// them under BaseURL.
type FileUploader struct {
	Dir     string
	BaseURL string
}

func NewFileUploader(i *do.Injector) (*FileUploader, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &FileUploader{
		Dir:     cfg.StorageDir,
		BaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/") + "/images",
	}, nil
}

func (u *FileUploader) path(name string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fs.ErrInvalid
	}
	return filepath.Join(u.Dir, filepath.FromSlash(name)), nil
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("file")
	log.Info("writing", "file", params.Name, "dir", u.Dir)

	path, err := u.path(params.Name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, params.Data, 0600); err != nil {
		return "", err
	}
	return u.BaseURL + "/" + params.Name, nil
}

func (u *FileUploader) Remove(ctx context.Context, name string) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("file")
	log.Info("removing", "file", name, "dir", u.Dir)

	path, err := u.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
