// Package source obtains input files for the pipelines: it downloads an
// archive once, extracts it, and locates the data file inside.
package source

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/tabular/internal/core"
	"github.com/JonMunkholm/tabular/internal/logging"
)

// Archive describes a remote ZIP archive and where to keep it locally.
type Archive struct {
	URL    string
	Dir    string // Local directory for the archive and its extracted contents
	Client *http.Client
}

// ArchivePath returns the local path of the downloaded archive.
func (a Archive) ArchivePath() string {
	return filepath.Join(a.Dir, path.Base(a.URL))
}

// ExtractDir returns the directory the archive is extracted into.
func (a Archive) ExtractDir() string {
	p := a.ArchivePath()
	return strings.TrimSuffix(p, filepath.Ext(p))
}

// Fetch makes sure the archive is present and extracted and returns the path
// of the first file with extension ext (".txt"), in lexical order.
// An archive already on disk is not downloaded again.
func (a Archive) Fetch(ctx context.Context, ext string) (string, error) {
	logger := logging.WithFields(ctx, "archive", a.URL)

	archivePath := a.ArchivePath()
	if _, err := os.Stat(archivePath); errors.Is(err, os.ErrNotExist) {
		logger.Info("downloading archive", "path", archivePath)
		if err := Download(ctx, a.Client, a.URL, archivePath); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", fmt.Errorf("stat %s: %w", archivePath, err)
	} else {
		logger.Debug("archive already present", "path", archivePath)
	}

	dest := a.ExtractDir()
	if err := ExtractZip(archivePath, dest); err != nil {
		return "", err
	}

	found, err := FindFirst(dest, ext)
	if err != nil {
		return "", err
	}
	logger.Info("data file located", "path", found)
	return found, nil
}

// Download writes the body of url to dst. The file is only moved into place
// once the whole body has been received.
func Download(ctx context.Context, client *http.Client, url, dst string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("download %s: %w", url, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

// ExtractZip extracts the archive at src into dest.
// Entries that would land outside dest are rejected.
func ExtractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", src, err)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	root := filepath.Clean(dest) + string(os.PathSeparator)

	for _, f := range r.File {
		target := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("archive entry %q escapes %s", f.Name, dest)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}

// FindFirst returns the lexically first regular file under dir whose
// extension is ext (case-insensitive). Returns core.ErrSourceNotFound if none.
func FindFirst(dir, ext string) (string, error) {
	var matches []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ext) {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", core.ErrSourceNotFound, dir)
		}
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no %s file in %s", core.ErrSourceNotFound, ext, dir)
	}
	sort.Strings(matches)
	return matches[0], nil
}
