package source

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabular/internal/core"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestArchive_FetchDownloadsOnce(t *testing.T) {
	payload := zipBytes(t, map[string]string{
		"0327/log.csv": "x",
		"0327/b.txt":   "video views rate\n1 2 3\n",
		"0327/a.txt":   "video views rate\n4 5 6\n",
	})

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(payload)
	}))
	defer srv.Close()

	a := Archive{URL: srv.URL + "/youtubedata/0327.zip", Dir: t.TempDir()}

	path, err := a.Fetch(context.Background(), ".txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a.Dir, "0327", "0327", "a.txt"), path)

	_, err = a.Fetch(context.Background(), ".txt")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "existing archive is reused")

	_, err = os.Stat(a.ArchivePath() + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestArchive_NoTextFile(t *testing.T) {
	dir := t.TempDir()
	a := Archive{URL: "http://unused.invalid/data.zip", Dir: dir}
	require.NoError(t, os.WriteFile(a.ArchivePath(), zipBytes(t, map[string]string{"readme.md": "#"}), 0o644))

	_, err := a.Fetch(context.Background(), ".txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSourceNotFound)
}

func TestDownload_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "x.zip")
	err := Download(context.Background(), srv.Client(), srv.URL, dst)
	require.Error(t, err)

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "nothing written on failure")
}

func TestExtractZip_RejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(src, zipBytes(t, map[string]string{"../escape.txt": "x"}), 0o644))

	err := ExtractZip(src, filepath.Join(dir, "out"))
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFindFirst_MissingDir(t *testing.T) {
	_, err := FindFirst(filepath.Join(t.TempDir(), "nope"), ".txt")
	assert.ErrorIs(t, err, core.ErrSourceNotFound)
}
