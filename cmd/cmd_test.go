package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CATALYST_DATABASEPATH", filepath.Join(dir, "data", "catalyst.db"))
	t.Setenv("CATALYST_BLOB_DRIVER", "fs")
	t.Setenv("CATALYST_BLOB_FSROOT", filepath.Join(dir, "archive"))
	t.Setenv("CATALYST_LOGLEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, archiveExport, fromArchive, watchBuild = "", false, false, false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

const doc = `{
  "events": [{"id": 1, "name": "Hack Night", "date": "2099-05-01", "location": "Lab", "type": "Hackathon", "description": "d", "image": "x.png"}],
  "projects": [],
  "blog": [{"id": 2, "title": "Hello", "category": "News", "content": "Hi", "readTime": "5", "image": "", "date": "2025-01-01T00:00:00.000Z"}]
}`

func TestImportExportClear(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.WriteFile("in.json", []byte(doc), 0o644))

	_, err := run(t, "import", "in.json")
	require.NoError(t, err)

	out, err := run(t, "export", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Hack Night")
	assert.Contains(t, out, `"exportDate"`)

	_, err = run(t, "export", "--archive", "out.json")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	archived, err := filepath.Glob(filepath.Join(dir, "archive", "exports", "*.json"))
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	_, err = run(t, "clear", "events")
	require.NoError(t, err)
	out, err = run(t, "export", "-")
	require.NoError(t, err)
	assert.NotContains(t, out, "Hack Night")
	assert.Contains(t, out, "Hello")

	_, err = run(t, "import", "out.json")
	require.NoError(t, err)
	out, err = run(t, "export", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Hack Night")

	_, err = run(t, "clear")
	require.NoError(t, err)
	out, err = run(t, "export", "-")
	require.NoError(t, err)
	assert.NotContains(t, out, "Hello")
}

func TestImportRejectsIncompleteDocument(t *testing.T) {
	setup(t)
	require.NoError(t, os.WriteFile("bad.json", []byte(`{"events": []}`), 0o644))

	_, err := run(t, "import", "bad.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrImport))
}

func TestClearRejectsUnknownCollection(t *testing.T) {
	setup(t)
	_, err := run(t, "clear", "widgets")
	assert.Error(t, err)
}

func TestBuildWritesSite(t *testing.T) {
	dir := setup(t)
	t.Setenv("CATALYST_OUTPUTDIR", filepath.Join(dir, "public"))

	_, err := run(t, "build")
	require.NoError(t, err)
	for _, name := range []string{"index.html", "admin.html"} {
		_, err := os.Stat(filepath.Join(dir, "public", name))
		assert.NoError(t, err, name)
	}
}
