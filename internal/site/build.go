// Package site writes the rendered pages to disk as a static site.
package site

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aTrapDeer/catalyst-backend/internal/render"
	"github.com/aTrapDeer/catalyst-backend/internal/store"
	log "github.com/sirupsen/logrus"
)

// Result lists the files written by Build, relative to the output directory.
type Result struct {
	Files []string
}

// Build renders index.html, admin.html and one blog/<id>/index.html per
// post into outDir. Post pages of deleted posts are removed.
func Build(ctx context.Context, st *store.Store, rd *render.Renderer, outDir string) (Result, error) {
	var res Result
	snap, err := st.Snapshot(ctx)
	if err != nil {
		return res, fmt.Errorf("read content: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("create output directory %s: %w", outDir, err)
	}

	write := func(rel string, fn func(*bytes.Buffer) error) error {
		var buf bytes.Buffer
		if err := fn(&buf); err != nil {
			return fmt.Errorf("render %s: %w", rel, err)
		}
		if err := writeFile(filepath.Join(outDir, rel), buf.Bytes()); err != nil {
			return err
		}
		res.Files = append(res.Files, rel)
		return nil
	}

	now := st.Now()
	if err := write("index.html", func(b *bytes.Buffer) error { return rd.PublicPage(b, snap, now) }); err != nil {
		return res, err
	}
	if err := write("admin.html", func(b *bytes.Buffer) error { return rd.AdminPage(b, snap) }); err != nil {
		return res, err
	}

	blogDir := filepath.Join(outDir, "blog")
	if err := os.RemoveAll(blogDir); err != nil {
		return res, fmt.Errorf("clean %s: %w", blogDir, err)
	}
	for _, post := range snap.Blog {
		rel := filepath.Join("blog", strconv.FormatInt(post.ID, 10), "index.html")
		if err := write(rel, func(b *bytes.Buffer) error { return rd.PostPage(b, post) }); err != nil {
			return res, err
		}
	}

	log.Infof("site built into %s (%d pages)", outDir, len(res.Files))
	return res, nil
}

// writeFile replaces path through a rename so readers never see a partial page.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
