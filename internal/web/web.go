// Package web bundles the dashboard served by the ingest service.
package web

import (
	"embed"
	"io/fs"
	"os"
	"strings"
)

//go:embed static
var embedded embed.FS

// IndexFile is the dashboard document served at / and /dashboard.
const IndexFile = "index.html"

// Assets returns the dashboard file tree. A non-empty dir replaces the
// embedded copy with files read from disk.
func Assets(dir string) (fs.FS, error) {
	if strings.TrimSpace(dir) != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, &fs.PathError{Op: "open", Path: dir, Err: fs.ErrInvalid}
		}
		return os.DirFS(dir), nil
	}
	return fs.Sub(embedded, "static")
}
