package panel

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

var errEscapesRoot = errors.New("path escapes the browse root")

// resolve maps a client-supplied relative path onto the browse root,
// rejecting anything that would land outside it.
func (s *Server) resolve(rel string) (string, error) {
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	full := filepath.Clean(filepath.Join(rootAbs, rel))
	if full != rootAbs && !strings.HasPrefix(full, rootAbs+string(os.PathSeparator)) {
		return "", errEscapesRoot
	}
	return full, nil
}

type dirEntry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	IsDir   bool      `json:"is_dir"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	full, err := s.resolve(r.URL.Query().Get("path"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	out := make([]dirEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, dirEntry{
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().UTC(),
			IsDir:   e.IsDir(),
		})
	}
	// Directories first, each group alphabetical.
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return out[i].Name < out[j].Name
	})
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	full, err := s.resolve(r.URL.Query().Get("path"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		respondError(w, http.StatusNotFound, "not_found", "no such file")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(full)))
	http.ServeFile(w, r, full)
}

// handleDownloadZip streams the whole browse root as a ZIP archive.
// Unreadable entries are skipped rather than aborting the export.
func (s *Server) handleDownloadZip(w http.ResponseWriter, r *http.Request) {
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "zip_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="export.zip"`)

	zw := zip.NewWriter(w)
	defer zw.Close()

	err = filepath.WalkDir(rootAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(rootAbs, path)
		if err != nil {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer f.Close()

		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		// Headers are already written; all we can do is log.
		s.logger.Error("zip export aborted", zap.Error(err))
	}
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>studybot panel</title></head>
<body>
<h3>studybot panel</h3>
<ul>
  <li><a href="/api/list">Browse files</a></li>
  <li><a href="/api/chats">Chats with transcripts</a></li>
  <li><a href="/download/zip">Download everything (.zip)</a></li>
  <li><a href="/logout">Log out</a></li>
</ul>
</body>
</html>`

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}
