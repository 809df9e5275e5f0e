package panel

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// handleLogStream tails a log file: existing content first, then every
// appended line as it arrives, until the client disconnects. Only bare
// filenames inside the log directory are accepted.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("file"))
	if name == "" || name != filepath.Base(name) {
		respondError(w, http.StatusBadRequest, "invalid_file", "file must be a bare log filename")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer cannot flush")
		return
	}

	f, err := os.Open(filepath.Join(s.logsDir, name))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "no such log file")
		return
	}
	defer f.Close()

	sseHeaders(w)
	flusher.Flush()

	ctx := r.Context()
	poll := time.NewTicker(time.Second)
	defer poll.Stop()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	// pending holds bytes read past the last complete line.
	var pending string
	buf := make([]byte, 32*1024)
	drain := func() {
		for {
			n, err := f.Read(buf)
			if n > 0 {
				pending += string(buf[:n])
				for {
					i := strings.IndexByte(pending, '\n')
					if i < 0 {
						break
					}
					fmt.Fprintf(w, "data: %s\n\n", pending[:i])
					pending = pending[i+1:]
				}
				flusher.Flush()
			}
			if err != nil || n == 0 {
				return
			}
		}
	}

	drain()
	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			drain()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// handleFileStream sends a text file line by line as SSE events and
// closes the stream when the file is exhausted.
func (s *Server) handleFileStream(w http.ResponseWriter, r *http.Request) {
	full, err := s.resolve(r.URL.Query().Get("path"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer cannot flush")
		return
	}

	f, err := os.Open(full)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "no such file")
		return
	}
	defer f.Close()

	sseHeaders(w)

	ctx := r.Context()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		fmt.Fprintf(w, "data: %s\n\n", scanner.Text())
	}
	fmt.Fprint(w, "event: end\ndata: done\n\n")
	flusher.Flush()
}
