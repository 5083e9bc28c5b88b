package web

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LogFile is one entry of GET /api/log_files.
type LogFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// hostnamePrefix tags downloaded file names with the machine they came from.
func hostnamePrefix() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return ""
	}
	return h + "-"
}

// listLogs returns the CSV logs in dir, newest first.
func listLogs(dir, prefix string) ([]LogFile, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "uts-data-*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	files := make([]LogFile, 0, len(matches))
	for _, m := range matches {
		name := prefix + filepath.Base(m)
		files = append(files, LogFile{Name: name, URL: "/api/log/" + name})
	}
	return files, nil
}

// logPath maps a download name back to a file in dir. It reports false for
// names that do not refer to a log file.
func logPath(dir, prefix, name string) (string, bool) {
	name = strings.TrimPrefix(name, prefix)
	if name != filepath.Base(name) || !strings.HasPrefix(name, "uts-data-") || !strings.HasSuffix(name, ".csv") {
		return "", false
	}
	return filepath.Join(dir, name), true
}

func (s *Server) handleLogFiles(w http.ResponseWriter, r *http.Request) {
	if s.logDir == "" {
		http.Error(w, "logging is not configured", http.StatusNotFound)
		return
	}
	files, err := listLogs(s.logDir, s.hostname)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, files)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	if s.logDir == "" {
		http.NotFound(w, r)
		return
	}
	path, ok := logPath(s.logDir, s.hostname, strings.TrimPrefix(r.URL.Path, "/api/log/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	http.ServeFile(w, r, path)
}
