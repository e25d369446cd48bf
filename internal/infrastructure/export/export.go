// Package export writes the finalized session artifact to disk. Export I/O
// failure is the one fatal error class in the recorder; everything upstream is
// contained per event.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"webtrace/internal/domain"
)

const (
	SessionFileName = "session.json"
	DOMFileName     = "initial_dom.html"
)

// SessionDir returns the per-session directory name,
// e.g. "20260830T142501_example_com".
func SessionDir(root string, start time.Time, rootDomain string) string {
	domainPart := "unknown"
	if rootDomain != "" {
		domainPart = strings.NewReplacer(".", "_", ":", "_").Replace(rootDomain)
	}
	return filepath.Join(root, start.Format("20060102T150405")+"_"+domainPart)
}

// WriteSession serializes the session artifact into dir, creating it as
// needed. The file is written to a temp name and renamed so a failed write
// never leaves a half-formed artifact behind.
func WriteSession(dir string, sess domain.Session) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}
	doc := domain.Export{Session: sess, Events: sess.Events}
	if doc.Events == nil {
		doc.Events = []domain.Event{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: marshal session: %w", err)
	}
	path := filepath.Join(dir, SessionFileName)
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteDOMSnapshot stores the initial page markup companion artifact. An
// empty snapshot writes nothing.
func WriteDOMSnapshot(dir, html string) (string, error) {
	if html == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}
	path := filepath.Join(dir, DOMFileName)
	if err := writeAtomic(path, []byte(html)); err != nil {
		return "", err
	}
	return path, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("export: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("export: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("export: rename into place: %w", err)
	}
	return nil
}
