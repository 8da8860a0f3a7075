// Package docs keeps the local llms.txt documentation snapshots current.
package docs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwiater/docent/internal/logging"
	"github.com/mwiater/docent/internal/util"
)

// Source is one documentation site publishing llms.txt files.
type Source struct {
	Name     string
	ShortURL string
	FullURL  string
}

// DefaultSources are the documentation sets the assistant is built around.
var DefaultSources = []Source{
	{
		Name:     "langgraph",
		ShortURL: "https://langchain-ai.github.io/langgraph/llms.txt",
		FullURL:  "https://langchain-ai.github.io/langgraph/llms-full.txt",
	},
	{
		Name:     "langchain",
		ShortURL: "https://docs.langchain.com/llms.txt",
		FullURL:  "https://docs.langchain.com/llms-full.txt",
	},
}

// Result lists file names by outcome.
type Result struct {
	Downloaded []string
	Unchanged  []string
	Failed     []string
	Timestamp  time.Time
}

// Refresher downloads documentation into a data directory.
type Refresher struct {
	DataDir string
	Sources []Source
	Client  *http.Client
}

// NewRefresher returns a Refresher over DefaultSources with a 30s timeout.
func NewRefresher(dataDir string) *Refresher {
	return &Refresher{
		DataDir: dataDir,
		Sources: DefaultSources,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ContentHash is the short SHA-256 prefix used to detect changed files.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:12]
}

// Refresh downloads every source's short file, and the full file when includeFull
// is set. A download failure is recorded and the remaining files still run.
func (r *Refresher) Refresh(ctx context.Context, includeFull bool, out io.Writer) (Result, error) {
	if out == nil {
		out = io.Discard
	}
	res := Result{Timestamp: time.Now().UTC()}
	if err := os.MkdirAll(r.DataDir, 0o755); err != nil {
		return res, fmt.Errorf("create data dir: %w", err)
	}
	fmt.Fprintf(out, "Refreshing documentation data into %s\n", r.DataDir)

	for _, src := range r.Sources {
		targets := []struct{ url, file string }{{src.ShortURL, src.Name + "_llms.txt"}}
		if includeFull && src.FullURL != "" {
			targets = append(targets, struct{ url, file string }{src.FullURL, src.Name + "_llms_full.txt"})
		}
		for _, tgt := range targets {
			content, err := r.download(ctx, tgt.url)
			if err != nil {
				logging.LogWarn("[REFRESH] %s: %v", tgt.url, err)
				fmt.Fprintf(out, "  failed:    %s (%v)\n", tgt.file, err)
				res.Failed = append(res.Failed, tgt.file)
				continue
			}
			updated, err := saveIfChanged(filepath.Join(r.DataDir, tgt.file), content)
			if err != nil {
				return res, err
			}
			if updated {
				fmt.Fprintf(out, "  updated:   %s (%d bytes)\n", tgt.file, len(content))
				res.Downloaded = append(res.Downloaded, tgt.file)
			} else {
				fmt.Fprintf(out, "  unchanged: %s\n", tgt.file)
				res.Unchanged = append(res.Unchanged, tgt.file)
			}
		}
	}

	files := append(append([]string{}, res.Downloaded...), res.Unchanged...)
	meta := fmt.Sprintf("# docent documentation data\n# Last updated: %s\n# Files: %s\n",
		res.Timestamp.Format(time.RFC3339), strings.Join(files, ", "))
	if err := util.WriteFile(filepath.Join(r.DataDir, "metadata.txt"), []byte(meta)); err != nil {
		return res, fmt.Errorf("write metadata: %w", err)
	}
	logging.LogEvent("[REFRESH] updated=%d unchanged=%d failed=%d", len(res.Downloaded), len(res.Unchanged), len(res.Failed))
	fmt.Fprintf(out, "Updated: %d, unchanged: %d, failed: %d\n", len(res.Downloaded), len(res.Unchanged), len(res.Failed))

	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%d download(s) failed", len(res.Failed))
	}
	return res, nil
}

func (r *Refresher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	logging.LogRequest("DOCENT->DOCS", "http", url, nil)
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// saveIfChanged writes content unless the existing file hashes the same.
func saveIfChanged(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if ContentHash(existing) == ContentHash(content) {
			return false, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := util.WriteFile(path, content); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
