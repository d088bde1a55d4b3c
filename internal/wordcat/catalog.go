// Package wordcat loads the drawing-word catalog from embedded defaults and
// an optional override directory. The server accepts any word for
// select_word, so the catalog is purely a client-side vocabulary: it feeds
// the bot's word choices and its guessing loop.
package wordcat

import (
	"embed"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed words.yaml
var defaultFiles embed.FS

type Catalog struct {
	mu    sync.RWMutex
	words []string
	index map[string]struct{}
}

type wordFile struct {
	Words []string `yaml:"words"`
}

// New loads the embedded default words and then merges any *.yaml files from
// dir if provided.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{index: make(map[string]struct{})}

	raw, err := fs.ReadFile(defaultFiles, "words.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded words: %w", err)
	}
	if err := c.applyYAML(raw); err != nil {
		return nil, err
	}

	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	if len(c.words) == 0 {
		return nil, fmt.Errorf("word catalog is empty")
	}
	return c, nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read word dir: %w", err)
	}
	// Sort for deterministic order
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") || strings.HasSuffix(n, ".yml") {
			files = append(files, n)
		}
	}
	sort.Strings(files)
	for _, name := range files {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read word file %s: %w", name, err)
		}
		if err := c.applyYAML(raw); err != nil {
			return fmt.Errorf("parse word file %s: %w", name, err)
		}
	}
	return nil
}

func (c *Catalog) applyYAML(raw []byte) error {
	var f wordFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse words yaml: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range f.Words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := c.index[w]; ok {
			continue
		}
		c.index[w] = struct{}{}
		c.words = append(c.words, w)
	}
	return nil
}

// Random returns n distinct words, fewer when the catalog is smaller than n.
func (c *Catalog) Random(n int) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n > len(c.words) {
		n = len(c.words)
	}
	perm := rand.Perm(len(c.words))
	out := make([]string, 0, n)
	for _, i := range perm[:n] {
		out = append(out, c.words[i])
	}
	return out
}

// Contains reports whether w is a known catalog word.
func (c *Catalog) Contains(w string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.words)
}
