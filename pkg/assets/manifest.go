// Package assets maps source asset paths to their fingerprinted names and
// turns the mapping into the URL list an offline worker precaches.
//
// A manifest is a JSON object keyed by source path:
//
//	{
//	  "app.js": "app.3f2a9c1d.js",
//	  "app.css": "app.e5f6a7b8.css"
//	}
//
// Scan builds one from a directory tree; Load reads one written by Save.
package assets

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
)

// HashLen is how many hex digits of the content hash go into a
// fingerprinted name.
const HashLen = 8

// Manifest maps source asset paths to fingerprinted paths. It is safe for
// concurrent use.
type Manifest struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewManifest() *Manifest {
	return &Manifest{entries: map[string]string{}}
}

// Load reads a manifest written by Save. A JSON null loads as empty.
func Load(file string) (*Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	m := NewManifest()
	if err := json.Unmarshal(data, &m.entries); err != nil {
		return nil, fmt.Errorf("assets: parse %s: %w", file, err)
	}
	if m.entries == nil {
		m.entries = map[string]string{}
	}
	return m, nil
}

// Scan fingerprints every regular file below root in fsys. Source paths are
// slash-separated and relative to root.
func Scan(fsys fs.FS, root string) (*Manifest, error) {
	sub, err := fs.Sub(fsys, root)
	if err != nil {
		return nil, err
	}
	m := NewManifest()
	err = fs.WalkDir(sub, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		hashed, err := hashFile(sub, p)
		if err != nil {
			return fmt.Errorf("assets: hash %s: %w", path.Join(root, p), err)
		}
		m.Set(p, hashed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func hashFile(fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return HashName(name, f)
}

// HashName inserts the first HashLen hex digits of the SHA-1 of content
// before the extension of name, so "js/app.js" becomes "js/app.3f2a9c1d.js".
func HashName(name string, content io.Reader) (string, error) {
	h := sha1.New()
	if _, err := io.Copy(h, content); err != nil {
		return "", err
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s.%s%s", strings.TrimSuffix(name, ext), hex.EncodeToString(h.Sum(nil))[:HashLen], ext), nil
}

func (m *Manifest) lookup(source string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[source]
	return v, ok
}

// Resolve returns the fingerprinted path for source, or source itself when
// the manifest does not list it.
func (m *Manifest) Resolve(source string) string {
	if v, ok := m.lookup(source); ok {
		return v
	}
	return source
}

func (m *Manifest) Has(source string) bool {
	_, ok := m.lookup(source)
	return ok
}

func (m *Manifest) Set(source, resolved string) {
	m.mu.Lock()
	m.entries[source] = resolved
	m.mu.Unlock()
}

func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sources returns the source paths, sorted.
func (m *Manifest) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.entries))
}

// All returns a copy of the entries.
func (m *Manifest) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.entries)
}

// WriteTo writes the manifest as indented JSON. Keys come out sorted, so
// equal manifests write equal bytes.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.All()); err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

// Bytes returns what WriteTo writes. The fingerprint of an offline worker
// is derived from it.
func (m *Manifest) Bytes() []byte {
	var buf bytes.Buffer
	m.WriteTo(&buf)
	return buf.Bytes()
}

func (m *Manifest) Save(file string) error {
	return os.WriteFile(file, m.Bytes(), 0o644)
}
