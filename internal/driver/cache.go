package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"rbsec/internal/config"
	"rbsec/internal/diag"
	"rbsec/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит найденные нарушения по хешу содержимого и конфигурации.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached outcome of linting one file.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path        string
	ContentHash config.Digest
	Calls       int
	Findings    []cachedFinding
}

// Spans are stored as offsets; the file ID is assigned again on load.
type cachedFinding struct {
	Severity uint8
	Code     uint16
	Message  string
	Rule     string
	Start    uint32
	End      uint32
	Notes    []cachedNote
	Fixes    []cachedFix
}

type cachedNote struct {
	Start uint32
	End   uint32
	Msg   string
}

type cachedFix struct {
	ID            string
	Title         string
	Kind          uint8
	Applicability uint8
	Preferred     bool
	RequiresAll   bool
	Edits         []cachedEdit
}

type cachedEdit struct {
	Start   uint32
	End     uint32
	NewText string
	OldText string
}

// DefaultCacheDir returns $XDG_CACHE_HOME/app or ~/.cache/app.
func DefaultCacheDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	dir, err := DefaultCacheDir(app)
	if err != nil {
		return nil, err
	}
	return OpenDiskCacheAt(dir)
}

// OpenDiskCacheAt opens a cache rooted at dir, creating it if needed.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// CacheKey combines the file content hash, the configuration fingerprint
// and the payload schema.
func CacheKey(content [32]byte, fingerprint config.Digest) config.Digest {
	schema := sha256.Sum256(fmt.Appendf(nil, "rbsec-cache-schema-%d", diskCacheSchemaVersion))
	return config.Combine(config.Digest(content), fingerprint, config.Digest(schema))
}

func (c *DiskCache) pathFor(key config.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// подкаталог по первым двум символам, чтобы не плодить огромный каталог
	return filepath.Join(c.dir, "files", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key config.Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	if err := os.Rename(tmpName, p); err != nil {
		return err
	}
	committed = true
	return nil
}

// Get reads and deserializes a payload from the disk cache. Payloads of
// another schema are reported as misses.
func (c *DiskCache) Get(key config.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог и удалим, чтобы параллельный запуск не увидел половину
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// payloadFrom converts the findings of one file. Findings that point into
// other files or carry fixes that cannot be built are not cacheable.
func payloadFrom(fs *source.FileSet, file *source.File, calls int, items []diag.Diagnostic) (*DiskPayload, bool) {
	payload := &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Path:        file.Path,
		ContentHash: config.Digest(file.Hash),
		Calls:       calls,
		Findings:    make([]cachedFinding, 0, len(items)),
	}
	ctx := diag.FixBuildContext{FileSet: fs}
	for i := range items {
		d := &items[i]
		if d.Primary.File != file.ID {
			return nil, false
		}
		f := cachedFinding{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Rule:     d.Rule,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			if n.Span.File != file.ID {
				return nil, false
			}
			f.Notes = append(f.Notes, cachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		fixes, err := diag.MaterializeFixes(ctx, d.Fixes)
		if err != nil {
			return nil, false
		}
		for _, fx := range fixes {
			cf := cachedFix{
				ID:            fx.ID,
				Title:         fx.Title,
				Kind:          uint8(fx.Kind),
				Applicability: uint8(fx.Applicability),
				Preferred:     fx.IsPreferred,
				RequiresAll:   fx.RequiresAll,
			}
			for _, e := range fx.Edits {
				if e.Span.File != file.ID {
					return nil, false
				}
				cf.Edits = append(cf.Edits, cachedEdit{Start: e.Span.Start, End: e.Span.End, NewText: e.NewText, OldText: e.OldText})
			}
			f.Fixes = append(f.Fixes, cf)
		}
		payload.Findings = append(payload.Findings, f)
	}
	return payload, true
}

// restore rebuilds the diagnostics of payload against file.
func (p *DiskPayload) restore(file source.FileID, bag *diag.Bag) {
	span := func(start, end uint32) source.Span {
		return source.Span{File: file, Start: start, End: end}
	}
	for _, f := range p.Findings {
		d := diag.Diagnostic{
			Severity: diag.Severity(f.Severity),
			Code:     diag.Code(f.Code),
			Message:  f.Message,
			Rule:     f.Rule,
			Primary:  span(f.Start, f.End),
		}
		for _, n := range f.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: span(n.Start, n.End), Msg: n.Msg})
		}
		for _, cf := range f.Fixes {
			fx := &diag.Fix{
				ID:            cf.ID,
				Title:         cf.Title,
				Kind:          diag.FixKind(cf.Kind),
				Applicability: diag.FixApplicability(cf.Applicability),
				IsPreferred:   cf.Preferred,
				RequiresAll:   cf.RequiresAll,
			}
			for _, e := range cf.Edits {
				fx.Edits = append(fx.Edits, diag.TextEdit{Span: span(e.Start, e.End), NewText: e.NewText, OldText: e.OldText})
			}
			d.Fixes = append(d.Fixes, fx)
		}
		bag.Add(d)
	}
}
