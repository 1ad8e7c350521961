package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"

	"fortio.org/safecast"
)

// FileSet owns every file loaded during a run. Loading is safe for
// concurrent use; *File values are never mutated after Add returns.
type FileSet struct {
	mu      sync.RWMutex
	files   []*File
	index   map[string]FileID
	baseDir string
}

func NewFileSet() *FileSet {
	return &FileSet{index: make(map[string]FileID)}
}

// NewFileSetWithBase creates a FileSet whose relative paths are computed against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

func (fs *FileSet) SetBaseDir(dir string) {
	fs.mu.Lock()
	fs.baseDir = dir
	fs.mu.Unlock()
}

// BaseDir falls back to the working directory when no base was set.
func (fs *FileSet) BaseDir() string {
	fs.mu.RLock()
	dir := fs.baseDir
	fs.mu.RUnlock()
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return dir
}

// Add registers already normalized content and returns a fresh FileID.
// Re-adding a path yields a new ID; GetLatest resolves to the newest one.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	f := &File{
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	f.ID = FileID(n)
	fs.files = append(fs.files, f)
	fs.index[f.Path] = f.ID
	return f.ID
}

// Load reads path from disk, strips a UTF-8 BOM and folds CRLF line endings.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path comes from the command line or directory walk
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var flags FileFlags
	content, bom := removeBOM(content)
	if bom {
		flags |= FileHadBOM
	}
	content, crlf := normalizeCRLF(content)
	if crlf {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds in-memory content (stdin, tests).
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	content, _ = normalizeCRLF(content)
	return fs.Add(name, content, FileVirtual)
}

func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.files[id]
}

// Len reports how many files were added.
func (fs *FileSet) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.files)
}

func (fs *FileSet) GetLatest(path string) (FileID, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	id, ok := fs.index[normalizePath(path)]
	return id, ok
}

func (fs *FileSet) GetByPath(path string) (*File, bool) {
	id, ok := fs.GetLatest(path)
	if !ok {
		return nil, false
	}
	return fs.Get(id), true
}

// Resolve converts a span into 1-based start and end positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Line returns the 1-based line without its terminating newline,
// or "" when lineNum is out of range.
func (f *File) Line(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	nLines, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index overflow: %w", err))
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	var start uint32
	if lineNum > 1 {
		if lineNum-2 >= nLines {
			return ""
		}
		start = f.LineIdx[lineNum-2] + 1
	}
	end := size
	if lineNum-1 < nLines {
		end = f.LineIdx[lineNum-1]
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}

// LineStart returns the byte offset at which the given 1-based line begins.
func (f *File) LineStart(lineNum uint32) uint32 {
	if lineNum <= 1 || len(f.LineIdx) == 0 {
		return 0
	}
	i := int(lineNum) - 2
	if i >= len(f.LineIdx) {
		i = len(f.LineIdx) - 1
	}
	return f.LineIdx[i] + 1
}

// Text returns the bytes covered by span, clamped to the file.
func (f *File) Text(span Span) string {
	n := uint32(len(f.Content)) // #nosec G115 -- Add already checked len fits
	start, end := span.Start, span.End
	if end > n {
		end = n
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}

// FormatPath renders the path according to mode: "absolute", "relative",
// "basename" or "auto". Virtual files are always printed as-is.
func (f *File) FormatPath(mode, baseDir string) string {
	if f.Flags&FileVirtual != 0 {
		return f.Path
	}
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
	case "relative":
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
	case "basename":
		return BaseName(f.Path)
	case "auto":
		if baseDir != "" {
			if rel, err := RelativePath(f.Path, baseDir); err == nil {
				return rel
			}
		}
	}
	return f.Path
}
