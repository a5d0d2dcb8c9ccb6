// Package scanner builds the codebase context sent with every model request.
//
// A scan walks the project tree, drops excluded directories, excluded file
// patterns and binary files, and admits the remaining text files in
// lexicographic path order until the byte budget is spent. The result is a
// Bundle; scanning an unchanged tree twice yields identical bundles.
package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/quocvuong92/zor/internal/constants"
	"github.com/quocvuong92/zor/internal/logging"
)

// binarySniffLen is how much of a file is checked for NUL bytes
const binarySniffLen = 8000

// Options controls what a scan admits
type Options struct {
	ExcludeDirs  []string
	ExcludeFiles []string
	// MaxBytes is the budget for the summed content of admitted files
	MaxBytes int64
	// MaxFileBytes skips any single file larger than this
	MaxFileBytes int64
	Logger       *logging.Logger
}

// ScanError is fatal: the root itself cannot be scanned
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Warning is a per-file problem that did not stop the scan
type Warning struct {
	Path string
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// OmitReason says why an eligible text file was left out
type OmitReason string

const (
	OmitTooLarge OmitReason = "too large"
	OmitBudget   OmitReason = "budget"
)

// Omission records a file left out of the bundle
type Omission struct {
	Path   string
	Size   int64
	Reason OmitReason
}

// candidate is a regular file that passed the exclude filters
type candidate struct {
	rel  string
	abs  string
	size int64
}

// Scan walks root and returns its context bundle
func Scan(root string, opts Options) (*Bundle, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Root: root, Err: errors.New("not a directory")}
	}

	bundle := &Bundle{Root: absRoot, Budget: opts.MaxBytes}

	candidates, err := collect(absRoot, opts, bundle)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	budgetSpent := false
	for _, c := range candidates {
		if opts.MaxFileBytes > 0 && c.size > opts.MaxFileBytes {
			bundle.Omitted = append(bundle.Omitted, Omission{Path: c.rel, Size: c.size, Reason: OmitTooLarge})
			continue
		}
		// once one file misses the budget every later file is omitted too,
		// so the admitted set is always a prefix of the ordering
		if budgetSpent {
			bundle.Omitted = append(bundle.Omitted, Omission{Path: c.rel, Size: c.size, Reason: OmitBudget})
			continue
		}

		data, err := os.ReadFile(c.abs)
		if err != nil {
			bundle.Warnings = append(bundle.Warnings, Warning{Path: c.rel, Err: err})
			logger.Warn("Skipping unreadable file", logging.Fields{"path": c.rel, "error": err.Error()})
			continue
		}

		if isBinary(data) {
			bundle.Binary = append(bundle.Binary, c.rel)
			logger.Debug("Skipping binary file", logging.Fields{"path": c.rel})
			continue
		}

		size := int64(len(data))
		if opts.MaxBytes > 0 && bundle.Bytes+size > opts.MaxBytes {
			budgetSpent = true
			bundle.Omitted = append(bundle.Omitted, Omission{Path: c.rel, Size: size, Reason: OmitBudget})
			continue
		}

		bundle.Files = append(bundle.Files, File{Path: c.rel, Content: string(data)})
		bundle.Bytes += size
	}

	logger.Debug("Scan complete", logging.Fields{
		"root":     absRoot,
		"files":    len(bundle.Files),
		"bytes":    bundle.Bytes,
		"omitted":  len(bundle.Omitted),
		"warnings": len(bundle.Warnings),
	})

	return bundle, nil
}

// collect walks the tree and returns eligible files sorted by slash path
func collect(root string, opts Options, bundle *Bundle) ([]candidate, error) {
	var out []candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if path == root {
			return walkErr
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			bundle.Warnings = append(bundle.Warnings, Warning{Path: rel, Err: walkErr})
			opts.logger().Warn("Skipping unreadable path", logging.Fields{"path": rel, "error": walkErr.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if matchesAny(opts.ExcludeDirs, d.Name(), rel) {
				return filepath.SkipDir
			}
			return nil
		}

		// symlinks, sockets and devices are never read
		if !d.Type().IsRegular() {
			return nil
		}
		if d.Name() == constants.ProjectConfigFile || matchesAny(opts.ExcludeFiles, d.Name(), rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			bundle.Warnings = append(bundle.Warnings, Warning{Path: rel, Err: err})
			return nil
		}
		out = append(out, candidate{rel: rel, abs: path, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].rel < out[j].rel })
	return out, nil
}

func (o Options) logger() *logging.Logger {
	if o.Logger == nil {
		return logging.Nop()
	}
	return o.Logger
}

// matchesAny reports whether name or the slash-separated rel path matches
// one of the patterns. Malformed patterns fall back to string equality.
func matchesAny(patterns []string, name, rel string) bool {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p == name || p == rel {
			return true
		}
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
		if strings.Contains(p, "/") {
			if ok, err := filepath.Match(p, rel); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// isBinary treats any NUL byte near the start, or invalid UTF-8, as binary
func isBinary(data []byte) bool {
	sniff := data
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return true
	}
	return !utf8.Valid(data)
}
