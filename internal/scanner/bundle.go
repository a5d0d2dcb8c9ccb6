package scanner

import (
	"fmt"
	"strings"
)

// File is one admitted file; Path is slash-separated and relative to the root
type File struct {
	Path    string
	Content string
}

// Bundle is the filtered snapshot of a project sent as context
type Bundle struct {
	Root     string
	Files    []File
	Omitted  []Omission
	Warnings []Warning
	Binary   []string
	// Bytes is the summed content size of Files
	Bytes  int64
	Budget int64
}

// Summary is the compact description of a bundle kept in history
type Summary struct {
	Files   int   `json:"files"`
	Bytes   int64 `json:"bytes"`
	Omitted int   `json:"omitted"`
}

// Summary returns counts describing the bundle
func (b *Bundle) Summary() Summary {
	if b == nil {
		return Summary{}
	}
	return Summary{Files: len(b.Files), Bytes: b.Bytes, Omitted: len(b.Omitted)}
}

// EstimatedTokens approximates the token count at four bytes per token
func (b *Bundle) EstimatedTokens() int64 {
	return b.Bytes / 4
}

// Paths lists admitted file paths in bundle order
func (b *Bundle) Paths() []string {
	paths := make([]string, len(b.Files))
	for i, f := range b.Files {
		paths[i] = f.Path
	}
	return paths
}

// Lookup finds an admitted file by its slash path
func (b *Bundle) Lookup(path string) (File, bool) {
	for _, f := range b.Files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}

// Render formats the bundle as the context block of a prompt
func (b *Bundle) Render() string {
	var sb strings.Builder
	sb.WriteString("Codebase Context:\n")
	if b == nil {
		return sb.String()
	}
	for _, f := range b.Files {
		fmt.Fprintf(&sb, "File: %s\n%s\n\n", f.Path, f.Content)
	}
	return sb.String()
}

// Tree renders the admitted paths as an indented directory listing
func (b *Bundle) Tree() string {
	var sb strings.Builder
	seen := make(map[string]bool)
	for _, f := range b.Files {
		parts := strings.Split(f.Path, "/")
		for i := 0; i < len(parts)-1; i++ {
			dir := strings.Join(parts[:i+1], "/")
			if seen[dir] {
				continue
			}
			seen[dir] = true
			fmt.Fprintf(&sb, "%s%s/\n", strings.Repeat("  ", i), parts[i])
		}
		fmt.Fprintf(&sb, "%s%s\n", strings.Repeat("  ", len(parts)-1), parts[len(parts)-1])
	}
	return sb.String()
}
