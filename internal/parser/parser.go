// Package parser extracts fenced code blocks and FILE blocks from model responses.
package parser

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	codeBlockRegex = regexp.MustCompile("(?s)```([\\w.+#-]*)[^\\n]*\\n(.*?)```")
	fileBlockRegex = regexp.MustCompile("(?s)(?:^|\\n)[ \\t]*(?:\\*\\*)?FILE:[ \\t]*([^\\n]+?)(?:\\*\\*)?[ \\t]*\\n[ \\t]*```([\\w.+#-]*)[^\\n]*\\n(.*?)```")
)

// CodeBlock represents a fenced code block
type CodeBlock struct {
	Language string
	Content  string
	Raw      string
}

// FileBlock is a code block labelled with the file it belongs to
type FileBlock struct {
	Path     string
	Language string
	Content  string
}

// ExtractCodeBlocks finds all fenced code blocks in text
func ExtractCodeBlocks(text string) []CodeBlock {
	matches := codeBlockRegex.FindAllStringSubmatch(text, -1)
	blocks := make([]CodeBlock, 0, len(matches))
	for _, match := range matches {
		blocks = append(blocks, CodeBlock{
			Language: strings.ToLower(match[1]),
			Content:  match[2],
			Raw:      match[0],
		})
	}
	return blocks
}

// ExtractCode returns the first block in language, or the first block of
// any language if language is empty.
func ExtractCode(text, language string) (string, bool) {
	for _, block := range ExtractCodeBlocks(text) {
		if language == "" || block.Language == strings.ToLower(language) {
			return block.Content, true
		}
	}
	return "", false
}

// FirstCodeBlockOr returns the first fenced block, or the trimmed text when
// the response has none.
func FirstCodeBlockOr(text string) string {
	if code, ok := ExtractCode(text, ""); ok {
		return code
	}
	return strings.TrimSpace(text) + "\n"
}

// ParseFileBlocks finds "FILE: path" headers followed by a fenced block.
// Later blocks for the same path replace earlier ones.
func ParseFileBlocks(text string) []FileBlock {
	matches := fileBlockRegex.FindAllStringSubmatch(text, -1)
	blocks := make([]FileBlock, 0, len(matches))
	index := make(map[string]int, len(matches))
	for _, match := range matches {
		path := cleanPath(match[1])
		if path == "" {
			continue
		}
		block := FileBlock{Path: path, Language: strings.ToLower(match[2]), Content: match[3]}
		if i, ok := index[path]; ok {
			blocks[i] = block
			continue
		}
		index[path] = len(blocks)
		blocks = append(blocks, block)
	}
	return blocks
}

func cleanPath(raw string) string {
	p := strings.TrimSpace(raw)
	p = strings.Trim(p, "`*\"'")
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(p)))
}
