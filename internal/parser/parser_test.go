package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCodeBlocks(t *testing.T) {
	text := "Here you go:\n```go\npackage main\n```\nand\n```\nplain\n```\n"

	blocks := ExtractCodeBlocks(text)
	require.Len(t, blocks, 2)
	assert.Equal(t, "go", blocks[0].Language)
	assert.Equal(t, "package main\n", blocks[0].Content)
	assert.Equal(t, "", blocks[1].Language)
	assert.Equal(t, "plain\n", blocks[1].Content)
}

func TestExtractCode(t *testing.T) {
	text := "```python\nprint(1)\n```\n```yaml\na: 1\n```\n"

	tests := []struct {
		name     string
		language string
		want     string
		found    bool
	}{
		{"any", "", "print(1)\n", true},
		{"yaml", "yaml", "a: 1\n", true},
		{"case insensitive", "YAML", "a: 1\n", true},
		{"missing", "rust", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractCode(text, tt.language)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstCodeBlockOr(t *testing.T) {
	assert.Equal(t, "x := 1\n", FirstCodeBlockOr("Sure:\n```go\nx := 1\n```"))
	assert.Equal(t, "just text\n", FirstCodeBlockOr("  just text  \n"))
}

func TestParseFileBlocks(t *testing.T) {
	text := "I changed two files.\n\n" +
		"FILE: src/app.py\n```python\nprint('a')\n```\n\n" +
		"**FILE: ./lib/util.js**\n```javascript\nexport const x = 1;\n```\n" +
		"FILE: src/app.py\n```python\nprint('b')\n```\n"

	blocks := ParseFileBlocks(text)
	require.Len(t, blocks, 2)

	assert.Equal(t, "src/app.py", blocks[0].Path)
	assert.Equal(t, "python", blocks[0].Language)
	assert.Equal(t, "print('b')\n", blocks[0].Content)

	assert.Equal(t, "lib/util.js", blocks[1].Path)
	assert.Equal(t, "export const x = 1;\n", blocks[1].Content)
}

func TestParseFileBlocks_None(t *testing.T) {
	assert.Empty(t, ParseFileBlocks("no files here\n```go\nx\n```"))
}

func TestParseFileBlocks_UnlabelledFence(t *testing.T) {
	blocks := ParseFileBlocks("FILE: README.md\n```\n# Title\n```")
	require.Len(t, blocks, 1)
	assert.Equal(t, "README.md", blocks[0].Path)
	assert.Equal(t, "# Title\n", blocks[0].Content)
}
