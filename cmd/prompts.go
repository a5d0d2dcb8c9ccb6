package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxDiffBytes caps the staged diff sent when proposing a commit message
const maxDiffBytes = 60000

func editPrompt(path, content, instruction string) string {
	return fmt.Sprintf(`Modify the file %s to: %s
Return only the complete new file content in a single fenced code block.

Target file %s:
%s`, path, instruction, path, fence(languageFor(path), content))
}

func generateTestPrompt(path, content, framework string) string {
	return fmt.Sprintf(`Generate comprehensive unit tests for the following file using %s.
The tests should cover all functions and edge cases.
Return only the test code in a single fenced code block, without explanations.

File to test (%s):
%s

Existing codebase context is available for reference.`, framework, path, fence(languageFor(path), content))
}

func refactorPrompt(instruction string) string {
	return fmt.Sprintf(`You are helping with a refactoring task across multiple files.

Task description: %s

For each file that needs to be modified or created, give the file path
relative to the project root and the complete new content of that file.

Format your response like this:

FILE: path/to/file1
`+"```"+`
complete content of file1
`+"```"+`

FILE: path/to/file2
`+"```"+`
complete content of file2
`+"```"+`

Only include files that need to be changed. Do not include any explanations outside of the file blocks.`, instruction)
}

func commitMessagePrompt(diff string) string {
	if len(diff) > maxDiffBytes {
		diff = diff[:maxDiffBytes] + "\n... (diff truncated)"
	}
	return fmt.Sprintf(`Write a git commit message for the staged changes below.
Use an imperative subject line under 72 characters, optionally followed by a
blank line and a short body. Return only the message, without a code fence.

%s`, fence("diff", diff))
}

func initPlanPrompt(description string) string {
	return fmt.Sprintf(`I need to create a new project with this description: %q

Provide a project blueprint as a single YAML document in a `+"```yaml"+` fenced block
with exactly these keys:

project_type: short name of the project type
main_technologies: [language, framework, libraries]
architecture: brief description of the recommended architecture
scaffold_command: official scaffolding command, or NONE
scaffold_type: one of CREATES_OWN_DIR, NEEDS_EMPTY_DIR, IN_PLACE, NONE
dependencies: [key dependencies with versions if applicable]
setup_commands: [commands to install dependencies and prepare the project]
file_structure: |
  tree of directories and files to create
recommendations: [development environment and workflow recommendations]

Use {project_name} in scaffold_command where the project name belongs.
Examples: "npx create-react-app {project_name}", "django-admin startproject {project_name}",
"flutter create {project_name}", "cargo init".

scaffold_type describes how the scaffold command behaves:
- CREATES_OWN_DIR: the command creates its own directory
- NEEDS_EMPTY_DIR: the command must run inside an empty directory
- IN_PLACE: the command adds files to the current directory
- NONE: no scaffolding command is needed`, description)
}

func initFilesPrompt(description, projectType string, scaffolded bool) string {
	intro := "No scaffolding command was executed. Provide a complete set of files for a functioning project."
	if scaffolded {
		intro = "A scaffolding command already created the basic project structure. " +
			"Focus on customizing and extending it; do not recreate files the scaffolding tool generates."
	}
	return fmt.Sprintf(`Based on the project description: %q
and the identified project type: %s

%s

For each file give its path relative to the project root and its complete content:

FILE: path/to/file1
`+"```"+`
content of file1
`+"```"+`

Always include a README.md with a description, setup instructions and usage examples.
Include configuration files such as .gitignore where appropriate.
Provide complete, working code with no placeholders.`, description, projectType, intro)
}

// fence wraps content in a markdown code block
func fence(lang, content string) string {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return "```" + lang + "\n" + content + "```"
}

// languageFor guesses a fence language from a file extension
func languageFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	case ".rb":
		return "ruby"
	case ".sh":
		return "bash"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".md":
		return "markdown"
	default:
		return ""
	}
}
