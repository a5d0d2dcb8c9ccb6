// Package project holds the blueprint the model proposes for a new project
// and the rules for running its scaffold command.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quocvuong92/zor/internal/parser"
)

// ScaffoldType describes where a scaffold command puts its files
type ScaffoldType string

const (
	ScaffoldCreatesOwnDir ScaffoldType = "CREATES_OWN_DIR"
	ScaffoldNeedsEmptyDir ScaffoldType = "NEEDS_EMPTY_DIR"
	ScaffoldInPlace       ScaffoldType = "IN_PLACE"
	ScaffoldNone          ScaffoldType = "NONE"
)

// ErrNoBlueprint means the response carried no parsable blueprint
var ErrNoBlueprint = errors.New("no project blueprint in response")

// Blueprint is the plan for a new project
type Blueprint struct {
	ProjectType      string       `yaml:"project_type"`
	MainTechnologies []string     `yaml:"main_technologies"`
	Architecture     string       `yaml:"architecture"`
	ScaffoldCommand  string       `yaml:"scaffold_command"`
	ScaffoldType     ScaffoldType `yaml:"scaffold_type"`
	Dependencies     []string     `yaml:"dependencies"`
	SetupCommands    []string     `yaml:"setup_commands"`
	FileStructure    string       `yaml:"file_structure"`
	Recommendations  []string     `yaml:"recommendations"`
}

// ParseBlueprint reads the first yaml block of a response, or the whole
// response if it has no fenced block.
func ParseBlueprint(response string) (*Blueprint, error) {
	raw, ok := parser.ExtractCode(response, "yaml")
	if !ok {
		raw, ok = parser.ExtractCode(response, "yml")
	}
	if !ok {
		raw = response
	}

	var bp Blueprint
	if err := yaml.Unmarshal([]byte(raw), &bp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBlueprint, err)
	}
	if strings.TrimSpace(bp.ProjectType) == "" {
		return nil, ErrNoBlueprint
	}
	bp.normalize()
	return &bp, nil
}

func (bp *Blueprint) normalize() {
	bp.ScaffoldType = ScaffoldType(strings.ToUpper(strings.TrimSpace(string(bp.ScaffoldType))))
	switch bp.ScaffoldType {
	case ScaffoldCreatesOwnDir, ScaffoldNeedsEmptyDir, ScaffoldInPlace:
	default:
		bp.ScaffoldType = ScaffoldNone
	}
	bp.ScaffoldCommand = strings.TrimSpace(bp.ScaffoldCommand)
	if strings.EqualFold(bp.ScaffoldCommand, "none") {
		bp.ScaffoldCommand = ""
	}
	bp.SetupCommands = cleanCommands(bp.SetupCommands)
}

// HasScaffold reports whether a scaffold command should be offered
func (bp *Blueprint) HasScaffold() bool {
	return bp.ScaffoldCommand != ""
}

// String renders the blueprint for display
func (bp *Blueprint) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Project type: %s\n", bp.ProjectType)
	writeList(&sb, "Main technologies", bp.MainTechnologies)
	if bp.Architecture != "" {
		fmt.Fprintf(&sb, "\nArchitecture:\n%s\n", strings.TrimSpace(bp.Architecture))
	}
	if bp.HasScaffold() {
		fmt.Fprintf(&sb, "\nScaffold: %s (%s)\n", bp.ScaffoldCommand, bp.ScaffoldType)
	}
	writeList(&sb, "Dependencies", bp.Dependencies)
	writeList(&sb, "Setup commands", bp.SetupCommands)
	if bp.FileStructure != "" {
		fmt.Fprintf(&sb, "\nFile structure:\n%s\n", strings.TrimRight(bp.FileStructure, "\n"))
	}
	writeList(&sb, "Recommendations", bp.Recommendations)
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "  - %s\n", item)
	}
}

func cleanCommands(commands []string) []string {
	out := make([]string, 0, len(commands))
	for _, c := range commands {
		c = strings.TrimSpace(c)
		if c == "" || strings.HasPrefix(c, "#") {
			continue
		}
		out = append(out, c)
	}
	return out
}

const (
	projectNamePlaceholder = "{project_name}"
	projectDirPlaceholder  = "{project_dir}"
)

// ScaffoldPlan is the command to run and the directory to run it in
type ScaffoldPlan struct {
	Command string
	Dir     string
}

// PlanScaffold substitutes placeholders and picks the working directory.
// Commands that create their own directory run in the parent and get the
// project name appended when they do not already name a target.
func (bp *Blueprint) PlanScaffold(projectDir string) ScaffoldPlan {
	name := filepath.Base(projectDir)
	cmd := bp.ScaffoldCommand
	hasPlaceholder := strings.Contains(cmd, projectNamePlaceholder) || strings.Contains(cmd, projectDirPlaceholder)
	cmd = strings.ReplaceAll(cmd, projectNamePlaceholder, name)
	cmd = strings.ReplaceAll(cmd, projectDirPlaceholder, projectDir)

	if bp.ScaffoldType != ScaffoldCreatesOwnDir {
		return ScaffoldPlan{Command: cmd, Dir: projectDir}
	}
	if !hasPlaceholder && !namesTarget(cmd) {
		cmd = cmd + " " + name
	}
	return ScaffoldPlan{Command: cmd, Dir: filepath.Dir(projectDir)}
}

// namesTarget reports whether a command has a positional argument after the
// tool itself, e.g. "npx create-react-app my-app"
func namesTarget(cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) < 2 {
		return false
	}
	start := 1
	if isRunner(fields[0]) {
		start = 2
	}
	// "npm init vue@latest" style: the package name is not a target
	if isPackageManager(fields[0]) && len(fields) > 2 && (fields[1] == "init" || fields[1] == "create") {
		start = 3
	}
	for _, f := range fields[min(start, len(fields)):] {
		if !strings.HasPrefix(f, "-") && !strings.Contains(f, "/") && !strings.Contains(f, "=") {
			return true
		}
	}
	return false
}

func isPackageManager(tool string) bool {
	switch tool {
	case "npm", "yarn", "pnpm", "bun":
		return true
	}
	return false
}

func isRunner(tool string) bool {
	switch tool {
	case "npx", "pnpx", "bunx", "uvx", "pipx":
		return true
	}
	return false
}

var nameIndicator = regexp.MustCompile(`(?i)\b(?:called|named|name|project)\s+["']?([\w.-]+)`)

// SuggestName derives a directory name from a project description
func SuggestName(description string) string {
	if m := nameIndicator.FindStringSubmatch(description); m != nil {
		return strings.ToLower(m[1])
	}
	fields := strings.Fields(strings.ToLower(description))
	if len(fields) == 0 {
		return "new-project"
	}
	name := strings.Trim(fields[0], `"'.,:;!?`)
	if name == "" {
		return "new-project"
	}
	return name
}
