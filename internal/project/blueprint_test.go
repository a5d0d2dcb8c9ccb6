package project

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = "Here is the plan:\n\n```yaml\n" +
	"project_type: React web app\n" +
	"main_technologies: [react, typescript]\n" +
	"architecture: Component based SPA\n" +
	"scaffold_command: npx create-react-app\n" +
	"scaffold_type: creates_own_dir\n" +
	"dependencies:\n  - react-router\n" +
	"setup_commands:\n  - npm install\n  - \"# comment\"\n  - \"\"\n  - npm test\n" +
	"file_structure: |\n  src/\n    App.tsx\n" +
	"recommendations:\n  - Use ESLint\n" +
	"```\n"

func TestParseBlueprint(t *testing.T) {
	bp, err := ParseBlueprint(sampleResponse)
	require.NoError(t, err)

	assert.Equal(t, "React web app", bp.ProjectType)
	assert.Equal(t, []string{"react", "typescript"}, bp.MainTechnologies)
	assert.Equal(t, ScaffoldCreatesOwnDir, bp.ScaffoldType)
	assert.Equal(t, []string{"npm install", "npm test"}, bp.SetupCommands)
	assert.True(t, bp.HasScaffold())
	assert.Contains(t, bp.String(), "Project type: React web app")
	assert.Contains(t, bp.String(), "App.tsx")
}

func TestParseBlueprint_NoneScaffold(t *testing.T) {
	bp, err := ParseBlueprint("project_type: CLI\nscaffold_command: NONE\nscaffold_type: whatever\n")
	require.NoError(t, err)
	assert.False(t, bp.HasScaffold())
	assert.Equal(t, ScaffoldNone, bp.ScaffoldType)
}

func TestParseBlueprint_Invalid(t *testing.T) {
	tests := []string{
		"I cannot help with that.",
		"```yaml\narchitecture: x\n```",
		"```yaml\n: : :\n```",
	}
	for _, in := range tests {
		_, err := ParseBlueprint(in)
		assert.True(t, errors.Is(err, ErrNoBlueprint), "ParseBlueprint(%q) = %v", in, err)
	}
}

func TestPlanScaffold(t *testing.T) {
	dir := filepath.Join("/work", "my-app")

	tests := []struct {
		name    string
		bp      Blueprint
		wantCmd string
		wantDir string
	}{
		{
			name:    "creates own dir appends name",
			bp:      Blueprint{ScaffoldCommand: "npx create-react-app", ScaffoldType: ScaffoldCreatesOwnDir},
			wantCmd: "npx create-react-app my-app",
			wantDir: "/work",
		},
		{
			name:    "creates own dir keeps explicit target",
			bp:      Blueprint{ScaffoldCommand: "npx create-next-app web", ScaffoldType: ScaffoldCreatesOwnDir},
			wantCmd: "npx create-next-app web",
			wantDir: "/work",
		},
		{
			name:    "npm init package name is not a target",
			bp:      Blueprint{ScaffoldCommand: "npm init vue@latest", ScaffoldType: ScaffoldCreatesOwnDir},
			wantCmd: "npm init vue@latest my-app",
			wantDir: "/work",
		},
		{
			name:    "flutter create keeps target",
			bp:      Blueprint{ScaffoldCommand: "flutter create demo", ScaffoldType: ScaffoldCreatesOwnDir},
			wantCmd: "flutter create demo",
			wantDir: "/work",
		},
		{
			name:    "placeholder",
			bp:      Blueprint{ScaffoldCommand: "rails new {project_name}", ScaffoldType: ScaffoldCreatesOwnDir},
			wantCmd: "rails new my-app",
			wantDir: "/work",
		},
		{
			name:    "in place",
			bp:      Blueprint{ScaffoldCommand: "go mod init example.com/app", ScaffoldType: ScaffoldInPlace},
			wantCmd: "go mod init example.com/app",
			wantDir: dir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.bp.PlanScaffold(dir)
			assert.Equal(t, tt.wantCmd, got.Command)
			assert.Equal(t, filepath.FromSlash(tt.wantDir), got.Dir)
		})
	}
}

func TestSuggestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a todo app called Tasker with React", "tasker"},
		{"Flask API named inventory-service", "inventory-service"},
		{"blog, with comments", "blog"},
		{"", "new-project"},
	}
	for _, tt := range tests {
		if got := SuggestName(tt.in); got != tt.want {
			t.Errorf("SuggestName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
