package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// testDirs returns an isolated project root and global dir with no
// environment overrides leaking in from the developer's shell
func testDirs(t *testing.T) (string, string) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	return t.TempDir(), t.TempDir()
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func readJSON(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

// ===== Load Tests =====

func TestLoad_Defaults(t *testing.T) {
	root, global := testDirs(t)

	cfg, _, err := Load(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.Provider)
	}
	if cfg.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %q, want gemini-2.0-flash", cfg.Model)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", cfg.Temperature)
	}
	if cfg.MaxTokens != 8192 {
		t.Errorf("MaxTokens = %d, want 8192", cfg.MaxTokens)
	}
	if !cfg.BackupFiles {
		t.Error("BackupFiles should default to true")
	}
	if cfg.RateLimitRetries != 3 {
		t.Errorf("RateLimitRetries = %d, want 3", cfg.RateLimitRetries)
	}
	if cfg.RetryBaseDelay != time.Second {
		t.Errorf("RetryBaseDelay = %v, want 1s", cfg.RetryBaseDelay)
	}
	if cfg.MaxFileBytes != 1<<20 {
		t.Errorf("MaxFileBytes = %d, want 1MiB", cfg.MaxFileBytes)
	}
	if cfg.HistoryBackend != "json" {
		t.Errorf("HistoryBackend = %q, want json", cfg.HistoryBackend)
	}
	wantDirs := []string{"node_modules", ".venv", "venv", ".git", "__pycache__", "dist", "build", ".pytest_cache", ".next"}
	if !reflect.DeepEqual(cfg.ExcludeDirs, wantDirs) {
		t.Errorf("ExcludeDirs = %v, want %v", cfg.ExcludeDirs, wantDirs)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
	if cfg.HistoryDir() != filepath.Join(global, "history") {
		t.Errorf("HistoryDir() = %q", cfg.HistoryDir())
	}
}

func TestLoad_ProjectShadowsGlobal(t *testing.T) {
	root, global := testDirs(t)

	writeJSON(t, GlobalConfigPath(global), map[string]interface{}{
		"model":        "gemini-1.5-pro",
		"temperature":  0.7,
		"exclude_dirs": []string{"vendor"},
	})
	writeJSON(t, ProjectConfigPath(root), map[string]interface{}{
		"temperature":        0.1,
		"rate_limit_retries": 5,
		"future_option":      map[string]interface{}{"nested": true},
	})

	cfg, store, err := Load(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model != "gemini-1.5-pro" {
		t.Errorf("Model = %q, want global value", cfg.Model)
	}
	if cfg.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want project value 0.1", cfg.Temperature)
	}
	if cfg.RateLimitRetries != 5 {
		t.Errorf("RateLimitRetries = %d, want 5", cfg.RateLimitRetries)
	}
	if !reflect.DeepEqual(cfg.ExcludeDirs, []string{"vendor"}) {
		t.Errorf("ExcludeDirs = %v, want [vendor]", cfg.ExcludeDirs)
	}

	_, src, err := store.Get("temperature")
	if err != nil || src != ScopeProject {
		t.Errorf("Get(temperature) source = %v, err = %v, want project", src, err)
	}
	_, src, _ = store.Get("model")
	if src != ScopeGlobal {
		t.Errorf("Get(model) source = %v, want global", src)
	}
	_, src, _ = store.Get("max_tokens")
	if src != ScopeDefault {
		t.Errorf("Get(max_tokens) source = %v, want default", src)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantKey string
	}{
		{"malformed json", `{"model": `, ""},
		{"wrong type", `{"max_tokens": "lots"}`, "max_tokens"},
		{"fractional int", `{"max_tokens": 10.5}`, "max_tokens"},
		{"list of numbers", `{"exclude_dirs": [1, 2]}`, "exclude_dirs"},
		{"out of range", `{"temperature": 3}`, "temperature"},
		{"bad provider", `{"provider": "mystery"}`, "provider"},
		{"zero retries", `{"rate_limit_retries": 0}`, "rate_limit_retries"},
		{"bad backend", `{"history_backend": "redis"}`, "history_backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, global := testDirs(t)
			path := ProjectConfigPath(root)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			_, _, err := Load(Options{ProjectRoot: root, GlobalDir: global})
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("Load() error = %v, want *ConfigError", err)
			}
			if cerr.Key != tt.wantKey {
				t.Errorf("ConfigError.Key = %q, want %q", cerr.Key, tt.wantKey)
			}
			if cerr.Path != path {
				t.Errorf("ConfigError.Path = %q, want %q", cerr.Path, path)
			}
		})
	}
}

func TestLoad_EmptyFileIsAccepted(t *testing.T) {
	root, global := testDirs(t)
	if err := os.WriteFile(ProjectConfigPath(root), []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(Options{ProjectRoot: root, GlobalDir: global}); err != nil {
		t.Errorf("Load() with empty file error = %v", err)
	}
}

// ===== API Key Resolution Tests =====

func TestLoad_APIKeyResolution(t *testing.T) {
	t.Run("dotenv", func(t *testing.T) {
		root, global := testDirs(t)
		if err := os.WriteFile(filepath.Join(root, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, _, err := Load(Options{ProjectRoot: root, GlobalDir: global})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.APIKey != "from-dotenv" {
			t.Errorf("APIKey = %q, want from-dotenv", cfg.APIKey)
		}
	})

	t.Run("environment beats dotenv", func(t *testing.T) {
		root, global := testDirs(t)
		if err := os.WriteFile(filepath.Join(root, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("GEMINI_API_KEY", "from-env")
		cfg, _, err := Load(Options{ProjectRoot: root, GlobalDir: global})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.APIKey != "from-env" {
			t.Errorf("APIKey = %q, want from-env", cfg.APIKey)
		}
	})

	t.Run("config beats environment", func(t *testing.T) {
		root, global := testDirs(t)
		t.Setenv("GEMINI_API_KEY", "from-env")
		writeJSON(t, GlobalConfigPath(global), map[string]interface{}{"api_key": "from-config"})
		cfg, _, err := Load(Options{ProjectRoot: root, GlobalDir: global})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.APIKey != "from-config" {
			t.Errorf("APIKey = %q, want from-config", cfg.APIKey)
		}
	})

	t.Run("openai provider reads its own variable", func(t *testing.T) {
		root, global := testDirs(t)
		t.Setenv("GEMINI_API_KEY", "gemini-key")
		t.Setenv("OPENAI_API_KEY", "openai-key")
		writeJSON(t, ProjectConfigPath(root), map[string]interface{}{"provider": "openai", "model": "gpt-4o-mini"})
		cfg, _, err := Load(Options{ProjectRoot: root, GlobalDir: global})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.APIKey != "openai-key" {
			t.Errorf("APIKey = %q, want openai-key", cfg.APIKey)
		}
	})
}

func TestRequireAPIKey(t *testing.T) {
	cfg := &Config{Provider: "gemini"}
	err := cfg.RequireAPIKey()
	var cerr *ConfigError
	if !errors.As(err, &cerr) || cerr.Key != KeyAPIKey {
		t.Fatalf("RequireAPIKey() error = %v, want ConfigError for api_key", err)
	}

	cfg.APIKey = "k"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("RequireAPIKey() with key error = %v", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	root, global := testDirs(t)
	writeJSON(t, ProjectConfigPath(root), map[string]interface{}{"model": "from-file"})
	t.Setenv("ZOR_MODEL", "from-env")

	cfg, store, err := Load(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "from-env" {
		t.Errorf("Model = %q, want from-env", cfg.Model)
	}
	if _, src, _ := store.Get("model"); src != ScopeEnv {
		t.Errorf("Get(model) source = %v, want env", src)
	}
}

// ===== Set Tests =====

func TestStore_SetCoercesByKind(t *testing.T) {
	root, global := testDirs(t)
	store, err := Open(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	sets := []struct{ key, raw string }{
		{"backup_files", "false"},
		{"max_tokens", "4096"},
		{"temperature", "0.5"},
		{"exclude_dirs", "vendor, node_modules ,,"},
		{"model", "gemini-1.5-flash"},
	}
	for _, s := range sets {
		if err := store.Set(ScopeProject, s.key, s.raw); err != nil {
			t.Fatalf("Set(%s, %s) error = %v", s.key, s.raw, err)
		}
	}

	cfg, err := store.Config()
	if err != nil {
		t.Fatalf("Config() error = %v", err)
	}
	if cfg.BackupFiles {
		t.Error("BackupFiles = true, want false")
	}
	if cfg.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want 4096", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.5 {
		t.Errorf("Temperature = %v, want 0.5", cfg.Temperature)
	}
	if !reflect.DeepEqual(cfg.ExcludeDirs, []string{"vendor", "node_modules"}) {
		t.Errorf("ExcludeDirs = %v", cfg.ExcludeDirs)
	}

	saved := readJSON(t, ProjectConfigPath(root))
	if saved["max_tokens"] != float64(4096) || saved["backup_files"] != false {
		t.Errorf("saved file = %v", saved)
	}

	reopened, err := Open(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	cfg2, err := reopened.Config()
	if err != nil {
		t.Fatalf("Config() after reopen error = %v", err)
	}
	if cfg2.Model != "gemini-1.5-flash" {
		t.Errorf("Model after reopen = %q", cfg2.Model)
	}
}

func TestStore_SetRejects(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		raw         string
		wantUnknown bool
	}{
		{"unknown key", "colour", "blue", true},
		{"bad bool", "backup_files", "maybe", false},
		{"bad int", "max_tokens", "many", false},
		{"invalid range", "temperature", "9", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, global := testDirs(t)
			store, err := Open(Options{ProjectRoot: root, GlobalDir: global})
			if err != nil {
				t.Fatal(err)
			}

			err = store.Set(ScopeGlobal, tt.key, tt.raw)
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("Set() error = %v, want *ConfigError", err)
			}
			if errors.Is(err, ErrUnknownKey) != tt.wantUnknown {
				t.Errorf("errors.Is(ErrUnknownKey) = %v, want %v", !tt.wantUnknown, tt.wantUnknown)
			}
			if _, statErr := os.Stat(GlobalConfigPath(global)); !os.IsNotExist(statErr) {
				t.Error("rejected Set should not create the config file")
			}
		})
	}
}

func TestStore_SetPreservesUnknownKeys(t *testing.T) {
	root, global := testDirs(t)
	writeJSON(t, GlobalConfigPath(global), map[string]interface{}{
		"Custom_Flag": "keep me",
		"model":       "gemini-1.5-pro",
	})

	store, err := Open(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ScopeGlobal, "history_size", "20"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	saved := readJSON(t, GlobalConfigPath(global))
	if saved["Custom_Flag"] != "keep me" {
		t.Errorf("unknown key lost or renamed: %v", saved)
	}
	if saved["history_size"] != float64(20) {
		t.Errorf("history_size = %v, want 20", saved["history_size"])
	}

	info, err := os.Stat(GlobalConfigPath(global))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("global config mode = %o, want 600", info.Mode().Perm())
	}
}

func TestStore_Unset(t *testing.T) {
	root, global := testDirs(t)
	writeJSON(t, GlobalConfigPath(global), map[string]interface{}{"model": "global-model"})
	writeJSON(t, ProjectConfigPath(root), map[string]interface{}{"model": "project-model"})

	store, err := Open(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Unset(ScopeProject, "model"); err != nil {
		t.Fatalf("Unset() error = %v", err)
	}
	cfg, err := store.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "global-model" {
		t.Errorf("Model after unset = %q, want global-model", cfg.Model)
	}
}

func TestStore_DefaultScope(t *testing.T) {
	root, global := testDirs(t)
	store, err := Open(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatal(err)
	}
	if got := store.DefaultScope(); got != ScopeGlobal {
		t.Errorf("DefaultScope() without project file = %v, want global", got)
	}

	writeJSON(t, ProjectConfigPath(root), map[string]interface{}{})
	store, err = Open(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatal(err)
	}
	if got := store.DefaultScope(); got != ScopeProject {
		t.Errorf("DefaultScope() with project file = %v, want project", got)
	}
}

func TestStore_Entries(t *testing.T) {
	root, global := testDirs(t)
	writeJSON(t, ProjectConfigPath(root), map[string]interface{}{
		"api_key": "AIzaSyExample1234",
		"zeta":    1,
		"alpha":   2,
	})

	store, err := Open(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatal(err)
	}
	entries := store.Entries()

	if len(entries) != len(Keys)+2 {
		t.Fatalf("Entries() returned %d entries, want %d", len(entries), len(Keys)+2)
	}
	if entries[0].Key != KeyProvider {
		t.Errorf("first entry = %q, want provider", entries[0].Key)
	}
	last := entries[len(entries)-2:]
	if last[0].Key != "alpha" || last[1].Key != "zeta" || last[0].Known {
		t.Errorf("unknown entries = %+v, want alpha then zeta", last)
	}
	for _, e := range entries {
		if e.Key == KeyAPIKey && (!e.Secret || e.Source != ScopeProject) {
			t.Errorf("api_key entry = %+v", e)
		}
	}
}

// ===== Key Tests =====

func TestKey_Parse(t *testing.T) {
	tests := []struct {
		key     string
		raw     string
		want    interface{}
		wantErr bool
	}{
		{"backup_files", "true", true, false},
		{"backup_files", "yes", nil, true},
		{"history_size", "12", 12, false},
		{"temperature", "1.5", 1.5, false},
		{"exclude_files", "*.log,*.tmp", []string{"*.log", "*.tmp"}, false},
		{"exclude_files", "", []string{}, false},
		{"model", "  gpt-4o ", "gpt-4o", false},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.raw, func(t *testing.T) {
			k, ok := LookupKey(tt.key)
			if !ok {
				t.Fatalf("LookupKey(%q) not found", tt.key)
			}
			got, err := k.Parse(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "****"},
		{"AIzaSyExample1234", "AIza...1234"},
	}
	for _, tt := range tests {
		if got := MaskSecret(tt.in); got != tt.want {
			t.Errorf("MaskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGlobalDir(t *testing.T) {
	t.Setenv("ZOR_CONFIG_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := GlobalDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join("/tmp/xdg", "zor") {
		t.Errorf("GlobalDir() = %q, want /tmp/xdg/zor", got)
	}

	t.Setenv("ZOR_CONFIG_DIR", "/tmp/explicit")
	if got, _ := GlobalDir(); got != "/tmp/explicit" {
		t.Errorf("GlobalDir() with override = %q", got)
	}
}

func TestStore_Override(t *testing.T) {
	root, global := testDirs(t)
	writeJSON(t, ProjectConfigPath(root), map[string]interface{}{"model": "from-project"})
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	store, err := Open(Options{ProjectRoot: root, GlobalDir: global})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Override("model", "from-flag"); err != nil {
		t.Fatalf("Override() error = %v", err)
	}
	if err := store.Override("provider", "openai"); err != nil {
		t.Fatalf("Override() error = %v", err)
	}

	cfg, err := store.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "from-flag" {
		t.Errorf("Model = %q, want from-flag", cfg.Model)
	}
	if cfg.APIKey != "sk-openai" {
		t.Errorf("APIKey = %q, want the openai key after switching provider", cfg.APIKey)
	}
	if _, src, _ := store.Get("model"); src != ScopeFlag {
		t.Errorf("source = %v, want flag", src)
	}

	// Invalid overrides are rejected and leave the previous value
	if err := store.Override("provider", "azure"); err == nil {
		t.Error("Override(provider, azure) should fail validation")
	}
	if cfg, _ := store.Config(); cfg.Provider != "openai" {
		t.Errorf("Provider = %q after rejected override, want openai", cfg.Provider)
	}

	// Nothing reaches disk
	if got := readJSON(t, ProjectConfigPath(root))["model"]; got != "from-project" {
		t.Errorf("project file model = %v, want from-project", got)
	}
}
