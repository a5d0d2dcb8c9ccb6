package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/quocvuong92/zor/internal/constants"
	"github.com/quocvuong92/zor/internal/executor"
)

// envPrefix namespaces environment overrides, e.g. ZOR_MODEL
const envPrefix = "ZOR"

// Scope identifies where a value came from or where it is written
type Scope int

const (
	ScopeDefault Scope = iota
	ScopeGlobal
	ScopeProject
	ScopeEnv
	ScopeFlag
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeProject:
		return "project"
	case ScopeEnv:
		return "env"
	case ScopeFlag:
		return "flag"
	default:
		return "default"
	}
}

// Options locates the config files
type Options struct {
	// ProjectRoot holds .zor_config.json and .env; defaults to the working directory
	ProjectRoot string
	// GlobalDir overrides GlobalDir()
	GlobalDir string
}

// Entry is one row of `zor config` output
type Entry struct {
	Key    string
	Value  interface{}
	Source Scope
	Secret bool
	Known  bool
}

// layer is the raw content of one JSON file. Unknown keys are kept as-is so
// saving never drops settings other tools or versions wrote.
type layer struct {
	scope  Scope
	path   string
	data   map[string]interface{}
	exists bool
}

// Store loads and persists the global and project layers
type Store struct {
	mu          sync.RWMutex
	global      *layer
	project     *layer
	dotenv      map[string]string
	overrides   map[string]interface{}
	projectRoot string
	globalDir   string
}

// Open reads both layers and the project .env. Missing files are not an error.
func Open(opts Options) (*Store, error) {
	root := opts.ProjectRoot
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, &ConfigError{Message: "cannot determine working directory", Err: err}
		}
		root = cwd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &ConfigError{Message: "invalid project root", Err: err}
	}

	globalDir := opts.GlobalDir
	if globalDir == "" {
		globalDir, err = GlobalDir()
		if err != nil {
			return nil, &ConfigError{Message: "cannot determine global config directory", Err: err}
		}
	}

	s := &Store{projectRoot: absRoot, globalDir: globalDir}

	if s.global, err = loadLayer(ScopeGlobal, GlobalConfigPath(globalDir)); err != nil {
		return nil, err
	}
	if s.project, err = loadLayer(ScopeProject, ProjectConfigPath(absRoot)); err != nil {
		return nil, err
	}
	if s.dotenv, err = readDotEnv(filepath.Join(absRoot, constants.DotEnvFile)); err != nil {
		return nil, err
	}

	return s, nil
}

// Load opens the store and resolves the effective Config in one step
func Load(opts Options) (*Config, *Store, error) {
	store, err := Open(opts)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := store.Config()
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func loadLayer(scope Scope, path string) (*layer, error) {
	l := &layer{scope: scope, path: path, data: map[string]interface{}{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Message: "cannot read file", Err: err}
	}
	l.exists = true

	if len(strings.TrimSpace(string(raw))) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(raw, &l.data); err != nil {
		return nil, &ConfigError{Path: path, Message: "malformed JSON", Err: err}
	}
	if l.data == nil {
		l.data = map[string]interface{}{}
	}

	for name, v := range l.data {
		key, ok := LookupKey(name)
		if !ok {
			continue
		}
		if err := key.check(v); err != nil {
			return nil, &ConfigError{Key: name, Path: path, Message: err.Error()}
		}
	}

	return l, nil
}

// readDotEnv parses KEY=VALUE lines with viper's dotenv codec
func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		return map[string]string{}, nil
	}

	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return nil, &ConfigError{Path: path, Message: "malformed .env file", Err: err}
	}

	values := make(map[string]string)
	for _, k := range ev.AllKeys() {
		values[strings.ToUpper(k)] = ev.GetString(k)
	}
	return values, nil
}

// resolver merges defaults, global, project and ZOR_* environment, in that order
func (s *Store) resolver() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	for _, k := range Keys {
		v.SetDefault(k.Name, k.Default)
	}
	for _, l := range []*layer{s.global, s.project} {
		if len(l.data) > 0 {
			// MergeConfigMap lower-cases keys in place, so hand it a copy
			_ = v.MergeConfigMap(cloneMap(l.data))
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for name, val := range s.overrides {
		v.Set(name, val)
	}
	return v
}

// Override sets key for this invocation only, above every other layer.
// Command-line flags use it; nothing is written to disk.
func (s *Store) Override(key, raw string) error {
	k, ok := LookupKey(key)
	if !ok {
		return &ConfigError{Key: key, Message: "not a recognised setting", Err: ErrUnknownKey}
	}
	value, err := k.Parse(raw)
	if err != nil {
		return &ConfigError{Key: k.Name, Message: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.overrides[k.Name]
	if s.overrides == nil {
		s.overrides = map[string]interface{}{}
	}
	s.overrides[k.Name] = value
	if _, err := s.buildConfig(); err != nil {
		if had {
			s.overrides[k.Name] = prev
		} else {
			delete(s.overrides, k.Name)
		}
		return err
	}
	return nil
}

// Config resolves and validates the effective configuration
func (s *Store) Config() (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buildConfig()
}

func (s *Store) buildConfig() (*Config, error) {
	v := s.resolver()

	cfg := &Config{
		Provider:         strings.ToLower(strings.TrimSpace(v.GetString(KeyProvider))),
		Model:            strings.TrimSpace(v.GetString(KeyModel)),
		Temperature:      v.GetFloat64(KeyTemperature),
		MaxTokens:        v.GetInt(KeyMaxTokens),
		ExcludeDirs:      v.GetStringSlice(KeyExcludeDirs),
		ExcludeFiles:     v.GetStringSlice(KeyExcludeFiles),
		ContextMaxBytes:  v.GetInt64(KeyContextMaxBytes),
		MaxFileBytes:     v.GetInt64(KeyMaxFileBytes),
		BackupFiles:      v.GetBool(KeyBackupFiles),
		HistorySize:      v.GetInt(KeyHistorySize),
		HistoryBackend:   strings.ToLower(strings.TrimSpace(v.GetString(KeyHistoryBackend))),
		RateLimitRetries: v.GetInt(KeyRateLimitRetries),
		RetryBaseDelay:   time.Duration(v.GetInt(KeyRetryBaseDelayMS)) * time.Millisecond,
		RetryMaxDelay:    time.Duration(v.GetInt(KeyRetryMaxDelayMS)) * time.Millisecond,
		RetryJitter:      v.GetBool(KeyRetryJitter),
		RequestTimeout:   time.Duration(v.GetInt(KeyRequestTimeoutSec)) * time.Second,
		APIBaseURL:       strings.TrimRight(strings.TrimSpace(v.GetString(KeyAPIBaseURL)), "/"),
		ProjectRoot:      s.projectRoot,
		GlobalDir:        s.globalDir,
	}
	cfg.APIKey = s.resolveAPIKey(cfg.Provider, v.GetString(KeyAPIKey))

	if err := cfg.Validate(); err != nil {
		var cerr *ConfigError
		if errors.As(err, &cerr) && cerr.Path == "" {
			cerr.Path = s.pathOf(cerr.Key)
		}
		return nil, err
	}

	return cfg, nil
}

// resolveAPIKey prefers an explicit api_key, then the provider's environment
// variable, then the same variable from the project .env
func (s *Store) resolveAPIKey(provider, configured string) string {
	if key := strings.TrimSpace(configured); key != "" {
		return key
	}
	env := APIKeyEnv(provider)
	if key := strings.TrimSpace(os.Getenv(env)); key != "" {
		return key
	}
	return strings.TrimSpace(s.dotenv[env])
}

// pathOf returns the file that supplies key, if any
func (s *Store) pathOf(key string) string {
	switch s.sourceOf(key) {
	case ScopeProject:
		return s.project.path
	case ScopeGlobal:
		return s.global.path
	default:
		return ""
	}
}

func (s *Store) sourceOf(key string) Scope {
	if _, ok := s.overrides[key]; ok {
		return ScopeFlag
	}
	if _, ok := os.LookupEnv(envPrefix + "_" + strings.ToUpper(key)); ok {
		return ScopeEnv
	}
	if _, ok := s.project.data[key]; ok {
		return ScopeProject
	}
	if _, ok := s.global.data[key]; ok {
		return ScopeGlobal
	}
	return ScopeDefault
}

// Get returns the effective value of a recognised key and where it came from
func (s *Store) Get(key string) (interface{}, Scope, error) {
	k, ok := LookupKey(key)
	if !ok {
		return nil, ScopeDefault, &ConfigError{Key: key, Message: "not a recognised setting", Err: ErrUnknownKey}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver().Get(k.Name), s.sourceOf(k.Name), nil
}

// Entries lists every recognised key followed by unknown keys found in the files
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.resolver()
	entries := make([]Entry, 0, len(Keys))
	for _, k := range Keys {
		entries = append(entries, Entry{
			Key:    k.Name,
			Value:  v.Get(k.Name),
			Source: s.sourceOf(k.Name),
			Secret: k.Secret,
			Known:  true,
		})
	}

	var unknown []Entry
	for _, l := range []*layer{s.project, s.global} {
		for name, val := range l.data {
			if _, ok := LookupKey(name); ok || containsEntry(unknown, name) {
				continue
			}
			unknown = append(unknown, Entry{Key: name, Value: val, Source: l.scope})
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i].Key < unknown[j].Key })

	return append(entries, unknown...)
}

// DefaultScope is where `config set` writes without --global: the project
// file if one exists, the global file otherwise
func (s *Store) DefaultScope() Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project.exists {
		return ScopeProject
	}
	return ScopeGlobal
}

// Path returns the file backing scope
func (s *Store) Path(scope Scope) string {
	if scope == ScopeProject {
		return s.project.path
	}
	return s.global.path
}

// Set parses raw by the key's kind, validates the result and saves the layer
func (s *Store) Set(scope Scope, key, raw string) error {
	k, ok := LookupKey(key)
	if !ok {
		return &ConfigError{Key: key, Message: "not a recognised setting", Err: ErrUnknownKey}
	}
	value, err := k.Parse(raw)
	if err != nil {
		return &ConfigError{Key: k.Name, Message: err.Error()}
	}
	return s.update(scope, k.Name, value, true)
}

// Unset removes key from the layer so lower layers or the default apply
func (s *Store) Unset(scope Scope, key string) error {
	k, ok := LookupKey(key)
	if !ok {
		return &ConfigError{Key: key, Message: "not a recognised setting", Err: ErrUnknownKey}
	}
	return s.update(scope, k.Name, nil, false)
}

func (s *Store) update(scope Scope, name string, value interface{}, set bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layerFor(scope)
	if err != nil {
		return err
	}

	prev, had := l.data[name]
	restore := func() {
		if had {
			l.data[name] = prev
		} else {
			delete(l.data, name)
		}
	}

	if set {
		l.data[name] = value
	} else {
		delete(l.data, name)
	}

	if _, err := s.buildConfig(); err != nil {
		restore()
		return err
	}
	if err := saveLayer(l); err != nil {
		restore()
		return err
	}
	return nil
}

func (s *Store) layerFor(scope Scope) (*layer, error) {
	switch scope {
	case ScopeGlobal:
		return s.global, nil
	case ScopeProject:
		return s.project, nil
	default:
		return nil, &ConfigError{Message: fmt.Sprintf("cannot write to %s scope", scope)}
	}
}

// saveLayer writes the layer atomically; the global file may hold an API key
// so it is kept private to the user
func saveLayer(l *layer) error {
	data, err := json.MarshalIndent(l.data, "", "  ")
	if err != nil {
		return &ConfigError{Path: l.path, Message: "cannot encode settings", Err: err}
	}
	data = append(data, '\n')

	perm := os.FileMode(0o644)
	if l.scope == ScopeGlobal {
		perm = 0o600
	}
	if err := executor.WriteFileAtomic(l.path, data, perm); err != nil {
		return &ConfigError{Path: l.path, Message: "cannot save settings", Err: err}
	}
	l.exists = true
	return nil
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]interface{}:
			out[k] = cloneMap(val)
		case []interface{}:
			out[k] = append([]interface{}(nil), val...)
		default:
			out[k] = v
		}
	}
	return out
}

func containsEntry(entries []Entry, key string) bool {
	for _, e := range entries {
		if e.Key == key {
			return true
		}
	}
	return false
}
