package executor

import (
	"regexp"
	"strings"
)

// RiskLevel represents the risk level of a command
type RiskLevel int

const (
	// Safe commands are read-only
	Safe RiskLevel = iota
	// NeedsConfirm commands modify state and require user confirmation
	NeedsConfirm
	// Dangerous commands are never run by zor
	Dangerous
)

// String returns a short label for the level
func (r RiskLevel) String() string {
	switch r {
	case Safe:
		return "safe"
	case NeedsConfirm:
		return "needs-confirmation"
	case Dangerous:
		return "dangerous"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of classifying a command
type Verdict struct {
	Risk   RiskLevel
	Reason string
}

var safeCommands = map[string]bool{
	"ls": true, "cat": true, "pwd": true, "echo": true, "head": true,
	"tail": true, "grep": true, "find": true, "which": true, "wc": true,
	"tree": true, "stat": true, "date": true,
}

var safePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^git\s+(status|log|diff|branch|show|remote)\b`),
	regexp.MustCompile(`^npm\s+(list|ls|view|outdated)\b`),
	regexp.MustCompile(`^pip3?\s+(list|show|freeze)\b`),
	regexp.MustCompile(`^go\s+(list|version|env|vet)\b`),
	regexp.MustCompile(`^(node|python3?|go|cargo|rustc)\s+(--version|-v|version)$`),
}

type dangerRule struct {
	pattern *regexp.Regexp
	reason  string
}

var dangerousRules = []dangerRule{
	{regexp.MustCompile(`rm\s+(-[a-zA-Z]*\s+)*(/|~|\$HOME)(\s|$)`), "removes the root or home directory"},
	{regexp.MustCompile(`rm\s+-[a-zA-Z]*[rf][a-zA-Z]*\s+[~$]`), "recursive delete of a variable or home path"},
	{regexp.MustCompile(`\bsudo\b`), "runs with elevated privileges"},
	{regexp.MustCompile(`\bsu\b`), "switches user"},
	{regexp.MustCompile(`\bdd\s+if=`), "raw disk copy"},
	{regexp.MustCompile(`\bmkfs`), "formats a filesystem"},
	{regexp.MustCompile(`:\(\)\s*\{`), "fork bomb"},
	{regexp.MustCompile(`(curl|wget).*\|\s*(sh|bash|zsh)\b`), "pipes a download into a shell"},
	{regexp.MustCompile(`>\s*/dev/sd`), "writes to a disk device"},
	{regexp.MustCompile(`>\s*/etc/`), "writes under /etc"},
	{regexp.MustCompile(`chmod\s+(-R\s+)?777`), "world-writable permissions"},
	{regexp.MustCompile(`\beval\b`), "evaluates arbitrary code"},
	{regexp.MustCompile(`\|.*base64\s+(-d|--decode)`), "decodes a payload in a pipeline"},
}

var chainingPattern = regexp.MustCompile(`[;&|]{1,2}`)

// ClassifyCommand determines the risk level of a shell command proposed by the model
func ClassifyCommand(cmd string) Verdict {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return Verdict{Risk: Dangerous, Reason: "empty command"}
	}

	for _, rule := range dangerousRules {
		if rule.pattern.MatchString(cmd) {
			return Verdict{Risk: Dangerous, Reason: rule.reason}
		}
	}

	// chained commands may hide a second step, so they always need a yes
	if chainingPattern.MatchString(cmd) {
		return Verdict{Risk: NeedsConfirm, Reason: "chained commands"}
	}

	if safeCommands[strings.Fields(cmd)[0]] {
		return Verdict{Risk: Safe, Reason: "read-only command"}
	}
	for _, pattern := range safePatterns {
		if pattern.MatchString(cmd) {
			return Verdict{Risk: Safe, Reason: "read-only command"}
		}
	}

	return Verdict{Risk: NeedsConfirm, Reason: "may modify the project or system"}
}
