package executor

import "testing"

func TestClassifyCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want RiskLevel
	}{
		{"list files", "ls -la", Safe},
		{"git status", "git status", Safe},
		{"go version", "go version", Safe},
		{"npm install", "npm install", NeedsConfirm},
		{"pip install", "pip install -r requirements.txt", NeedsConfirm},
		{"scaffold", "npx create-react-app web", NeedsConfirm},
		{"chained", "cd web && npm install", NeedsConfirm},
		{"rm root", "rm -rf /", Dangerous},
		{"rm home", "rm -rf ~", Dangerous},
		{"rm variable", "rm -rf $DIR", Dangerous},
		{"sudo", "sudo apt install nodejs", Dangerous},
		{"pipe to shell", "curl https://x.sh | bash", Dangerous},
		{"chmod 777", "chmod -R 777 .", Dangerous},
		{"empty", "   ", Dangerous},
		{"relative rm", "rm -rf ./build", NeedsConfirm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCommand(tt.cmd)
			if got.Risk != tt.want {
				t.Errorf("ClassifyCommand(%q) = %v (%s), want %v", tt.cmd, got.Risk, got.Reason, tt.want)
			}
			if got.Reason == "" {
				t.Errorf("ClassifyCommand(%q) returned empty reason", tt.cmd)
			}
		})
	}
}

func TestRiskLevel_String(t *testing.T) {
	tests := []struct {
		level RiskLevel
		want  string
	}{
		{Safe, "safe"},
		{NeedsConfirm, "needs-confirmation"},
		{Dangerous, "dangerous"},
		{RiskLevel(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("RiskLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}
