// Package cmd implements the zor command line.
//
// # Architecture
//
// ## Core CLI
//
//   - root.go: App struct, cobra command tree, persistent flags, Execute
//   - context.go: shared steps of every model command (scan, client, record)
//   - prompts.go: the prompt text sent for each command
//
// ## Commands
//
//   - ask.go, edit.go, gentest.go, refactor.go: ask about or change the codebase
//   - commit.go: stage and commit, optionally with a proposed message
//   - project_init.go: create a new project from a blueprint
//   - history.go, config.go, setup.go: inspect history, settings and the API key
//
// ## Interactive Mode
//
//   - interactive.go: REPL session on go-prompt, multiline input
//   - slash_commands.go: /model, /files, /apply and the other slash commands
//
// # Key Components
//
// ## App
//
// App is created once per invocation. PersistentPreRunE loads the config
// and builds the logger; the factories it holds (model sender, history store,
// command runner, prompter) are replaced in tests.
//
// ## Exchanges
//
// Every request goes through App.exchange, which shows a spinner, sends the
// prompt with retries and appends the outcome to the history log, failed or
// not.
//
// # Usage
//
//	func main() {
//	    cmd.Execute()
//	}
package cmd
