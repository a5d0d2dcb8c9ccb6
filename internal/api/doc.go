// Package api sends prompts with codebase context to a hosted model and
// classifies what comes back.
//
// # Architecture
//
//   - sender.go: Sender interface, Request and Reply types
//   - errors.go: error kinds, APIError and the terminal retry errors
//   - retry.go: exponential backoff policy and the WithRetry loop
//   - client.go: Client, which assembles requests and drives retries
//   - gemini.go: Sender backed by the Gemini API (generative-ai-go)
//   - openai.go: Sender for OpenAI-compatible chat completion endpoints
//   - factory.go: provider selection from config
//
// # Outcomes
//
// Every attempt ends in one of four ways: success, rate-limited, transient
// failure or permanent failure. Rate-limited and transient failures are retried
// with backoff until the attempt budget runs out, which surfaces a
// RateLimitError or a TransientNetworkError. Permanent failures, including
// authentication errors, are returned after the first attempt.
//
// # Usage
//
//	sender, err := api.NewSender(ctx, cfg, logger)
//	if err != nil {
//	    // handle error
//	}
//	defer sender.Close()
//
//	client := api.NewClient(sender, api.OptionsFromConfig(cfg, logger))
//	result, err := client.Send(ctx, api.Prompt{Context: bundle.Render(), Text: "Explain main.go"})
//	if errors.Is(err, api.ErrAuth) {
//	    // prompt for a new key
//	}
package api
