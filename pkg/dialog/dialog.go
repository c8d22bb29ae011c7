// Package dialog mediates blocking user prompts for the orchestrator. The
// orchestrator asks it for numeric input and error display, nothing else.
package dialog

import "errors"

// ErrCancelled reports that the user declined the prompt. Callers treat it as
// a no-op, not a failure.
var ErrCancelled = errors.New("cancelled by user")

// Mediator provides blocking-style user prompts.
type Mediator interface {
	// PromptAmount asks the user for a decimal token amount. Returns
	// ErrCancelled when the user backs out.
	PromptAmount(message, defaultValue string) (string, error)

	// ShowError displays a failure message to the user.
	ShowError(message string)
}
