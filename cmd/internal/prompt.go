package internal

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// PromptSecret reads a secret from the terminal without echoing it.
// A non-terminal stdin is an error: a secret arriving over a pipe should be
// passed with a flag instead, so nothing silently reads half a stream.
func PromptSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, pass the secret with the --secret flag")
	}
	_, _ = fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if len(secret) == 0 {
		return "", errors.New("secret cannot be empty")
	}
	return string(secret), nil
}

// PromptSecretConfirm prompts for a secret twice and requires both entries
// to match, for the encrypting side where a typo is unrecoverable.
func PromptSecretConfirm(prompt, confirmPrompt string) (string, error) {
	first, err := PromptSecret(prompt)
	if err != nil {
		return "", err
	}
	second, err := PromptSecret(confirmPrompt)
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("secrets do not match")
	}
	return first, nil
}
