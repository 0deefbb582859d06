// Package prompt resolves the registry token interactively. The retry flow is
// an explicit state machine (NeedToken, Verifying, Verified, Retry, Abort) so
// it can be driven in tests without a terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
)

// ErrAborted is returned when the operator declines to retry token entry.
var ErrAborted = errors.New("token entry aborted by operator")

// UI is the interaction surface the resolver needs. Tests supply a fake.
type UI interface {
	SecretInput(title string, value *string) error
	Confirm(title string, value *bool) error
}

// VerifyFunc checks a candidate token; nil means verified.
type VerifyFunc func(ctx context.Context, token string) error

// ResolveToken resolves the registry credential. A token supplied through the
// environment is verified once and is fatal when invalid; otherwise the
// operator is prompted, re-prompted on empty input, and asked after each
// failed verification whether to try again.
func ResolveToken(ctx context.Context, envToken string, ui UI, verify VerifyFunc) (string, error) {
	if envToken != "" {
		if err := verify(ctx, envToken); err != nil {
			return "", fmt.Errorf("token from environment is not usable: %w", err)
		}
		return envToken, nil
	}

	for {
		var token string
		if err := ui.SecretInput("Registry token", &token); err != nil {
			return "", err
		}
		if token == "" {
			logger.Warn("A registry token is required.\n")
			continue
		}

		if err := verify(ctx, token); err == nil {
			return token, nil
		}

		retry := true
		if err := ui.Confirm("Verification failed. Try another token?", &retry); err != nil {
			return "", err
		}
		if !retry {
			return "", ErrAborted
		}
	}
}

// HuhUI implements UI with charmbracelet/huh forms.
type HuhUI struct {
	isTerminal func() bool
}

// NewHuhUI creates a HuhUI using the default terminal check.
func NewHuhUI() *HuhUI {
	return &HuhUI{isTerminal: stdioIsTerminal}
}

func stdioIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runFormFunc runs a form; overridable in tests.
var runFormFunc = func(form *huh.Form) error { return form.Run() }

func (ui *HuhUI) ensureInteractive() error {
	if ui.isTerminal() {
		return nil
	}
	return errors.New("an interactive terminal is required to prompt for the registry token; set the token environment variable instead")
}

// SecretInput prompts for a masked value.
func (ui *HuhUI) SecretInput(title string, value *string) error {
	if err := ui.ensureInteractive(); err != nil {
		return err
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(value),
	))
	return runFormFunc(form)
}

// Confirm prompts for a yes/no decision.
func (ui *HuhUI) Confirm(title string, value *bool) error {
	if err := ui.ensureInteractive(); err != nil {
		return err
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Value(value),
	))
	return runFormFunc(form)
}
