package cmd

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoy-hq/convoy-prereqs/internal/installer"
	"github.com/convoy-hq/convoy-prereqs/internal/manifest"
	"github.com/convoy-hq/convoy-prereqs/internal/platform"
)

// harness captures which orchestration steps ran.
type harness struct {
	detectCalls int
	fullCalls   int
	updateCalls int
	tokenCalls  int

	fullVersion   string
	updateVersion string
	family        platform.Family
}

// setupHarness replaces every seam with recording fakes and resets flag
// state. detected is what the fake OS detector reports.
func setupHarness(t *testing.T, detected platform.Family) *harness {
	t.Helper()
	h := &harness{family: detected}

	origRoot, origDetect, origUser := requireRoot, detectFamily, invokingUser
	origToken, origFull, origUpdate := resolveToken, runFullSetup, runUpdateOnly
	t.Cleanup(func() {
		requireRoot, detectFamily, invokingUser = origRoot, origDetect, origUser
		resolveToken, runFullSetup, runUpdateOnly = origToken, origFull, origUpdate
		updateOnly, targetVersion, debug = false, "", false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	requireRoot = func() error { return nil }
	invokingUser = func() (platform.User, error) {
		return platform.User{Name: "operator", Home: t.TempDir()}, nil
	}
	detectFamily = func(root string) platform.Family {
		h.detectCalls++
		return h.family
	}
	resolveToken = func(ctx context.Context, m manifest.Manifest) (string, error) {
		h.tokenCalls++
		return "tok", nil
	}
	runFullSetup = func(deps installer.Deps, token, version string) error {
		h.fullCalls++
		h.fullVersion = version
		return nil
	}
	runUpdateOnly = func(deps installer.Deps, token, version string) error {
		h.updateCalls++
		h.updateVersion = version
		return nil
	}

	updateOnly, targetVersion, debug = false, "", false
	if f := rootCmd.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	return h
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestUpdateFlagRunsOnlyTheCLIInstaller(t *testing.T) {
	h := setupHarness(t, platform.FamilyDebian)

	require.NoError(t, execute("--update", "--version", "1.2.3"))

	assert.Equal(t, 1, h.updateCalls)
	assert.Equal(t, "1.2.3", h.updateVersion)
	assert.Zero(t, h.fullCalls, "update-only must not run the full setup")
	assert.Zero(t, h.detectCalls, "update-only does not need the OS family")
	assert.Equal(t, 1, h.tokenCalls)
}

func TestShortUpdateFlag(t *testing.T) {
	h := setupHarness(t, platform.FamilyDebian)
	require.NoError(t, execute("-u"))
	assert.Equal(t, 1, h.updateCalls)
	assert.Equal(t, "", h.updateVersion)
}

func TestFullInstallPath(t *testing.T) {
	h := setupHarness(t, platform.FamilyDebian)

	require.NoError(t, execute())

	assert.Equal(t, 1, h.detectCalls)
	assert.Equal(t, 1, h.tokenCalls)
	assert.Equal(t, 1, h.fullCalls)
	assert.Zero(t, h.updateCalls)
}

func TestFullInstallUnknownOSIsFatal(t *testing.T) {
	h := setupHarness(t, platform.FamilyUnknown)

	err := execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported OS")
	assert.Zero(t, h.tokenCalls, "no credential work on an unsupported host")
	assert.Zero(t, h.fullCalls)
}

func TestNotRootIsFatal(t *testing.T) {
	h := setupHarness(t, platform.FamilyDebian)
	requireRoot = func() error { return errors.New("must be run as root") }

	err := execute()
	require.Error(t, err)
	assert.Zero(t, h.detectCalls)
	assert.Zero(t, h.tokenCalls)
}

func TestInvalidEnvironmentTokenIsFatal(t *testing.T) {
	h := setupHarness(t, platform.FamilyDebian)
	resolveToken = func(ctx context.Context, m manifest.Manifest) (string, error) {
		return "", errors.New("token from environment is not usable")
	}

	err := execute()
	require.Error(t, err)
	assert.Zero(t, h.fullCalls, "no installer runs without a verified token")
}

func TestVersionFlagWithoutValueFailsBeforeAnyAction(t *testing.T) {
	h := setupHarness(t, platform.FamilyDebian)

	err := execute("--version")
	require.Error(t, err)
	assert.Zero(t, h.detectCalls)
	assert.Zero(t, h.tokenCalls)
	assert.Zero(t, h.fullCalls)
	assert.Zero(t, h.updateCalls)
}

func TestUnknownFlagFails(t *testing.T) {
	h := setupHarness(t, platform.FamilyDebian)

	err := execute("--bogus")
	require.Error(t, err)
	assert.Zero(t, h.fullCalls)
}

func TestHelpHasNoSideEffects(t *testing.T) {
	h := setupHarness(t, platform.FamilyDebian)

	require.NoError(t, execute("--help"))
	assert.Zero(t, h.detectCalls)
	assert.Zero(t, h.tokenCalls)
	assert.Zero(t, h.fullCalls)
	assert.Zero(t, h.updateCalls)
}

func TestPositionalArgumentsRejected(t *testing.T) {
	h := setupHarness(t, platform.FamilyDebian)

	err := execute("install")
	require.Error(t, err)
	assert.Zero(t, h.fullCalls)
}
