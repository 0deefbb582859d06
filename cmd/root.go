// Package cmd wires the CLI surface to the installation workflow.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/convoy-hq/convoy-prereqs/internal/installer"
	"github.com/convoy-hq/convoy-prereqs/internal/logger"
	"github.com/convoy-hq/convoy-prereqs/internal/manifest"
	"github.com/convoy-hq/convoy-prereqs/internal/pkgmgr"
	"github.com/convoy-hq/convoy-prereqs/internal/platform"
	"github.com/convoy-hq/convoy-prereqs/internal/prompt"
	"github.com/convoy-hq/convoy-prereqs/internal/registry"
)

// credFreshnessWindow bounds the interrupt-time sweep: only temp credential
// files this recent can belong to the current run.
const credFreshnessWindow = time.Hour

var (
	debug         bool
	updateOnly    bool
	targetVersion string
)

// Seams for the orchestration steps so the flag routing is testable without
// root, a terminal or a package manager.
var (
	requireRoot   = platform.RequireRoot
	detectFamily  = platform.DetectFamily
	invokingUser  = platform.InvokingUser
	resolveToken  = defaultResolveToken
	runFullSetup  = fullSetup
	runUpdateOnly = updateCLI
)

var rootCmd = &cobra.Command{
	Use:   "convoy-prereqs",
	Short: "Install the prerequisites for running convoy server",
	Long: `convoy-prereqs prepares a Linux host for running the convoy CLI in server
mode. It installs Node.js, Docker, the Infisical secrets CLI, mongosh and the
convoy CLI itself from the private npm registry, skipping anything already
present. With --update it only installs or updates the convoy CLI.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},
	RunE: run,
}

// Execute parses flags and runs the workflow. Any failure exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Init(debug)
		logger.Error("%v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVarP(&updateOnly, "update", "u", false, "only install or update the convoy CLI")
	rootCmd.Flags().StringVarP(&targetVersion, "version", "v", "", "target a specific convoy version (default: latest)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Flag errors (unknown flag, missing --version value) print usage and
	// propagate as a non-zero exit without any side effect.
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		_ = c.Usage()
		return err
	})
}

func run(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}

	m, err := manifest.Load()
	if err != nil {
		return err
	}
	user, err := invokingUser()
	if err != nil {
		return err
	}

	stop := watchInterrupts()
	defer stop()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deps := installer.Deps{
		Arch:     runtime.GOARCH,
		Manifest: m,
		User:     user,
	}

	if updateOnly {
		token, err := resolveToken(ctx, m)
		if err != nil {
			return err
		}
		return runUpdateOnly(deps, token, targetVersion)
	}

	family := detectFamily("/")
	if family == platform.FamilyUnknown {
		return fmt.Errorf("unsupported OS: no RedHat or Debian release markers found")
	}
	deps.Family = family
	deps.OS = platform.ReadOSRelease("/")
	deps.Backend, err = pkgmgr.ForFamily(family)
	if err != nil {
		return err
	}

	token, err := resolveToken(ctx, m)
	if err != nil {
		return err
	}
	return runFullSetup(deps, token, targetVersion)
}

// fullSetup drives the installers in dependency order. Any failure aborts;
// later steps do not run.
func fullSetup(deps installer.Deps, token, version string) error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"base packages", func() error { return installer.Bootstrap(deps) }},
		{"Node.js", func() error { return installer.EnsureNode(deps) }},
		{"Docker", func() error { return installer.EnsureDocker(deps) }},
		{"Infisical CLI", func() error { return installer.EnsureInfisical(deps) }},
		{"mongosh", func() error { return installer.EnsureMongosh(deps) }},
		{deps.Manifest.Product.Binary + " CLI", func() error { return installer.EnsureCLI(deps, token, version) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	if err := registry.PersistCredentials(deps.User, deps.Manifest.Product, token); err != nil {
		return err
	}
	return installer.VerifyAll(deps)
}

// updateCLI is the --update path: only the proprietary CLI is touched.
func updateCLI(deps installer.Deps, token, version string) error {
	return installer.UpdateCLI(deps, token, version)
}

// defaultResolveToken reads the token from the environment or prompts for it,
// verifying either way before use.
func defaultResolveToken(ctx context.Context, m manifest.Manifest) (string, error) {
	client := registry.NewClient(m)
	return prompt.ResolveToken(ctx, os.Getenv(m.Product.TokenEnv), prompt.NewHuhUI(), client.VerifyToken)
}

// watchInterrupts sweeps fresh temporary credential files before dying on
// SIGINT or SIGTERM, so an aborted install leaves no secret behind.
func watchInterrupts() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		if _, ok := <-ch; !ok {
			return
		}
		registry.CleanupStaleCredFiles(os.TempDir(), credFreshnessWindow)
		logger.Error("interrupted\n")
		os.Exit(130)
	}()
	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
