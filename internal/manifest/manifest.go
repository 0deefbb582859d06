// Package manifest pins everything version-like about the bootstrap: product
// and registry names, tool version floors, vendor repository URLs and the
// per-family base package lists. The manifest is embedded because this tool
// runs on bare hosts where no config file exists yet.
package manifest

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed manifest.yaml
var raw []byte

// Product names the proprietary CLI and the registry that distributes it.
type Product struct {
	Org         string `yaml:"org"`
	NpmPackage  string `yaml:"npm_package"`
	Binary      string `yaml:"binary"`
	NpmRegistry string `yaml:"npm_registry"`
	APIBase     string `yaml:"api_base"`
	TokenEnv    string `yaml:"token_env"`
}

// Runtime describes the Node.js requirement.
type Runtime struct {
	MinMajor    int    `yaml:"min_major"`
	SetupStream string `yaml:"setup_stream"`
	NvmVersion  string `yaml:"nvm_version"`
}

// Database describes the mongosh release artifact.
type Database struct {
	Version string `yaml:"version"`
	BaseURL string `yaml:"base_url"`
}

// Secrets describes the Infisical CLI vendor setup scripts.
type Secrets struct {
	DebSetupURL string `yaml:"deb_setup_url"`
	RpmSetupURL string `yaml:"rpm_setup_url"`
	Package     string `yaml:"package"`
}

// Container describes the Docker vendor repositories.
type Container struct {
	YumRepoURL  string   `yaml:"yum_repo_url"`
	AptKeyURL   string   `yaml:"apt_key_url"`
	AptRepoBase string   `yaml:"apt_repo_base"`
	Packages    []string `yaml:"packages"`
}

// Manifest is the full embedded configuration.
type Manifest struct {
	Product      Product             `yaml:"product"`
	Runtime      Runtime             `yaml:"runtime"`
	Database     Database            `yaml:"database"`
	Secrets      Secrets             `yaml:"secrets"`
	Container    Container           `yaml:"container"`
	BasePackages map[string][]string `yaml:"base_packages"`
}

// Load parses and validates the embedded manifest.
func Load() (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse embedded manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return Manifest{}, fmt.Errorf("invalid embedded manifest: %w", err)
	}
	return m, nil
}

func (m Manifest) validate() error {
	switch {
	case m.Product.Org == "":
		return fmt.Errorf("product.org is required")
	case !strings.HasPrefix(m.Product.NpmPackage, "@"):
		return fmt.Errorf("product.npm_package must be a scoped npm name, got %q", m.Product.NpmPackage)
	case m.Product.Binary == "":
		return fmt.Errorf("product.binary is required")
	case m.Product.NpmRegistry == "" || m.Product.APIBase == "":
		return fmt.Errorf("product registry endpoints are required")
	case m.Product.TokenEnv == "":
		return fmt.Errorf("product.token_env is required")
	case m.Runtime.MinMajor <= 0 || m.Runtime.SetupStream == "":
		return fmt.Errorf("runtime pins are required")
	case m.Database.Version == "" || m.Database.BaseURL == "":
		return fmt.Errorf("database pins are required")
	case len(m.Container.Packages) == 0:
		return fmt.Errorf("container.packages is required")
	}
	return nil
}

// PackageScope returns the npm scope of the proprietary package, e.g.
// "@convoy-hq" for "@convoy-hq/convoy-cli".
func (p Product) PackageScope() string {
	scope, _, _ := strings.Cut(p.NpmPackage, "/")
	return scope
}

// PackageShortName returns the unscoped package name, e.g. "convoy-cli".
func (p Product) PackageShortName() string {
	_, name, ok := strings.Cut(p.NpmPackage, "/")
	if !ok {
		return p.NpmPackage
	}
	return name
}

// RegistryHost returns the registry without its URL scheme, as npmrc
// credential lines require, e.g. "npm.pkg.github.com".
func (p Product) RegistryHost() string {
	host := strings.TrimPrefix(p.NpmRegistry, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimSuffix(host, "/")
}
