package registry

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
	"github.com/convoy-hq/convoy-prereqs/internal/manifest"
	"github.com/convoy-hq/convoy-prereqs/internal/platform"
)

// PersistCredentials writes the durable registry configuration for the
// invoking user: a scoped ~/.npmrc directive so later npm invocations reach
// the private registry, and a container-registry auth entry in
// ~/.docker/config.json. This is an explicit enrichment step, separate from
// token verification. Both files end up owned by the user.
func PersistCredentials(user platform.User, product manifest.Product, token string) error {
	if err := persistNpmrc(user, product, token); err != nil {
		return err
	}
	if err := persistDockerAuth(user, token); err != nil {
		return err
	}
	logger.Info("Registry credentials written for %s\n", user.Name)
	return nil
}

// persistNpmrc rewrites only the lines this tool owns (the product scope and
// the registry host token), keeping any unrelated npmrc content intact.
func persistNpmrc(user platform.User, product manifest.Product, token string) error {
	path := filepath.Join(user.Home, ".npmrc")

	var kept []string
	if existing, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(existing), "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" ||
				strings.HasPrefix(trimmed, product.PackageScope()+":registry=") ||
				strings.HasPrefix(trimmed, "//"+product.RegistryHost()+"/") {
				continue
			}
			kept = append(kept, line)
		}
	}
	kept = append(kept,
		fmt.Sprintf("%s:registry=%s/", product.PackageScope(), strings.TrimSuffix(product.NpmRegistry, "/")),
		fmt.Sprintf("//%s/:_authToken=%s", product.RegistryHost(), token),
	)

	if err := os.WriteFile(path, []byte(strings.Join(kept, "\n")+"\n"), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return chownToUser(path, user)
}

// persistDockerAuth merges a ghcr.io auth entry into the user's Docker
// config, creating it when absent.
func persistDockerAuth(user platform.User, token string) error {
	dir := filepath.Join(user.Home, ".docker")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := chownToUser(dir, user); err != nil {
		return err
	}

	path := filepath.Join(dir, "config.json")
	cfg := map[string]any{}
	if existing, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(existing, &cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	auths, _ := cfg["auths"].(map[string]any)
	if auths == nil {
		auths = map[string]any{}
	}
	basic := base64.StdEncoding.EncodeToString([]byte(user.Name + ":" + token))
	auths["ghcr.io"] = map[string]any{"auth": basic}
	cfg["auths"] = auths

	encoded, err := json.MarshalIndent(cfg, "", "\t")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return chownToUser(path, user)
}

func chownToUser(path string, user platform.User) error {
	if err := os.Chown(path, user.UID, user.GID); err != nil {
		return fmt.Errorf("chown %s to %s: %w", path, user.Name, err)
	}
	return nil
}
