package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistCredentialsWritesNpmrcAndDockerAuth(t *testing.T) {
	user := testUser(t)
	require.NoError(t, PersistCredentials(user, testProduct(), "tok123"))

	npmrc, err := os.ReadFile(filepath.Join(user.Home, ".npmrc"))
	require.NoError(t, err)
	assert.Contains(t, string(npmrc), "@convoy-hq:registry=https://npm.pkg.github.com/")
	assert.Contains(t, string(npmrc), "//npm.pkg.github.com/:_authToken=tok123")

	raw, err := os.ReadFile(filepath.Join(user.Home, ".docker", "config.json"))
	require.NoError(t, err)
	var cfg struct {
		Auths map[string]struct {
			Auth string `json:"auth"`
		} `json:"auths"`
	}
	require.NoError(t, json.Unmarshal(raw, &cfg))
	assert.NotEmpty(t, cfg.Auths["ghcr.io"].Auth)
}

func TestPersistNpmrcKeepsUnrelatedLinesAndReplacesOwn(t *testing.T) {
	user := testUser(t)
	existing := "save-exact=true\n@convoy-hq:registry=https://old.example/\n//npm.pkg.github.com/:_authToken=oldtoken\n"
	require.NoError(t, os.WriteFile(filepath.Join(user.Home, ".npmrc"), []byte(existing), 0o600))

	require.NoError(t, PersistCredentials(user, testProduct(), "newtoken"))

	raw, err := os.ReadFile(filepath.Join(user.Home, ".npmrc"))
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "save-exact=true")
	assert.NotContains(t, content, "oldtoken")
	assert.NotContains(t, content, "old.example")
	assert.Contains(t, content, "_authToken=newtoken")
}

func TestPersistDockerAuthMergesExistingConfig(t *testing.T) {
	user := testUser(t)
	dir := filepath.Join(user.Home, ".docker")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	existing := `{"auths":{"docker.io":{"auth":"abc"}},"credsStore":"desktop"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(existing), 0o600))

	require.NoError(t, PersistCredentials(user, testProduct(), "tok"))

	raw, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal(raw, &cfg))
	assert.Equal(t, "desktop", cfg["credsStore"])
	auths := cfg["auths"].(map[string]any)
	assert.Contains(t, auths, "docker.io")
	assert.Contains(t, auths, "ghcr.io")
}
