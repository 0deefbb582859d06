package pkgmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoy-hq/convoy-prereqs/internal/platform"
)

type recordedCall struct {
	env  []string
	name string
	args []string
}

func recordCommands(t *testing.T) *[]recordedCall {
	t.Helper()
	orig := runCommand
	t.Cleanup(func() { runCommand = orig })

	var calls []recordedCall
	runCommand = func(extraEnv []string, name string, args ...string) error {
		calls = append(calls, recordedCall{env: extraEnv, name: name, args: args})
		return nil
	}
	return &calls
}

func TestForFamily(t *testing.T) {
	yum, err := ForFamily(platform.FamilyFedora)
	require.NoError(t, err)
	assert.Equal(t, "yum", yum.Name())

	apt, err := ForFamily(platform.FamilyDebian)
	require.NoError(t, err)
	assert.Equal(t, "apt-get", apt.Name())

	_, err = ForFamily(platform.FamilyUnknown)
	assert.Error(t, err)
}

func TestYumInstall(t *testing.T) {
	calls := recordCommands(t)

	backend, err := ForFamily(platform.FamilyFedora)
	require.NoError(t, err)
	require.NoError(t, backend.Refresh())
	require.NoError(t, backend.Install("curl", "jq"))

	require.Len(t, *calls, 1) // Refresh is a no-op for yum
	assert.Equal(t, "yum", (*calls)[0].name)
	assert.Equal(t, []string{"-y", "install", "curl", "jq"}, (*calls)[0].args)
}

func TestAptInstall(t *testing.T) {
	calls := recordCommands(t)

	backend, err := ForFamily(platform.FamilyDebian)
	require.NoError(t, err)
	require.NoError(t, backend.Refresh())
	require.NoError(t, backend.Install("curl"))

	require.Len(t, *calls, 2)
	assert.Equal(t, []string{"update"}, (*calls)[0].args)
	assert.Equal(t, []string{"install", "-y", "curl"}, (*calls)[1].args)
	assert.Contains(t, (*calls)[1].env, "DEBIAN_FRONTEND=noninteractive")
}
