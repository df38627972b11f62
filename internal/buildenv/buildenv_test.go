package buildenv

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffects_Merge(t *testing.T) {
	e := &Effects{BuildFlags: []string{"-DA=1"}, UploadPort: "10.0.0.2"}
	e.Merge(&Effects{BuildFlags: []string{"-DB=2"}, UnsetFlags: []string{"-DB"}})
	e.Merge(&Effects{UploadPort: "10.0.0.3", DebugExtraCmds: "source .gdbinit"})
	e.Merge(nil)

	assert.Equal(t, []string{"-DA=1", "-DB=2"}, e.BuildFlags)
	assert.Equal(t, []string{"-DB"}, e.UnsetFlags)
	assert.Equal(t, "10.0.0.3", e.UploadPort)
	assert.Equal(t, "source .gdbinit", e.DebugExtraCmds)
}

func TestSoftStop(t *testing.T) {
	err := Skip("missing %s", "SERVER_OTA_UPDATE_URL")
	assert.EqualError(t, err, "missing SERVER_OTA_UPDATE_URL")
	assert.True(t, IsSoftStop(err))
	assert.True(t, IsSoftStop(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsSoftStop(fmt.Errorf("plain")))
}

func TestEnv_Helpers(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env := &Env{
		BuildRoot:      filepath.Join("proj", ".pio", "build"),
		PIOEnv:         "esp32-debug",
		UploadProtocol: "espota",
		Now:            func() time.Time { return fixed },
	}

	assert.Equal(t, filepath.Join("proj", ".pio", "build", "esp32-debug"), env.EnvBuildDir())
	assert.True(t, env.IsDebug())
	assert.True(t, env.IsNetworkUpload())
	assert.Equal(t, fixed, env.Clock())

	env.UploadProtocol = "esptool"
	assert.False(t, env.IsNetworkUpload())
}
