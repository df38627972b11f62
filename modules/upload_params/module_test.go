package upload_params

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/dotenv"
)

func newEnv(t *testing.T, protocol, content string) *buildenv.Env {
	t.Helper()
	env := &buildenv.Env{PIOEnv: "debug", UploadProtocol: protocol}
	if content != "" {
		f, err := dotenv.Parse(strings.NewReader(content))
		require.NoError(t, err)
		env.DotEnv = f
	}
	return env
}

func TestOnRunUploadParams_Espota(t *testing.T) {
	// --- Arrange ---
	content := strings.Join([]string{
		`WIFI_SSID="home"`,
		`DEV_OTA_REMOTE_DEVICE_IP="192.168.1.50"`,
		`DEV_OTA_HOST_PORT=3232`,
		`DEV_OTA_UPDATE_PASSWORD="s3cret" # do not commit`,
	}, "\n")
	env := newEnv(t, "espota", content)

	// --- Act ---
	effects, err := OnRunUploadParams(context.Background(), env, &Input{})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.50", effects.UploadPort)
	assert.Equal(t, []string{"--host_port=3232", "--auth=s3cret"}, effects.UploadFlags)
}

func TestOnRunUploadParams_PartialKeys(t *testing.T) {
	env := newEnv(t, "espota", "DEV_OTA_REMOTE_DEVICE_IP=10.0.0.2")

	effects, err := OnRunUploadParams(context.Background(), env, &Input{})

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", effects.UploadPort)
	assert.Empty(t, effects.UploadFlags)
}

func TestOnRunUploadParams_CustomKeys(t *testing.T) {
	env := newEnv(t, "espota", "LAB_IP=10.0.0.3\nLAB_PASS=pw")

	effects, err := OnRunUploadParams(context.Background(), env, &Input{HostKey: "LAB_IP", AuthKey: "LAB_PASS"})

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.3", effects.UploadPort)
	assert.Equal(t, []string{"--auth=pw"}, effects.UploadFlags)
}

func TestOnRunUploadParams_SoftStops(t *testing.T) {
	testCases := []struct {
		name     string
		protocol string
		content  string
		reason   string
	}{
		{name: "serial upload", protocol: "esptool", content: "DEV_OTA_REMOTE_DEVICE_IP=1.2.3.4", reason: "not espota"},
		{name: "no protocol", protocol: "", content: "DEV_OTA_REMOTE_DEVICE_IP=1.2.3.4", reason: "not espota"},
		{name: "missing .env", protocol: "espota", reason: "File .env not accessible"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			effects, err := OnRunUploadParams(context.Background(), newEnv(t, tc.protocol, tc.content), &Input{})

			require.Error(t, err)
			assert.True(t, buildenv.IsSoftStop(err))
			assert.Contains(t, err.Error(), tc.reason)
			assert.Nil(t, effects)
		})
	}
}
