package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/config"
	"github.com/vk/piohooks/internal/hcl"
	"github.com/vk/piohooks/internal/registry"
)

const projectINI = `
[metadata]
product_name = My Device
release_version = 1.2.3

[embedded]
debug_extra_cmds =
    set remotetimeout 5

[env:release]
extends = embedded
build_type = release
upload_protocol = espota
`

const dotEnv = `
# local settings
SERVER_OTA_UPDATE_URL="https://host/path/manifest.json"
WIFI_SSID="home" # ssid
DEV_OTA_REMOTE_DEVICE_IP=192.168.1.50
DEV_OTA_HOST_PORT=3232
DEV_OTA_UPDATE_PASSWORD=s3cret
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func decodeReport(t *testing.T, out string) Report {
	t.Helper()
	var report Report
	require.NoError(t, json.Unmarshal([]byte(out), &report), "stdout must hold a single JSON report: %q", out)
	return report
}

func statuses(r Report) map[string]string {
	m := make(map[string]string, len(r.Hooks))
	for _, h := range r.Hooks {
		m[h.ID] = h.Status
	}
	return m
}

func TestApp_PostFirmwareWritesManifest(t *testing.T) {
	// --- Arrange ---
	root := writeProject(t, map[string]string{
		".env":                            dotEnv,
		"platformio.ini":                  projectINI,
		".pio/build/release/firmware.bin": "FW",
	})
	testApp, out, _ := SetupAppTest(t, Config{
		ProjectDir:     root,
		PIOEnv:         "release",
		Phase:          config.PhasePost,
		Trigger:        "firmware",
		PrettyPrinters: PrettyPrintersOff,
	})

	// --- Act ---
	err := testApp.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	manifest, err := os.ReadFile(filepath.Join(root, ".pio", "build", "ota", "release", "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"my-device-release","version":"1.2.3","url":"https://host/path/my-device-release-v1.2.3-release.bin"}`,
		string(manifest))

	report := decodeReport(t, out.String())
	require.Len(t, report.Hooks, 3)
	assert.Equal(t, "debug_cmds.gdbinit", report.Hooks[0].ID, "hooks are reported in pipeline order")
	assert.Equal(t, map[string]string{
		"debug_cmds.gdbinit":   StatusSkipped,
		"ota_manifest.release": StatusOK,
		"ota_publish.upload":   StatusSkipped,
	}, statuses(report))
	assert.Len(t, report.Effects.Artifacts, 2)
}

func TestApp_PostTriggerSelectsHooks(t *testing.T) {
	root := writeProject(t, map[string]string{
		"platformio.ini": projectINI,
		".pio/build/release/bootloader/compile_commands.json": "[]",
	})
	testApp, out, _ := SetupAppTest(t, Config{
		ProjectDir: root,
		PIOEnv:     "release",
		Phase:      config.PhasePost,
		Trigger:    "checkprogsize",
	})

	require.NoError(t, testApp.Run(context.Background()))

	report := decodeReport(t, out.String())
	assert.Equal(t, map[string]string{"compile_commands.bootloader": StatusOK}, statuses(report))
	assert.NoFileExists(t, filepath.Join(root, ".pio", "build", "release", "bootloader", "compile_commands.json"))
}

func TestApp_PreFiltersByHookID(t *testing.T) {
	// --- Arrange ---
	root := writeProject(t, map[string]string{
		".env":           dotEnv,
		"platformio.ini": projectINI,
	})
	testApp, out, _ := SetupAppTest(t, Config{
		ProjectDir:  root,
		PIOEnv:      "release",
		HookFilters: []string{"env_defines", "upload_params.espota", "build_number.stamp"},
	})

	// --- Act ---
	require.NoError(t, testApp.Run(context.Background()))

	// --- Assert ---
	report := decodeReport(t, out.String())
	var ids []string
	for _, h := range report.Hooks {
		ids = append(ids, h.ID)
		assert.Equal(t, StatusOK, h.Status, h.ID)
	}
	assert.Equal(t, []string{"env_defines.dotenv", "upload_params.espota", "build_number.stamp"}, ids)

	assert.Contains(t, report.Effects.BuildFlags, `-DWIFI_SSID=\"home\"`)
	assert.Contains(t, report.Effects.UnsetFlags, "-DWIFI_SSID")
	last := report.Effects.BuildFlags[len(report.Effects.BuildFlags)-1]
	assert.True(t, strings.HasPrefix(last, "-DBUILD_NUM="), "build number comes last, got %q", last)

	assert.Equal(t, "192.168.1.50", report.Effects.UploadPort)
	assert.Equal(t, []string{"--host_port=3232", "--auth=s3cret"}, report.Effects.UploadFlags)
}

func TestApp_MissingDotEnvIsSoftStop(t *testing.T) {
	root := writeProject(t, map[string]string{"platformio.ini": projectINI})
	testApp, out, logs := SetupAppTest(t, Config{
		ProjectDir:  root,
		PIOEnv:      "release",
		HookFilters: []string{"env_defines"},
		Strict:      true,
	})

	require.NoError(t, testApp.Run(context.Background()))

	report := decodeReport(t, out.String())
	require.Len(t, report.Hooks, 1)
	assert.Equal(t, StatusSkipped, report.Hooks[0].Status)
	assert.Contains(t, report.Hooks[0].Reason, "create one at the root of the project")
	assert.Contains(t, logs.String(), "hook=env_defines.dotenv")
}

func TestApp_UnreadableInputsFailOpen(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		skipped string
		logged  string
	}{
		{
			name:    ".env is a directory",
			files:   map[string]string{".env/keep": "", "platformio.ini": projectINI},
			skipped: "env_defines.dotenv",
			logged:  "Ignoring unreadable .env file.",
		},
		{
			name:    "project config does not parse",
			files:   map[string]string{".env": dotEnv, "platformio.ini": "[metadata\nproduct_name = x\n"},
			skipped: "upload_params.espota",
			logged:  "Ignoring unreadable project config.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			root := writeProject(t, tc.files)
			testApp, out, logs := SetupAppTest(t, Config{
				ProjectDir:  root,
				PIOEnv:      "release",
				HookFilters: []string{tc.skipped, "build_number.stamp"},
			})

			// --- Act ---
			err := testApp.Run(context.Background())

			// --- Assert ---
			require.NoError(t, err)
			report := decodeReport(t, out.String())
			assert.Equal(t, map[string]string{
				tc.skipped:           StatusSkipped,
				"build_number.stamp": StatusOK,
			}, statuses(report))
			assert.NotEmpty(t, report.Effects.BuildFlags)
			assert.Contains(t, logs.String(), tc.logged)
		})
	}
}

func TestApp_UploadProtocolFlagOverridesConfig(t *testing.T) {
	root := writeProject(t, map[string]string{".env": dotEnv, "platformio.ini": projectINI})
	testApp, out, _ := SetupAppTest(t, Config{
		ProjectDir:     root,
		PIOEnv:         "release",
		UploadProtocol: "esptool",
		HookFilters:    []string{"upload_params"},
	})

	require.NoError(t, testApp.Run(context.Background()))

	report := decodeReport(t, out.String())
	assert.Equal(t, map[string]string{"upload_params.espota": StatusSkipped}, statuses(report))
	assert.Empty(t, report.Effects.UploadPort)
}

func TestApp_CaCertsDisabledWithoutFrameworkDir(t *testing.T) {
	root := writeProject(t, map[string]string{"platformio.ini": projectINI})
	testApp, out, _ := SetupAppTest(t, Config{
		ProjectDir:  root,
		PIOEnv:      "release",
		HookFilters: []string{"ca_certs"},
	})

	require.NoError(t, testApp.Run(context.Background()))

	report := decodeReport(t, out.String())
	require.Len(t, report.Hooks, 1)
	assert.Equal(t, HookResult{ID: "ca_certs.bundle", Status: StatusSkipped, Reason: "disabled"}, report.Hooks[0])
}

// failingModule registers a hook type that always fails.
type failingModule struct{}

func (failingModule) Register(r *registry.Registry) {
	r.RegisterHook("always_fails", &registry.RegisteredHook{
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return nil, errors.New("boom")
		},
	})
}

func TestApp_StrictFailsAfterReport(t *testing.T) {
	// --- Arrange ---
	root := writeProject(t, map[string]string{
		"pipeline.hcl": `
hook "always_fails" "x" {
  phase = "pre"
}
hook "always_fails" "y" {
  phase = "pre"
}
`,
	})
	pipeline := filepath.Join(root, "pipeline.hcl")

	testCases := []struct {
		name    string
		strict  bool
		wantErr bool
	}{
		{name: "lenient", strict: false, wantErr: false},
		{name: "strict", strict: true, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testApp, out, _ := SetupAppTest(t, Config{
				ProjectDir:    root,
				PIOEnv:        "release",
				PipelinePaths: []string{pipeline},
				Strict:        tc.strict,
			}, failingModule{})

			// --- Act ---
			err := testApp.Run(context.Background())

			// --- Assert ---
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "2 hook(s) failed")
			} else {
				require.NoError(t, err)
			}
			report := decodeReport(t, out.String())
			assert.Equal(t, map[string]string{"always_fails.x": StatusFailed, "always_fails.y": StatusFailed}, statuses(report),
				"a failing hook must not stop the pipeline")
		})
	}
}

func TestNewApp_UnknownHookType(t *testing.T) {
	root := writeProject(t, map[string]string{
		"pipeline.hcl": `
hook "does_not_exist" "x" {
  phase = "pre"
}
`,
	})
	cfg, err := NewConfig(Config{PIOEnv: "release", PipelinePaths: []string{filepath.Join(root, "pipeline.hcl")}})
	require.NoError(t, err)

	_, err = NewApp(&bytes.Buffer{}, &bytes.Buffer{}, cfg, hcl.NewLoader())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown hook type 'does_not_exist'")
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{ProjectDir: "/p", PIOEnv: "release"})
	require.NoError(t, err)
	assert.Equal(t, config.PhasePre, cfg.Phase)
	assert.Equal(t, PrettyPrintersAuto, cfg.PrettyPrinters)
	assert.Equal(t, filepath.Join("/p", ".env"), cfg.EnvFile)
	assert.Equal(t, filepath.Join("/p", "platformio.ini"), cfg.ProjectConfig)
	assert.Equal(t, filepath.Join("/p", ".pio", "build"), cfg.BuildDir)

	_, err = NewConfig(Config{})
	assert.Error(t, err)
	_, err = NewConfig(Config{PIOEnv: "release", Phase: "middle"})
	assert.Error(t, err)
	_, err = NewConfig(Config{PIOEnv: "release", PrettyPrinters: "maybe"})
	assert.Error(t, err)
}

func TestPrettyPrinters(t *testing.T) {
	assert.True(t, prettyPrinters(PrettyPrintersAuto, "linux"))
	assert.False(t, prettyPrinters(PrettyPrintersAuto, "windows"))
	assert.False(t, prettyPrinters(PrettyPrintersAuto, "darwin"))
	assert.True(t, prettyPrinters(PrettyPrintersOn, "windows"))
	assert.False(t, prettyPrinters(PrettyPrintersOff, "linux"))
}

func TestApp_PostFirmwarePublishes(t *testing.T) {
	// --- Arrange ---
	var (
		mu       sync.Mutex
		received []string
		auth     []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, r.Method+" "+r.URL.Path)
		auth = append(auth, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	env := dotEnv + "OTA_PUBLISH_URL=" + srv.URL + "/fw\nOTA_PUBLISH_AUTH=\"Bearer t\"\n"
	root := writeProject(t, map[string]string{
		".env":                            env,
		"platformio.ini":                  projectINI,
		".pio/build/release/firmware.bin": "FW",
	})
	testApp, out, _ := SetupAppTest(t, Config{
		ProjectDir:  root,
		PIOEnv:      "release",
		Phase:       config.PhasePost,
		Trigger:     "firmware",
		HookFilters: []string{"ota_manifest", "ota_publish"},
	})

	// --- Act ---
	require.NoError(t, testApp.Run(context.Background()))

	// --- Assert ---
	report := decodeReport(t, out.String())
	assert.Equal(t, map[string]string{
		"ota_manifest.release": StatusOK,
		"ota_publish.upload":   StatusOK,
	}, statuses(report))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"PUT /fw/my-device-release-v1.2.3-release.bin",
		"PUT /fw/manifest.json",
	}, received)
	assert.Equal(t, []string{"Bearer t", "Bearer t"}, auth)
}
