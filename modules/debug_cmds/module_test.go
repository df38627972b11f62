package debug_cmds

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/projectconf"
)

const projectINI = `
[embedded]
debug_extra_cmds =
    set remotetimeout 5
    monitor reset halt
`

func TestOnRunDebugCmds(t *testing.T) {
	cfg, err := projectconf.Parse([]byte(projectINI))
	require.NoError(t, err)

	testCases := []struct {
		name    string
		project *projectconf.Config
		input   Input
		want    string
	}{
		{
			name:    "appends gdbinit",
			project: cfg,
			want:    "set remotetimeout 5\nmonitor reset halt\nsource .gdbinit",
		},
		{
			name: "no configured commands",
			want: "source .gdbinit",
		},
		{
			name:    "custom command",
			project: cfg,
			input:   Input{Command: "source tools/printers.gdb"},
			want:    "set remotetimeout 5\nmonitor reset halt\nsource tools/printers.gdb",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := &buildenv.Env{SupportsPrettyPrinters: true, Project: tc.project}

			effects, err := OnRunDebugCmds(context.Background(), env, &tc.input)

			require.NoError(t, err)
			assert.Equal(t, tc.want, effects.DebugExtraCmds)
		})
	}
}

func TestOnRunDebugCmds_UnsupportedHost(t *testing.T) {
	cfg, err := projectconf.Parse([]byte(projectINI))
	require.NoError(t, err)
	env := &buildenv.Env{SupportsPrettyPrinters: false, Project: cfg}

	effects, err := OnRunDebugCmds(context.Background(), env, &Input{})

	require.Error(t, err)
	assert.True(t, buildenv.IsSoftStop(err))
	assert.Nil(t, effects)
}
