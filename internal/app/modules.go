package app

import (
	"github.com/vk/piohooks/internal/registry"
	"github.com/vk/piohooks/modules/build_number"
	"github.com/vk/piohooks/modules/ca_certs"
	"github.com/vk/piohooks/modules/compile_commands"
	"github.com/vk/piohooks/modules/debug_cmds"
	"github.com/vk/piohooks/modules/env_defines"
	"github.com/vk/piohooks/modules/files_exclude"
	"github.com/vk/piohooks/modules/ota_manifest"
	"github.com/vk/piohooks/modules/ota_publish"
	"github.com/vk/piohooks/modules/tz_data"
	"github.com/vk/piohooks/modules/upload_params"
)

// coreModules is the definitive list of all hooks that are compiled into
// the piohooks binary.
var coreModules = []registry.Module{
	&env_defines.Module{},
	&upload_params.Module{},
	&build_number.Module{},
	&files_exclude.Module{},
	&tz_data.Module{},
	&ca_certs.Module{},
	&debug_cmds.Module{},
	&ota_manifest.Module{},
	&ota_publish.Module{},
	&compile_commands.Module{},
}
