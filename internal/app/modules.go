package app

import (
	"github.com/vk/chaingrid/internal/registry"
	"github.com/vk/chaingrid/internal/scripting"
	"github.com/vk/chaingrid/modules/code"
	"github.com/vk/chaingrid/modules/conditional"
	"github.com/vk/chaingrid/modules/datarequest"
)

// coreModules is the definitive list of node kind handlers compiled into the
// chaingrid binary, configured from cfg.
func coreModules(cfg *Config) []registry.Module {
	return []registry.Module{
		&code.Module{Scripter: scripting.NewStarlark(cfg.ScriptMaxSteps)},
		&datarequest.Module{Client: datarequest.NewClient(cfg.HTTPTimeout)},
		&conditional.Module{},
	}
}
