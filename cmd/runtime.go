package cmd

import (
	"fmt"

	"github.com/kayz/zonal/internal/automation"
	"github.com/kayz/zonal/internal/config"
	"github.com/kayz/zonal/internal/coordinator"
	"github.com/kayz/zonal/internal/execute"
	"github.com/kayz/zonal/internal/orchestrator"
	"github.com/kayz/zonal/internal/prompt"
	"github.com/kayz/zonal/internal/provider"
	"github.com/kayz/zonal/internal/schema"
	"github.com/kayz/zonal/internal/session"
	"github.com/kayz/zonal/internal/tooltype"
	"github.com/kayz/zonal/internal/validate"
)

// runtime bundles the wired collaborators behind the CLI.
type runtime struct {
	cfg          *config.Config
	sessions     *session.Store
	appState     *coordinator.Store
	bus          *coordinator.Coordinator
	schemas      *schema.StaticRegistry
	tools        *tooltype.MapRegistry
	orchestrator *orchestrator.Orchestrator
	scheduler    *automation.Scheduler
}

// buildRuntime wires the whole pipeline from config. withProvider controls
// whether an AI provider is required; storage-only commands skip it.
func buildRuntime(withProvider bool) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	appState, err := coordinator.NewStore(cfg.Storage.Path)
	if err != nil {
		sessions.Close()
		return nil, fmt.Errorf("open app state store: %w", err)
	}
	bus := coordinator.New(appState)

	schemas := schema.NewStaticRegistry()
	schema.RegisterSystemSchemas(schemas)
	tools := tooltype.NewMapRegistry()
	tooltype.RegisterBuiltins(tools)

	rt := &runtime{
		cfg:      cfg,
		sessions: sessions,
		appState: appState,
		bus:      bus,
		schemas:  schemas,
		tools:    tools,
	}

	manager := prompt.NewManager(sessions, bus, schemas, tools, cfg.Prompt, bus.ZoneOf)
	validator := validate.New(schemas, tools, schema.NewJSONValidator(schemas))
	executor := execute.New(bus)

	if withProvider {
		prov, err := provider.New(cfg.AI)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.orchestrator = orchestrator.New(sessions, manager, prov, validator, executor)
		rt.scheduler = automation.NewScheduler(sessions, rt.orchestrator)
	}

	return rt, nil
}

func (r *runtime) close() {
	if r.appState != nil {
		r.appState.Close()
	}
	if r.sessions != nil {
		r.sessions.Close()
	}
}
