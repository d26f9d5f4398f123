package commands

import (
	"github.com/systmms/securecell/internal/config"
	"github.com/systmms/securecell/internal/logging"
	"github.com/systmms/securecell/pkg/cell"
)

// loadDefinition loads the optional config file and, when it turns on
// debug or disables color, rebuilds the logger to match.
func loadDefinition(cfg *config.Config) (*config.Definition, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.New(false, false)
	}
	if err := cfg.LoadOrDefault(); err != nil {
		return nil, err
	}
	def := cfg.Definition
	if def.Logging.Debug || def.Logging.NoColor {
		debug := cfg.Logger.DebugEnabled() || def.Logging.Debug
		cfg.Logger = logging.New(debug, cfg.Logger.NoColor() || def.Logging.NoColor)
	}
	return def, nil
}

// resolvePolicy prefers an explicit flag value over the config file.
func resolvePolicy(def *config.Definition, flag string, changed bool) (cell.Policy, error) {
	if changed {
		p, err := cell.ParsePolicy(flag)
		if err != nil {
			return cell.PolicyFlag, policyFlagError(flag, err)
		}
		return p, nil
	}
	return def.LockPolicy()
}
