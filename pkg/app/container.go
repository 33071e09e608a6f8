// Package app wires configuration, translation and execution together for
// the rat24f command line tools.
package app

import (
	"github.com/samber/do"

	"rat24f/pkg/config"
)

// NewContainer returns an injector providing cfg, a *Compiler and a *Runner.
func NewContainer(cfg *config.Config) *do.Injector {
	if cfg == nil {
		cfg = config.Default()
	}
	i := do.New()

	do.ProvideValue(i, cfg)
	do.Provide(i, func(i *do.Injector) (*Compiler, error) {
		return NewCompiler(do.MustInvoke[*config.Config](i)), nil
	})
	do.Provide(i, func(i *do.Injector) (*Runner, error) {
		return NewRunner(do.MustInvoke[*config.Config](i)), nil
	})
	return i
}
