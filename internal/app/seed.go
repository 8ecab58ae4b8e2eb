package app

import (
	"context"
	"fmt"

	"github.com/heartmarshall/notes-assistant-backend/internal/app/seeder"
)

// Seed loads fixture records for one user. It fails if any record could
// not be stored.
func Seed(ctx context.Context, cfg seeder.Config, phases []string) (map[string]seeder.PhaseResult, error) {
	appCfg, logger, err := bootstrap()
	if err != nil {
		return nil, err
	}

	d, err := openDeps(ctx, appCfg, logger)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	p := seeder.NewPipeline(logger, d.notes, d.sales, cfg)
	if err := p.Run(ctx, phases); err != nil {
		return p.Results(), err
	}
	if p.HasErrors() {
		return p.Results(), fmt.Errorf("seeding finished with errors")
	}
	return p.Results(), nil
}
