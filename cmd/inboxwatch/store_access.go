package main

import (
	"context"

	"inboxwatch/internal/submissions"
)

// openStore connects to the configured submission store. create allows a
// missing SQLite file to be created.
func (c *commandContext) openStore(ctx context.Context, create bool) (*submissions.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts, err := submissions.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.Create = create
	return submissions.Open(ctx, opts)
}
