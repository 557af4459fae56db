package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core"
)

const probeEvery = 5 * time.Second

// probe reports connectivity changes by fetching path. Any answer from the backend, even an error status,
// means online. The connection is assumed up until a probe fails.
type probe struct {
	getter client.Getter
	path   string
	every  time.Duration
	logger core.Logger
	emit   func(online bool)

	online bool
}

func newProbe(getter client.Getter, path string, logger core.Logger, emit func(bool)) *probe {
	return &probe{getter: getter, path: path, every: probeEvery, logger: logger, emit: emit, online: true}
}

func (p *probe) run(ctx context.Context) error {
	ticker := time.NewTicker(p.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *probe) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.every)
	defer cancel()

	_, err := p.getter.Get(ctx, p.path)
	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}
	var rErr *client.ResponseError
	online := err == nil || errors.As(err, &rErr) || errors.Is(err, client.ErrMalformed)
	if online == p.online {
		return
	}
	p.online = online
	p.logger.Info("network status changed", map[string]interface{}{"online": online})
	p.emit(online)
}
