package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core"
)

type errGetter struct {
	errs []error
	i    int
}

func (g *errGetter) Get(context.Context, string) (client.Envelope, error) {
	err := g.errs[g.i]
	g.i++
	return client.Envelope{Success: err == nil}, err
}

func TestProbe_Check(t *testing.T) {
	g := &errGetter{errs: []error{
		nil,
		errors.New("dial tcp: connection refused"),
		errors.New("dial tcp: connection refused"),
		&client.ResponseError{StatusCode: 503, Path: "/api/settings"},
		nil,
	}}
	var got []bool
	p := newProbe(g, "/api/settings", core.NopLogger{}, func(online bool) { got = append(got, online) })

	for range g.errs {
		p.check(context.Background())
	}
	assert.Equal(t, []bool{false, true}, got, "only changes are reported, any HTTP answer means online")
}

func TestProbe_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newProbe(&errGetter{}, "/", core.NopLogger{}, func(bool) { t.Error("unexpected status") })
	assert.NoError(t, p.run(ctx))
}
