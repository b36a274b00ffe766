// Package noop stands in for an exec tracer where none can be attached.
package noop

import (
	"context"
	"errors"

	"tcbench/core/profiling"
)

// Controller observes nothing. Each session reports Reason once on its
// error channel so the engine can log why counts are missing.
type Controller struct {
	Reason string
}

type session struct {
	events chan profiling.Event
	errors chan error
}

func NewController(reason string) *Controller {
	return &Controller{Reason: reason}
}

func (c *Controller) Start(ctx context.Context, target profiling.Target) (profiling.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_ = target
	s := &session{
		events: make(chan profiling.Event),
		errors: make(chan error, 1),
	}
	close(s.events)
	if c.Reason != "" {
		s.errors <- errors.New(c.Reason)
	}
	close(s.errors)
	return s, nil
}

func (c *Controller) Capabilities() profiling.Capabilities {
	return profiling.Capabilities{}
}

func (s *session) Events() <-chan profiling.Event { return s.events }
func (s *session) Errors() <-chan error           { return s.errors }
func (s *session) Close() error                   { return nil }

var _ profiling.Controller = (*Controller)(nil)
