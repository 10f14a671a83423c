// Package notfound is the screen for paths no route matches.
package notfound

import (
	"context"

	"github.com/eventum-app/eventum/app/views"
	"github.com/eventum-app/eventum/pkg/controller"
	"github.com/eventum-app/eventum/pkg/router"
)

// Factory returns the router factory for the screen.
func Factory() router.Factory {
	return func(env controller.Env, params router.Params) (controller.Controller, error) {
		c := &Controller{}
		c.Init(env)
		return c, nil
	}
}

// Controller shows the not-found page.
type Controller struct {
	controller.Base
}

func (c *Controller) Action(ctx context.Context) error {
	if err := c.Activate(); err != nil {
		return err
	}
	_, err := c.Show(views.NotFound())
	return err
}
