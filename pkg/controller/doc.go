// Package controller implements per-screen controllers.
//
// A controller is constructed by a route factory, activated once by
// Action, and destroyed by the router before the next controller is
// built. Base carries the state machine and owns everything the screen
// acquires: event listeners (through a registry), mounted components,
// cleanup functions such as closing a realtime session, and the scope
// that async continuations check before touching the document.
//
//	type ProfileController struct {
//	    controller.Base
//	    models model.Models
//	}
//
//	func (c *ProfileController) Action(ctx context.Context) error {
//	    if err := c.Activate(); err != nil {
//	        return err
//	    }
//	    controller.Await(&c.Base, c.models.GetProfile, c.showProfile)
//	    return nil
//	}
package controller
