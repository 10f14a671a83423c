// Package app wires the eventum screens into a route table.
package app

import (
	"log/slog"

	"github.com/eventum-app/eventum/app/chats"
	"github.com/eventum-app/eventum/app/login"
	"github.com/eventum-app/eventum/app/notfound"
	"github.com/eventum-app/eventum/app/profile"
	"github.com/eventum-app/eventum/app/search"
	"github.com/eventum-app/eventum/pkg/assets"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/realtime"
	"github.com/eventum-app/eventum/pkg/router"
)

// Deps are the services shared by every screen. Only Models is required.
type Deps struct {
	Models  model.Models
	Tags    *model.TagCache
	Channel *realtime.Channel
	Assets  assets.Resolver
	Logger  *slog.Logger
}

// Routes returns the route table in registration order.
func Routes(deps Deps) []router.Route {
	searchScreen := search.Factory(search.Deps{Models: deps.Models, Tags: deps.Tags, Assets: deps.Assets})
	chatScreen := chats.Factory(chats.Deps{Models: deps.Models, Channel: deps.Channel, Assets: deps.Assets})
	return []router.Route{
		{Pattern: "/", Factory: searchScreen},
		{Pattern: profile.Path, Factory: profile.Factory(profile.Deps{Models: deps.Models, Tags: deps.Tags, Assets: deps.Assets})},
		{Pattern: search.Path, Factory: searchScreen},
		{Pattern: chats.Path, Factory: chatScreen},
		{Pattern: chats.ChatPath, Factory: chatScreen},
		{Pattern: login.Path, Factory: login.Factory(login.Deps{Models: deps.Models})},
	}
}

// NotFound returns the factory for unmatched paths.
func NotFound() router.Factory {
	return notfound.Factory()
}

// Install registers the route table and the not-found screen on r.
func Install(r *router.Router, deps Deps) error {
	if err := r.HandleRoutes(Routes(deps)); err != nil {
		return err
	}
	r.NotFound(NotFound())
	if deps.Logger != nil {
		deps.Logger.Debug("routes installed", "count", len(r.Routes()))
	}
	return nil
}
