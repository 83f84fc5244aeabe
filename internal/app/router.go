package app

import (
	"sync"

	"github.com/avachat/chat-widget/internal/core/domain"
)

// Router implements ports.Navigator by recording the current view.
type Router struct {
	mu      sync.Mutex
	current domain.Route
	subs    []func(domain.Route)
}

func NewRouter() *Router {
	return &Router{current: domain.RouteAuth}
}

func (r *Router) Navigate(route domain.Route) {
	r.mu.Lock()
	r.current = route
	subs := append([]func(domain.Route){}, r.subs...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(route)
	}
}

// Current returns the route the view should show.
func (r *Router) Current() domain.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// OnChange registers fn for every navigation.
func (r *Router) OnChange(fn func(domain.Route)) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}
