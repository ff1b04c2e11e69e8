package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Registrar mounts its routes under the versioned API group
type Registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts pharmacy route groups under /api/<version>, behind the
// middleware that establishes the acting user.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []Registrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the API prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// WithMiddleware adds middleware that runs on every API route but not on
// engine-level routes such as /health.
func WithMiddleware(middleware ...gin.HandlerFunc) RouterOption {
	return func(r *Router) { r.middleware = append(r.middleware, middleware...) }
}

// NewRouter creates a Router for engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prefix returns the API prefix routes are mounted under
func (r *Router) Prefix() string {
	return "/api/" + r.apiVersion
}

// Register queues registrars for Setup
func (r *Router) Register(registrars ...Registrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts every registered group on the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.Prefix(), r.middleware...)
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
	}
}

// Route is one method and path relative to its group
type Route struct {
	Method string
	Path   string
}

type route struct {
	Route
	handlers []gin.HandlerFunc
}

// RouteGroup collects the routes of one area of the pharmacy (purchases,
// sales, stock) under a shared prefix.
type RouteGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*RouteGroup
}

// NewRouteGroup creates an empty group mounted at prefix
func NewRouteGroup(name, prefix string) *RouteGroup {
	return &RouteGroup{name: name, prefix: prefix}
}

// Name returns the group name
func (g *RouteGroup) Name() string { return g.name }

// Prefix returns the group prefix
func (g *RouteGroup) Prefix() string { return g.prefix }

// Use adds middleware for this group and its children
func (g *RouteGroup) Use(middleware ...gin.HandlerFunc) *RouteGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// Handle adds a route
func (g *RouteGroup) Handle(method, relPath string, handlers ...gin.HandlerFunc) *RouteGroup {
	g.routes = append(g.routes, route{Route: Route{Method: method, Path: relPath}, handlers: handlers})
	return g
}

func (g *RouteGroup) GET(relPath string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodGet, relPath, handlers...)
}

func (g *RouteGroup) POST(relPath string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodPost, relPath, handlers...)
}

func (g *RouteGroup) PUT(relPath string, handlers ...gin.HandlerFunc) *RouteGroup {
	return g.Handle(http.MethodPut, relPath, handlers...)
}

// Child adds a nested group under this group's prefix
func (g *RouteGroup) Child(name, prefix string) *RouteGroup {
	child := NewRouteGroup(name, prefix)
	g.children = append(g.children, child)
	return child
}

// Routes lists the group's routes with paths joined to the group prefix,
// children included.
func (g *RouteGroup) Routes() []Route {
	var out []Route
	for _, rt := range g.routes {
		out = append(out, Route{Method: rt.Method, Path: joinPath(g.prefix, rt.Path)})
	}
	for _, child := range g.children {
		for _, rt := range child.Routes() {
			out = append(out, Route{Method: rt.Method, Path: joinPath(g.prefix, rt.Path)})
		}
	}
	return out
}

// RegisterRoutes implements Registrar
func (g *RouteGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix, g.middleware...)
	for _, rt := range g.routes {
		group.Handle(rt.Method, rt.Path, rt.handlers...)
	}
	for _, child := range g.children {
		child.RegisterRoutes(group)
	}
}

func joinPath(prefix, rel string) string {
	if rel == "" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	return path.Join("/", prefix, rel)
}
