package persistence

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	RoutePrimary   = "primary"
	RouteSecondary = "secondary"
)

// Router resolves a logical routing hint to a concrete database handle.
// Resolution never opens connections; it only selects between the pooled
// handles established at startup.
type Router struct {
	primary   *gorm.DB
	secondary *gorm.DB
}

// NewRouter wires the router from the startup handles. When the secondary is
// not configured, "secondary" resolves to the primary handle; the fallback is
// logged here once, not per call.
func NewRouter(primary, secondary *gorm.DB, log *logrus.Logger) *Router {
	if secondary == nil && log != nil {
		log.Warn("router: secondary database not configured, falling back to primary")
	}
	return &Router{primary: primary, secondary: secondary}
}

// Resolve maps "primary"/"secondary" to a handle. An empty or unknown hint
// resolves to the primary.
func (r *Router) Resolve(hint string) *gorm.DB {
	if hint == RouteSecondary && r.secondary != nil {
		return r.secondary
	}
	return r.primary
}
