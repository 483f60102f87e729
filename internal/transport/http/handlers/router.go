package handlers

import "github.com/gin-gonic/gin"

type Router struct {
	handler *Handler
}

func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

func (r *Router) RegisterRoutes(engine *gin.Engine, idempotency gin.HandlerFunc) {
	engine.GET("/healthz", r.handler.health)

	api := engine.Group("/api")

	screens := api.Group("/screens")
	screens.POST("", idempotency, r.handler.createScreen)
	screens.GET("", r.handler.listScreens)
	screens.GET("/:id", r.handler.getScreen)
	screens.PATCH("/:id", r.handler.updateScreen)
	screens.DELETE("/:id", r.handler.deleteScreen)

	menus := api.Group("/menu-items")
	menus.POST("", r.handler.createMenuItem)
	menus.GET("", r.handler.listMenuItems)
	menus.GET("/:id", r.handler.getMenuItem)
	menus.PATCH("/:id", r.handler.updateMenuItem)
	menus.DELETE("/:id", r.handler.deleteMenuItem)
}
