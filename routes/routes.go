package routes

import (
	"wayfarer/handlers"
	"wayfarer/middleware"
	"wayfarer/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddSessionRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, api *handlers.API) {
	router.POST("/api/planner/session", rateLimiter.Limit(middleware.OptionalAuth(api.StartSession)))
	router.GET("/api/planner/sessions", rateLimiter.Limit(middleware.Authenticate(api.ListSessions)))
	router.GET("/api/planner/session/:id", rateLimiter.Limit(middleware.OptionalAuth(api.GetSession)))
	router.POST("/api/planner/session/:id/turn", rateLimiter.Limit(middleware.OptionalAuth(api.RunAgentTurn)))
	router.POST("/api/planner/session/:id/day/:day", rateLimiter.Limit(middleware.OptionalAuth(api.ModifyDay)))
	router.PUT("/api/planner/session/:id/trip", rateLimiter.Limit(middleware.OptionalAuth(api.UpdateTripInfo)))
	router.POST("/api/planner/session/:id/activities", rateLimiter.Limit(middleware.OptionalAuth(api.SelectActivities)))
}

func AddPlanRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, api *handlers.API) {
	router.POST("/api/planner/plan", rateLimiter.Limit(api.GeneratePlan))
	router.POST("/api/planner/plan/modify", rateLimiter.Limit(api.ModifyPlan))
	router.POST("/api/planner/flights/search", rateLimiter.Limit(api.SearchFlights))
	router.POST("/api/planner/hotels/search", rateLimiter.Limit(api.SearchHotels))
}
