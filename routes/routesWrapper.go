package routes

import (
	"wayfarer/handlers"
	"wayfarer/ratelim"

	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, api *handlers.API) {
	AddSessionRoutes(router, rateLimiter, api)
	AddPlanRoutes(router, rateLimiter, api)
}
