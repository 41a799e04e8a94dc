package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/maxviazov/agency-travels-service/internal/service"
	"github.com/rs/zerolog"
)

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, repo Pinger, agencySvc service.AgencyService, travelSvc service.TravelService, logger zerolog.Logger) {
	h := NewHealthHandler(repo)

	r.Use(RequestID(), AccessLog(logger))

	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		NewAgencyHandler(agencySvc).Register(api)
		NewTravelHandler(travelSvc).Register(api)
	}
}
