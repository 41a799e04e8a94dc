package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
	"github.com/maxviazov/agency-travels-service/internal/service"
	"github.com/maxviazov/agency-travels-service/pkg/response"
)

type AgencyHandler struct {
	svc service.AgencyService
}

func NewAgencyHandler(svc service.AgencyService) *AgencyHandler { return &AgencyHandler{svc: svc} }

func (h *AgencyHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/agencies")
	{
		g.GET("", h.list)
		// travels are nested under the same wildcard name, see TravelHandler
		g.GET("/:code", h.getByCode)
	}
}

// list serves both the plain listing and, with ?q=, the name search.
func (h *AgencyHandler) list(c *gin.Context) {
	// Atoi errors are ignored: 0 means default, handled by the service layer.
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	page := repository.Page{Limit: limit, Offset: offset}

	var (
		res repository.PageResult[model.PublicAgency]
		err error
	)
	if q, ok := c.GetQuery("q"); ok {
		res, err = h.svc.SearchAgencies(c.Request.Context(), q, page)
	} else {
		res, err = h.svc.ListAgencies(c.Request.Context(), page)
	}
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *AgencyHandler) getByCode(c *gin.Context) {
	agency, err := h.svc.GetAgency(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, agency)
}
