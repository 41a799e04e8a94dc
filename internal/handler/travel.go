package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/service"
	"github.com/maxviazov/agency-travels-service/pkg/response"
)

const serviceTimeout = 15 * time.Second

type TravelHandler struct {
	svc service.TravelService
}

func NewTravelHandler(svc service.TravelService) *TravelHandler { return &TravelHandler{svc: svc} }

func (h *TravelHandler) Register(r *gin.RouterGroup) {
	r.Group("/agencies").GET("/:code/travels", h.list)
}

type travelQuery struct {
	StartDateFrom  string `form:"start_date_from"`
	StartDateUntil string `form:"start_date_until"`
	EndDateFrom    string `form:"end_date_from"`
	EndDateUntil   string `form:"end_date_until"`
}

func (h *TravelHandler) list(c *gin.Context) {
	var q travelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	page := 1
	if raw, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.WriteError(c, service.NewInvalidInputError([]service.FieldError{{Field: "page", Message: "must be a valid integer"}}))
			return
		}
		page = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), serviceTimeout)
	defer cancel()

	filter := model.SearchFilter{
		StartDateFrom:  q.StartDateFrom,
		StartDateUntil: q.StartDateUntil,
		EndDateFrom:    q.EndDateFrom,
		EndDateUntil:   q.EndDateUntil,
	}
	res, err := h.svc.ListTravels(ctx, c.Param("code"), filter, page)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}
