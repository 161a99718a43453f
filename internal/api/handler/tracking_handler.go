package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/tracking-service/internal/core/domain"
	"github.com/99minutos/tracking-service/internal/core/ports"
)

const skybillParam = "skybillNumber"

// TrackingHandler serves parcel status lookups.
type TrackingHandler struct {
	service ports.TrackingService
}

func NewTrackingHandler(service ports.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

type trackingRequest struct {
	SkybillNumber string `json:"skybillNumber" validate:"required"`
}

// Get handles GET /tracking?skybillNumber=...
//
// @Summary      Track a parcel
// @Description  Looks up a skybill number on the carrier web service and returns a normalized status.
// @Tags         tracking
// @Produce      json
// @Param        skybillNumber  query     string  true  "Skybill (parcel) number"
// @Success      200            {object}  domain.TrackingResult
// @Failure      400            {object}  map[string]string
// @Failure      429            {object}  map[string]string
// @Failure      500            {object}  map[string]string
// @Router       /tracking [get]
func (h *TrackingHandler) Get(c echo.Context) error {
	skybill := strings.TrimSpace(c.QueryParam(skybillParam))
	if skybill == "" {
		return &domain.MissingParameterError{Param: skybillParam}
	}
	return h.track(c, skybill)
}

// Post handles POST /tracking with a JSON body.
//
// @Summary      Track a parcel
// @Description  Same as GET, with the skybill number in the request body.
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        body  body      trackingRequest  true  "Lookup request"
// @Success      200   {object}  domain.TrackingResult
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /tracking [post]
func (h *TrackingHandler) Post(c echo.Context) error {
	var req trackingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.SkybillNumber = strings.TrimSpace(req.SkybillNumber)
	if err := c.Validate(&req); err != nil {
		return &domain.MissingParameterError{Param: skybillParam, InBody: true}
	}
	return h.track(c, req.SkybillNumber)
}

func (h *TrackingHandler) track(c echo.Context, skybill string) error {
	result, err := h.service.Track(c.Request().Context(), skybill)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
