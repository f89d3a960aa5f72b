package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo"
	log "github.com/sirupsen/logrus"

	"github.com/finsight/marketcal/pkg/api/resource"
	"github.com/finsight/marketcal/pkg/storage"
)

func (h *Handler) handleFetchEvents(c echo.Context) error {
	ticker := c.QueryParam("ticker")

	if ticker == "" {
		m, err := h.store.Events().FetchAll()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, resource.NewEventList(m))
	}

	m, err := h.store.Events().FetchByTicker(ticker)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	if len(m) == 0 {
		// Never-before-seen ticker: populate it on demand and re-query
		// instead of returning an empty list forever.
		log.WithField("ticker", ticker).Info("api: no stored events, triggering on-demand ingest")
		h.ingest.RunTicker(c.Request().Context(), ticker)

		m, err = h.store.Events().FetchByTicker(ticker)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
	}

	return c.JSON(http.StatusOK, resource.NewEventList(m))
}

func (h *Handler) handleUpdateEvent(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id format"})
	}

	r := &resource.UpdateEventResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	u := r.Update()
	if u.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no valid fields to update"})
	}

	m, err := h.store.Events().UpdateByID(id, u)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resource.NewEvent(m))
}

func (h *Handler) handleTriggerIngest(c echo.Context) error {
	summary := h.ingest.RunFull(c.Request().Context())
	return c.JSON(http.StatusOK, summary)
}
