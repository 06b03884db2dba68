package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"train-reservation/models"
	"train-reservation/pricing"
)

// QuoteQuery identifies one leg of a train
type QuoteQuery struct {
	TrainID       int `form:"train_id" binding:"required,gt=0"`
	OriginID      int `form:"origin_id" binding:"required,gt=0"`
	DestinationID int `form:"destination_id" binding:"required,gt=0,nefield=OriginID"`
}

// QuoteResponse is a consistency record with its fares listed cheapest first
type QuoteResponse struct {
	pricing.ConsistencyRecord
	Classes []pricing.FareQuote `json:"classes"`
}

// GetStations returns all available stations
func (h *Handler) GetStations(c *gin.Context) {
	stations, err := h.stations.GetAllStations(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve stations")
		return
	}

	c.JSON(http.StatusOK, stations)
}

// SearchTrains searches for available trains
func (h *Handler) SearchTrains(c *gin.Context) {
	var req models.SearchRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Debug().Str("origin", req.Origin).Str("destination", req.Destination).Str("date", req.Date).Msg("Search request")

	results, err := h.search.SearchTrains(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to search trains")
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetTrain returns a train with its seat capacity per class
func (h *Handler) GetTrain(c *gin.Context) {
	trainID, ok := trainIDParam(c)
	if !ok {
		return
	}

	train, err := h.routes.GetTrain(c.Request.Context(), trainID)
	if err != nil {
		respondError(c, err, "Failed to retrieve train")
		return
	}

	c.JSON(http.StatusOK, train)
}

// GetTrainRoute returns the stop list of a train
func (h *Handler) GetTrainRoute(c *gin.Context) {
	trainID, ok := trainIDParam(c)
	if !ok {
		return
	}

	route, err := h.routes.GetScheduleForTrain(c.Request.Context(), trainID)
	if err != nil {
		respondError(c, err, "Failed to retrieve route")
		return
	}
	if len(route.Stops) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Train has no schedule"})
		return
	}

	c.JSON(http.StatusOK, route)
}

// GetQuote returns the consistency record of a leg
func (h *Handler) GetQuote(c *gin.Context) {
	var query QuoteQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.quotes.Quote(c.Request.Context(), query.TrainID, query.OriginID, query.DestinationID)
	if err != nil {
		respondError(c, err, "Failed to quote fares")
		return
	}

	c.JSON(http.StatusOK, QuoteResponse{
		ConsistencyRecord: record,
		Classes:           record.Fares.Quotes(),
	})
}

// ReplaceTrainStops replaces a train's schedule and drops every record computed from the old one
func (h *Handler) ReplaceTrainStops(c *gin.Context) {
	trainID, ok := trainIDParam(c)
	if !ok {
		return
	}

	var req models.RouteUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	route, err := models.ToRoute(trainID, req.Stops)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.routes.ReplaceSchedule(c.Request.Context(), route); err != nil {
		respondError(c, err, "Failed to replace schedule")
		return
	}

	sharedCacheCleared := true
	if err := h.quotes.ScheduleChanged(c.Request.Context(), trainID); err != nil {
		log.Error().Err(err).Int("train", trainID).Msg("Schedule replaced but shared records were not invalidated")
		sharedCacheCleared = false
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"train_id":             trainID,
		"stops":                len(route.Stops),
		"shared_cache_cleared": sharedCacheCleared,
	})
}

func trainIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid train ID"})
		return 0, false
	}
	return id, true
}
