package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"train-reservation/models"
	"train-reservation/pricing"
	"train-reservation/services"
)

// StationLister lists stations for autocomplete
type StationLister interface {
	GetAllStations(ctx context.Context) ([]models.Station, error)
}

// TrainSearcher finds priced trains between two stations
type TrainSearcher interface {
	SearchTrains(ctx context.Context, req models.SearchRequest) ([]models.SearchResponse, error)
}

// RouteManager reads trains and replaces their schedules
type RouteManager interface {
	GetTrain(ctx context.Context, trainID int) (*models.Train, error)
	GetScheduleForTrain(ctx context.Context, trainID int) (models.Route, error)
	ReplaceSchedule(ctx context.Context, route models.Route) error
}

// QuoteProvider is the consistency cache as seen by the API
type QuoteProvider interface {
	Quote(ctx context.Context, trainID, originID, destinationID int) (pricing.ConsistencyRecord, error)
	ScheduleChanged(ctx context.Context, trainID int) error
}

// BookingManager creates, reads and cancels bookings
type BookingManager interface {
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingRef string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingRef string) error
}

// PaymentProcessor settles bookings and issues invoices
type PaymentProcessor interface {
	ConfirmPayment(ctx context.Context, bookingRef string, req models.PaymentRequest) (*models.Payment, error)
	GetInvoice(ctx context.Context, bookingRef string) (*models.Invoice, error)
}

// Handler serves the reservation API
type Handler struct {
	stations StationLister
	search   TrainSearcher
	routes   RouteManager
	quotes   QuoteProvider
	bookings BookingManager
	payments PaymentProcessor
}

// NewHandler creates a Handler from its collaborators
func NewHandler(stations StationLister, search TrainSearcher, routes RouteManager, quotes QuoteProvider, bookings BookingManager, payments PaymentProcessor) *Handler {
	return &Handler{
		stations: stations,
		search:   search,
		routes:   routes,
		quotes:   quotes,
		bookings: bookings,
		payments: payments,
	}
}

// RegisterRoutes mounts the API under the given group
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Station routes
	api.GET("/stations", h.GetStations)

	// Train routes
	api.POST("/search", h.SearchTrains)
	api.GET("/trains/:id", h.GetTrain)
	api.GET("/trains/:id/route", h.GetTrainRoute)
	api.GET("/quotes", h.GetQuote)

	// Booking routes
	api.POST("/bookings", h.CreateBooking)
	api.GET("/bookings/:ref", h.GetBooking)
	api.DELETE("/bookings/:ref", h.CancelBooking)
	api.POST("/bookings/:ref/payment", h.ConfirmPayment)
	api.GET("/bookings/:ref/invoice", h.GetInvoice)

	// Fleet management
	api.PUT("/admin/trains/:id/stops", h.ReplaceTrainStops)
}

// statusFor maps service and engine errors to HTTP status codes
func statusFor(err error) int {
	var notFound *pricing.NotFoundError
	var invalidRoute *pricing.InvalidRouteError

	switch {
	case errors.Is(err, services.ErrStationNotFound),
		errors.Is(err, services.ErrTrainNotFound),
		errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInsufficientSeats),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrAlreadyCancelled),
		errors.Is(err, services.ErrBookingCancelled):
		return http.StatusConflict
	case errors.Is(err, services.ErrAmountMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrInvalidRoute),
		errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, services.ErrNotRunning),
		errors.Is(err, services.ErrClassNotOffered),
		errors.Is(err, pricing.ErrUnknownClass),
		errors.As(err, &invalidRoute):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body; internal failures are logged and hidden from the client
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg(message)
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
