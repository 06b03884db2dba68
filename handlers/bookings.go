package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"train-reservation/models"
)

// CreateBooking creates a new booking
func (h *Handler) CreateBooking(c *gin.Context) {
	var req models.BookingRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.BookingResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			respondError(c, err, "Failed to create booking")
			return
		}
		c.JSON(status, models.BookingResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.BookingResponse{
		Success: true,
		Message: "Booking created successfully",
		Booking: booking,
	})
}

// GetBooking retrieves a booking by reference
func (h *Handler) GetBooking(c *gin.Context) {
	booking, err := h.bookings.GetBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, err, "Failed to retrieve booking")
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CancelBooking cancels a booking
func (h *Handler) CancelBooking(c *gin.Context) {
	bookingRef := c.Param("ref")

	if err := h.bookings.CancelBooking(c.Request.Context(), bookingRef); err != nil {
		respondError(c, err, "Failed to cancel booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Booking %s cancelled successfully", bookingRef),
	})
}

// ConfirmPayment settles a booking for its stored total
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req models.PaymentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.payments.ConfirmPayment(c.Request.Context(), c.Param("ref"), req)
	if err != nil {
		respondError(c, err, "Failed to confirm payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetInvoice returns the invoice of a paid booking
func (h *Handler) GetInvoice(c *gin.Context) {
	invoice, err := h.payments.GetInvoice(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, err, "Failed to build invoice")
		return
	}

	c.JSON(http.StatusOK, invoice)
}
