package services

import "errors"

var (
	ErrStationNotFound   = errors.New("station not found")
	ErrTrainNotFound     = errors.New("train not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrInsufficientSeats = errors.New("insufficient seats available")
	ErrClassNotOffered   = errors.New("travel class not offered on this train")
	ErrNotRunning        = errors.New("train does not run on the selected date")
	ErrInvalidDate       = errors.New("invalid travel date")
	ErrInvalidRoute      = errors.New("invalid route")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrBookingCancelled  = errors.New("booking is cancelled")
	ErrAlreadyCancelled  = errors.New("booking already cancelled")
	ErrAlreadyPaid       = errors.New("booking already paid")
	ErrAmountMismatch    = errors.New("payment amount does not match booking total")
)
