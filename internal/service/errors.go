package service

import "errors"

var (
	ErrInvalidPhoneNumber     = errors.New("invalid phone number")
	ErrUnknownSession         = errors.New("unknown session")
	ErrQRTimeout              = errors.New("timed out waiting for qr code")
	ErrPairingCodeUnavailable = errors.New("pairing code unavailable")
	ErrProviderUnavailable    = errors.New("connection provider unavailable")
	ErrRegistryClosed         = errors.New("session registry closed")
)
