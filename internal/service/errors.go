package service

import "errors"

var (
	ErrAlreadyBound      = errors.New("connection already bound to another user")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNotIdentified     = errors.New("connection not identified")
	ErrProtocol          = errors.New("protocol error")
	ErrDeliveryFailure   = errors.New("delivery failure")
	ErrInvalidStatus     = errors.New("invalid message status")
)
