package errors

import "fmt"

var (
	ErrNameTaken          = fmt.Errorf("display name already taken")
	ErrEmptyBody          = fmt.Errorf("message body is empty")
	ErrUnknownSender      = fmt.Errorf("sender is not connected")
	ErrNotFound           = fmt.Errorf("identity not found")
	ErrGatewayUnavailable = fmt.Errorf("persistence gateway unavailable")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
