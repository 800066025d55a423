package cijene

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized    = errors.New("Neispravna autentifikacija za Cijene API")
	ErrNotFound        = errors.New("Traženi resurs nije pronađen")
	ErrUpstream        = errors.New("Greška na serveru. Pokušajte ponovo kasnije")
	ErrTimeout         = errors.New("Zahtjev je istekao. Pokušajte ponovo")
	ErrInvalidResponse = errors.New("invalid response from Cijene API")
	ErrInvalidParams   = errors.New("invalid request parameters")
)

// APIError is a failed upstream call. Status is the upstream HTTP status, or
// zero when no response was received.
type APIError struct {
	Status  int
	Message string
	Body    string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("cijene: %s (status %d)", e.Message, e.Status)
	}
	return "cijene: " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error onto the status a proxy should answer with.
func (e *APIError) HTTPStatus() int {
	switch {
	case e.Status >= 400:
		return e.Status
	case errors.Is(e.Err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(e.Err, ErrInvalidResponse):
		return http.StatusBadGateway
	case e.Status == 0:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func statusError(status int, body string) *APIError {
	var sentinel error
	switch {
	case status == http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case status == http.StatusNotFound:
		sentinel = ErrNotFound
	case status >= 500:
		sentinel = ErrUpstream
	default:
		sentinel = fmt.Errorf("Cijene API error: status %d", status)
	}
	return &APIError{Status: status, Message: sentinel.Error(), Body: body, Err: sentinel}
}
