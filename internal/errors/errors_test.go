package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestBackendErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := NewBackendError("get_user", 404, ErrNotFound)

	if !errors.Is(err, ErrNotFound) {
		t.Error("Expected errors.Is to match the wrapped sentinel")
	}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatal("Expected errors.As to match *BackendError")
	}
	if backendErr.Endpoint != "get_user" {
		t.Errorf("Expected endpoint 'get_user', got %q", backendErr.Endpoint)
	}
	if backendErr.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", backendErr.StatusCode)
	}
}

func TestBackendErrorMessage(t *testing.T) {
	t.Parallel()

	withStatus := NewBackendError("scan_code", 500, errors.New("boom"))
	if !strings.Contains(withStatus.Error(), "status=500") {
		t.Errorf("Expected status in message, got %q", withStatus.Error())
	}

	// Transport failures carry no status code.
	noStatus := NewBackendError("scan_code", 0, errors.New("dial refused"))
	if strings.Contains(noStatus.Error(), "status=") {
		t.Errorf("Expected no status in message, got %q", noStatus.Error())
	}
}

func TestDeliveryErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("timeout")
	err := NewDeliveryError("#welcome", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to match the cause")
	}

	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatal("Expected errors.As to match *DeliveryError")
	}
	if deliveryErr.Template != "#welcome" {
		t.Errorf("Expected template '#welcome', got %q", deliveryErr.Template)
	}
}
