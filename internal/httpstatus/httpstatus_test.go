package httpstatus

import (
	"net/http"
	"testing"
)

func TestMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want string
	}{
		{100, "Continue"},
		{200, "Ok"},
		{201, "Created"},
		{203, "Non-authoritive information"},
		{204, "No content"},
		{226, "Im used"},
		{308, "Permanent redirect"},
		{400, "Bad request"},
		{404, "Not found"},
		{414, "Request-URI too long"},
		{418, "Im a teapot"},
		{444, "Connection closed without response"},
		{499, "Client closed request"},
		{500, "Internal server error"},
		{511, "Network authentication required"},
		{599, "Network connection timeout error"},
	}

	for _, tt := range tests {
		if got := Message(tt.code); got != tt.want {
			t.Errorf("Message(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestMessage_Unknown(t *testing.T) {
	t.Parallel()

	for _, code := range []int{-1, 0, 1, 103, 209, 306, 420, 425, 509, 600, 9999} {
		if got := Message(code); got != Unknown {
			t.Errorf("Message(%d) = %q, want %q", code, got, Unknown)
		}
	}
}

func TestMessage_CoversStandardCodesUsedByHandlers(t *testing.T) {
	t.Parallel()

	codes := []int{
		http.StatusOK,
		http.StatusCreated,
		http.StatusNoContent,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed,
		http.StatusConflict,
		http.StatusRequestEntityTooLarge,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusServiceUnavailable,
	}

	for _, code := range codes {
		if Message(code) == Unknown {
			t.Errorf("status %d has no message", code)
		}
	}
}

func TestIsSuccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{300, false},
		{404, false},
	}

	for _, tt := range tests {
		if got := IsSuccess(tt.code); got != tt.want {
			t.Errorf("IsSuccess(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
