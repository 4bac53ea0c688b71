package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusSuccess = "success"
	statusError   = "error"
	statusIgnored = "ignored"
	statusOK      = "ok"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// orderResultBody is the public view of a placed order.
type orderResultBody struct {
	OrderID     string `json:"order_id,omitempty"`
	Pair        string `json:"pair"`
	Side        string `json:"side"`
	Volume      string `json:"volume"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
}

type successResponse struct {
	Status      string          `json:"status"`
	RequestID   string          `json:"request_id"`
	OrderResult orderResultBody `json:"order_result"`
}

type ignoredResponse struct {
	Status      string  `json:"status"`
	Reason      string  `json:"reason"`
	WaitSeconds float64 `json:"wait_seconds"`
	RequestID   string  `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status    string   `json:"status"`
	Service   string   `json:"service"`
	Endpoints []string `json:"endpoints"`
}

type balanceResponse struct {
	Status   string            `json:"status"`
	Balances map[string]string `json:"balances"`
}

type journalEntry struct {
	ID          int64  `json:"id"`
	RequestID   string `json:"request_id"`
	ReceivedAt  string `json:"received_at"`
	Pair        string `json:"pair,omitempty"`
	Side        string `json:"side,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Volume      string `json:"volume,omitempty"`
	Price       string `json:"price,omitempty"`
	Outcome     string `json:"outcome"`
	OrderID     string `json:"order_id,omitempty"`
	ErrorDetail string `json:"error,omitempty"`
}

type journalResponse struct {
	Status  string         `json:"status"`
	Entries []journalEntry `json:"entries"`
}

func abortError(c *gin.Context, code int, message string, err error) {
	body := errorResponse{
		Status:    statusError,
		Message:   message,
		RequestID: c.GetString(requestIDKey),
	}
	if err != nil {
		body.Error = err.Error()
	}
	c.AbortWithStatusJSON(code, body)
}

func unauthorized(c *gin.Context) {
	// Fixed body, identical for every auth failure.
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": statusError, "message": "unauthorized"})
}
