package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"krakenWebhook/internal/app"
	"krakenWebhook/internal/domain"
	"krakenWebhook/internal/ports"
)

const defaultJournalLimit = 50

// AlertProcessor is the application surface the handlers drive.
type AlertProcessor interface {
	Execute(ctx context.Context, requestID string, body []byte) (*app.Execution, error)
	Balances(ctx context.Context) (map[string]decimal.Decimal, error)
	RecentAlerts(ctx context.Context, limit int) ([]*domain.AlertRecord, error)
}

type handlers struct {
	processor    AlertProcessor
	logger       ports.Logger
	serviceName  string
	endpoints    []string
	maxBodyBytes int64
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:    statusOK,
		Service:   h.serviceName,
		Endpoints: h.endpoints,
	})
}

func (h *handlers) webhook(c *gin.Context) {
	requestID := c.GetString(requestIDKey)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		h.logger.Warn(c.Request.Context(), "Failed to read webhook body", map[string]interface{}{
			"requestID": requestID,
			"error":     err.Error(),
		})
		abortError(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	exec, err := h.processor.Execute(c.Request.Context(), requestID, body)
	if err == nil {
		c.JSON(http.StatusOK, successResponse{
			Status:      statusSuccess,
			RequestID:   requestID,
			OrderResult: orderBody(exec),
		})
		return
	}

	if exec == nil {
		exec = &app.Execution{}
	}
	switch exec.Outcome {
	case domain.OutcomeRateLimited:
		c.JSON(http.StatusOK, ignoredResponse{
			Status:      statusIgnored,
			Reason:      string(domain.OutcomeRateLimited),
			WaitSeconds: roundSeconds(exec.RetryAfter),
			RequestID:   requestID,
		})
	case domain.OutcomeInvalid:
		abortError(c, http.StatusBadRequest, "invalid payload", nil)
	case domain.OutcomeInvalidVolume:
		abortError(c, http.StatusBadRequest, string(domain.OutcomeInvalidVolume), err)
	case domain.OutcomePriceFailed:
		abortError(c, http.StatusInternalServerError, string(domain.OutcomePriceFailed), err)
	case domain.OutcomeOrderFailed:
		code := http.StatusInternalServerError
		if errors.Is(err, ports.ErrOrderRejected) {
			code = http.StatusBadRequest
		}
		abortError(c, code, string(domain.OutcomeOrderFailed), err)
	default:
		abortError(c, http.StatusInternalServerError, "internal_error", err)
	}
}

func (h *handlers) balance(c *gin.Context) {
	balances, err := h.processor.Balances(c.Request.Context())
	if err != nil {
		abortError(c, http.StatusBadRequest, "balance_failed", err)
		return
	}
	out := make(map[string]string, len(balances))
	for asset, amount := range balances {
		out[asset] = amount.String()
	}
	c.JSON(http.StatusOK, balanceResponse{Status: statusSuccess, Balances: out})
}

func (h *handlers) journal(c *gin.Context) {
	limit := defaultJournalLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			abortError(c, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = n
	}
	records, err := h.processor.RecentAlerts(c.Request.Context(), limit)
	if err != nil {
		abortError(c, http.StatusInternalServerError, "journal_failed", err)
		return
	}
	entries := make([]journalEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, journalEntry{
			ID:          r.ID,
			RequestID:   r.RequestID,
			ReceivedAt:  r.ReceivedAt.UTC().Format(time.RFC3339),
			Pair:        r.Pair.String(),
			Side:        string(r.Side),
			Amount:      optionalDecimal(r.Amount),
			Volume:      optionalDecimal(r.Volume),
			Price:       optionalDecimal(r.Price),
			Outcome:     string(r.Outcome),
			OrderID:     r.OrderID,
			ErrorDetail: r.ErrorDetail,
		})
	}
	c.JSON(http.StatusOK, journalResponse{Status: statusSuccess, Entries: entries})
}

func (h *handlers) notFound(c *gin.Context) {
	abortError(c, http.StatusNotFound, "not found", nil)
}

func orderBody(exec *app.Execution) orderResultBody {
	body := orderResultBody{
		Pair:   exec.Pair.String(),
		Side:   string(exec.Intent.Action),
		Volume: exec.Volume.StringFixed(domain.VolumeScale),
		Price:  exec.Price.String(),
	}
	if exec.Result != nil {
		body.OrderID = exec.Result.OrderID
		body.Description = exec.Result.Description
	}
	return body
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}

func optionalDecimal(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func sortedEndpoints(endpoints []string) []string {
	out := append([]string(nil), endpoints...)
	sort.Strings(out)
	return out
}
