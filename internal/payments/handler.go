package payments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"

	"github.com/arenahub/arenahub/internal/authz"
	"github.com/arenahub/arenahub/internal/platform/httpx"
	"github.com/arenahub/arenahub/internal/shared"
)

// Stripe caps webhook payloads well below this.
const maxWebhookBody = 1 << 20

// RepositoryPort defines the event log the handler depends on.
type RepositoryPort interface {
	Record(ctx context.Context, e Event) error
	List(ctx context.Context, limit, offset int) ([]Event, int, error)
}

// Handler receives provider webhooks and exposes the event log to admins.
type Handler struct {
	logger        *slog.Logger
	repo          RepositoryPort
	guard         authz.Guard
	webhookSecret string
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort, guard authz.Guard, webhookSecret string) *Handler {
	return &Handler{logger: logger, repo: repo, guard: guard, webhookSecret: webhookSecret}
}

// MountRoutes registers the webhook endpoint. Stripe authenticates by
// signature, not by session, so the route sits outside the guards.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/stripe/webhook", h.stripeWebhook)
}

// MountAdminRoutes registers the event log listing.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/events", h.guard.RequireAdmin(h.listEvents))
}

func (h *Handler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "unreadable body")
		return
	}

	event, err := stripewebhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret,
		stripewebhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Warn("stripe signature verification failed", slog.Any("error", err))
		httpx.Error(w, http.StatusBadRequest, "signature verification failed")
		return
	}

	record := Event{
		ID:         uuid.New(),
		ProviderID: event.ID,
		Type:       string(event.Type),
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}
	if err := h.repo.Record(r.Context(), record); err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			// Stripe retries until it sees 2xx; a redelivery is fine
			httpx.JSON(w, http.StatusOK, map[string]string{"status": "already recorded"})
			return
		}
		h.logger.Error("record payment event", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("payment event recorded",
		slog.String("provider_id", event.ID),
		slog.String("type", string(event.Type)))
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request, identity authz.Identity) {
	page, perPage := shared.PageFromRequest(r)
	p := shared.NewPagination(page, perPage, 0)
	events, total, err := h.repo.List(r.Context(), p.PerPage, p.Offset())
	if err != nil {
		h.logger.Error("list payment events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"events":     events,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}
