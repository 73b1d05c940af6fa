// Package billingwebhook реализует приём событий платёжной платформы.
package billingwebhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-backend/internal/billing"
	"github.com/magabrotheeeer/saas-backend/internal/http/response"
	"github.com/magabrotheeeer/saas-backend/internal/lib/sl"
)

// Тело вебхука читается целиком для проверки подписи, лимит защищает
// от произвольно больших запросов.
const maxBodySize = 1 << 20

// Service описывает интерфейс обработки событий платёжной платформы.
type Service interface {
	HandleEvent(ctx context.Context, event *billing.Event) error
}

// Handler обрабатывает вебхуки платёжной платформы.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создает новый Handler с переданными логгером, сервисом и секретом подписи.
func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: webhookSecret,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платёжной платформы
// @Description Принимает подписанные события платёжной платформы и синхронизирует статусы подписок. Событие подтверждается даже при ошибке обработки, чтобы платформа не повторяла доставку бесконечно.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param Billing-Signature header string true "Подпись вида t=<unix>,v1=<hex>"
// @Param request body billing.Event true "Событие платёжной платформы"
// @Success 200 {object} response.Response "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Нечитаемое тело или событие"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Router /billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billingwebhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("could not read request body"))
		return
	}

	signature := r.Header.Get("Billing-Signature")
	if err := billing.VerifySignature(body, signature, h.webhookSecret, time.Now()); err != nil {
		if errors.Is(err, billing.ErrStaleTimestamp) {
			log.Warn("stale webhook timestamp", sl.Err(err))
		} else {
			log.Warn("invalid webhook signature", sl.Err(err))
		}
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	event, err := billing.ParseEvent(body)
	if err != nil {
		log.Error("failed to parse webhook event", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid event payload"))
		return
	}

	// Ошибка обработки не должна приводить к повторной доставке:
	// платформа получает 200, инцидент остаётся в логах.
	if err := h.service.HandleEvent(r.Context(), event); err != nil {
		log.Error("failed to process webhook event",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
			sl.Err(err))
	} else {
		log.Info("processed webhook event",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type))
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]string{"received": "true"}))
}
