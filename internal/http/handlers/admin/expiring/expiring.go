// Package expiring реализует HTTP-обработчик списка истекающих подписок.
package expiring

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-backend/internal/http/response"
	"github.com/magabrotheeeer/saas-backend/internal/lib/sl"
	"github.com/magabrotheeeer/saas-backend/internal/models"
)

const (
	defaultDays = 7
	maxDays     = 90
)

// Service описывает интерфейс бизнес-логики истекающих подписок.
type Service interface {
	ExpiringSubscriptions(ctx context.Context, days int) ([]*models.ExpiringSubscription, error)
}

// Handler обрабатывает запросы на список истекающих подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Истекающие подписки
// @Description Возвращает подписки, период которых заканчивается в ближайшие дни. Только для администраторов.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param days query int false "Горизонт в днях (по умолчанию 7, максимум 90)"
// @Success 200 {object} response.Response "Список подписок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Router /admin/subscriptions/expiring [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.expiring"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	days := defaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			days = v
		}
	}
	if days > maxDays {
		days = maxDays
	}

	subs, err := h.service.ExpiringSubscriptions(r.Context(), days)
	if err != nil {
		log.Error("failed to list expiring subscriptions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list expiring subscriptions"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{"subscriptions": subs, "days": days}))
}
