// Package failedpayments реализует HTTP-обработчик списка подписок с
// неуспешной оплатой.
package failedpayments

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-backend/internal/http/response"
	"github.com/magabrotheeeer/saas-backend/internal/lib/sl"
	"github.com/magabrotheeeer/saas-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики неуспешных оплат.
type Service interface {
	FailedPayments(ctx context.Context) ([]*models.FailedPaymentSubscription, error)
}

// Handler обрабатывает запросы на список неуспешных оплат.
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
// @Summary Неуспешные оплаты
// @Description Возвращает подписки в статусах past_due и unpaid. Только для администраторов.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Список подписок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Router /admin/subscriptions/failed-payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.failedpayments"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subs, err := h.service.FailedPayments(r.Context())
	if err != nil {
		log.Error("failed to list failed payments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list failed payments"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{"subscriptions": subs}))
}
