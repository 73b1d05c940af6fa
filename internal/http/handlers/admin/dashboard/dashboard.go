// Package dashboard реализует HTTP-обработчик сводной статистики сервиса.
package dashboard

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

// Service описывает интерфейс бизнес-логики сводной статистики.
type Service interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
}

// Handler обрабатывает запросы на сводную статистику.
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
// @Summary Сводная статистика
// @Description Возвращает счётчики пользователей, организаций, подписок и метрики выручки. Только для администраторов.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.DashboardStats "Статистика"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Router /admin/dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.dashboard"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		log.Error("failed to collect dashboard stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not collect dashboard stats"))
		return
	}

	render.JSON(w, r, stats)
}
