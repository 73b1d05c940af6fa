// Package revenue реализует HTTP-обработчик метрик выручки.
package revenue

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

// Service описывает интерфейс бизнес-логики метрик выручки.
type Service interface {
	Revenue(ctx context.Context) (*models.RevenueMetrics, error)
}

// Handler обрабатывает запросы на метрики выручки.
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
// @Summary Метрики выручки
// @Description Возвращает MRR, ARR и среднюю выручку на платящую организацию. Только для администраторов.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.RevenueMetrics "Метрики выручки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Router /admin/revenue [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.revenue"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	metrics, err := h.service.Revenue(r.Context())
	if err != nil {
		log.Error("failed to calculate revenue metrics", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not calculate revenue metrics"))
		return
	}

	render.JSON(w, r, metrics)
}
