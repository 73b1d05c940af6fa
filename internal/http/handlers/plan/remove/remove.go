// Package remove реализует HTTP-обработчик деактивации тарифного плана.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-backend/internal/http/response"
	"github.com/magabrotheeeer/saas-backend/internal/lib/sl"
	planservice "github.com/magabrotheeeer/saas-backend/internal/services/plan"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики деактивации плана.
type Service interface {
	Deactivate(ctx context.Context, planUID string) error
}

// Handler обрабатывает запросы на деактивацию плана.
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
// @Summary Деактивировать тарифный план
// @Description Скрывает план из каталога. План с активными подписками деактивировать нельзя. Только для администраторов.
// @Tags Plans
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID плана"
// @Success 200 {object} response.Response "План деактивирован"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 409 {object} response.ErrorResponse "У плана есть активные подписки"
// @Router /admin/plans/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	planUID := chi.URLParam(r, "id")

	if err := h.service.Deactivate(r.Context(), planUID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
		case errors.Is(err, planservice.ErrPlanHasSubscriptions):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("plan has active subscriptions"))
		default:
			log.Error("failed to deactivate plan", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not deactivate plan"))
		}
		return
	}

	log.Info("deactivated plan", slog.String("plan_uid", planUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"message": "plan deactivated"}))
}
