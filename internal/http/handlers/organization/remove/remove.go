// Package remove реализует HTTP-обработчик мягкого удаления организации.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-backend/internal/http/response"
	"github.com/magabrotheeeer/saas-backend/internal/lib/sl"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики удаления организации.
type Service interface {
	Deactivate(ctx context.Context, orgUID, userUID string) error
}

// Handler обрабатывает запросы на удаление организации.
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
// @Summary Удалить организацию
// @Description Выполняет мягкое удаление. Доступно только владельцу организации.
// @Tags Organizations
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID организации"
// @Success 200 {object} response.Response "Организация деактивирована"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Организация не найдена или пользователь не владелец"
// @Router /organizations/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.organization.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	orgUID := chi.URLParam(r, "id")

	if err := h.service.Deactivate(r.Context(), orgUID, userUID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("organization not found or not owned", slog.String("organization_uid", orgUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("organization not found"))
			return
		}
		log.Error("failed to deactivate organization", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not deactivate organization"))
		return
	}

	log.Info("deactivated organization", slog.String("organization_uid", orgUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "organization deactivated",
	}))
}
