// Package remove реализует HTTP-обработчик удаления участника из организации.
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
	orgservice "github.com/magabrotheeeer/saas-backend/internal/services/organization"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики удаления участника.
type Service interface {
	RemoveMember(ctx context.Context, orgUID, userUID, memberUID string) error
}

// Handler обрабатывает запросы на удаление участника.
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
// @Summary Удалить участника
// @Description Удаляет участника из организации. Участник может удалить себя сам, владельца удалить нельзя.
// @Tags Members
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID организации"
// @Param memberID path string true "UID участника"
// @Success 200 {object} response.Response "Участник удалён"
// @Failure 400 {object} response.ErrorResponse "Нельзя удалить владельца"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Участник не найден"
// @Router /organizations/{id}/members/{memberID} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.remove"
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
	memberUID := chi.URLParam(r, "memberID")

	if err := h.service.RemoveMember(r.Context(), orgUID, userUID, memberUID); err != nil {
		switch {
		case errors.Is(err, orgservice.ErrNotMember), errors.Is(err, orgservice.ErrInsufficientRole):
			log.Error("access denied", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("insufficient permissions"))
		case errors.Is(err, orgservice.ErrCannotRemoveOwner):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("member not found"))
		default:
			log.Error("failed to remove member", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not remove member"))
		}
		return
	}

	log.Info("removed member",
		slog.String("organization_uid", orgUID),
		slog.String("member_uid", memberUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"message": "member removed"}))
}
