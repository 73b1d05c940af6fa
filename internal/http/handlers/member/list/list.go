// Package list реализует HTTP-обработчик списка участников организации.
package list

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
	"github.com/magabrotheeeer/saas-backend/internal/models"
	orgservice "github.com/magabrotheeeer/saas-backend/internal/services/organization"
)

// Service описывает интерфейс бизнес-логики списка участников.
type Service interface {
	ListMembers(ctx context.Context, orgUID, userUID string) ([]*models.OrganizationMember, error)
}

// Handler обрабатывает запросы на список участников.
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
// @Summary Участники организации
// @Tags Members
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID организации"
// @Success 200 {array} models.OrganizationMember "Участники"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Пользователь не состоит в организации"
// @Router /organizations/{id}/members [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.list"
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

	members, err := h.service.ListMembers(r.Context(), orgUID, userUID)
	if err != nil {
		if errors.Is(err, orgservice.ErrNotMember) {
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("not a member of this organization"))
			return
		}
		log.Error("failed to list members", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list members"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"members": members,
	}))
}
