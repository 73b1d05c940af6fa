// Package list реализует HTTP-обработчик списка подписок организации.
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
	subservice "github.com/magabrotheeeer/saas-backend/internal/services/subscription"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики списка подписок.
type Service interface {
	ListByOrganization(ctx context.Context, orgUID, userUID string) ([]*models.Subscription, error)
}

// Handler обрабатывает запросы на получение подписок организации.
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
// @Summary Подписки организации
// @Description Возвращает историю подписок организации, включая отменённые. Доступно участникам организации.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID организации"
// @Success 200 {object} response.Response "Список подписок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Пользователь не состоит в организации"
// @Failure 404 {object} response.ErrorResponse "Организация не найдена"
// @Router /organizations/{id}/subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"
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

	subs, err := h.service.ListByOrganization(r.Context(), orgUID, userUID)
	if err != nil {
		switch {
		case errors.Is(err, subservice.ErrNotMember):
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("insufficient permissions"))
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("organization not found"))
		default:
			log.Error("failed to list subscriptions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not list subscriptions"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{"subscriptions": subs}))
}
