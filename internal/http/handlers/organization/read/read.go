// Package read реализует HTTP-обработчик чтения организации по UID.
package read

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
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики чтения организации.
type Service interface {
	Get(ctx context.Context, orgUID, userUID string) (*models.Organization, error)
}

// Handler обрабатывает запросы на чтение организации.
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
// @Summary Получить организацию
// @Description Возвращает организацию, если текущий пользователь состоит в ней.
// @Tags Organizations
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID организации"
// @Success 200 {object} models.Organization "Организация"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Пользователь не состоит в организации"
// @Failure 404 {object} response.ErrorResponse "Организация не найдена"
// @Router /organizations/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.organization.read"
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

	org, err := h.service.Get(r.Context(), orgUID, userUID)
	if err != nil {
		switch {
		case errors.Is(err, orgservice.ErrNotMember):
			log.Error("user is not a member", slog.String("organization_uid", orgUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("not a member of this organization"))
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("organization not found"))
		default:
			log.Error("failed to read organization", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not read organization"))
		}
		return
	}

	render.JSON(w, r, org)
}
