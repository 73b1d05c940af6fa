// Package checkprojects реализует HTTP-обработчик проверки лимита проектов.
package checkprojects

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
	usageservice "github.com/magabrotheeeer/saas-backend/internal/services/usage"
)

// Service описывает интерфейс бизнес-логики проверки лимита проектов.
type Service interface {
	CheckProjects(ctx context.Context, orgUID, userUID string) (*models.UsageCheck, error)
}

// Handler обрабатывает запросы на проверку лимита проектов.
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
// @Summary Проверить лимит проектов
// @Description Показывает, позволяет ли тарифный план организации создать ещё один проект.
// @Tags Usage
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID организации"
// @Success 200 {object} models.UsageCheck "Результат проверки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Пользователь не состоит в организации"
// @Router /organizations/{id}/usage/check-projects [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.usage.checkprojects"
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

	check, err := h.service.CheckProjects(r.Context(), orgUID, userUID)
	if err != nil {
		if errors.Is(err, usageservice.ErrNotMember) {
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("insufficient permissions"))
			return
		}
		log.Error("failed to check project limit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check project limit"))
		return
	}

	render.JSON(w, r, check)
}
