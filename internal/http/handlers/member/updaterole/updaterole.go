// Package updaterole реализует HTTP-обработчик смены роли участника.
package updaterole

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/saas-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-backend/internal/http/response"
	"github.com/magabrotheeeer/saas-backend/internal/lib/sl"
	"github.com/magabrotheeeer/saas-backend/internal/models"
	orgservice "github.com/magabrotheeeer/saas-backend/internal/services/organization"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// Request — новая роль участника.
type Request struct {
	Role string `json:"role" validate:"required,oneof=admin member viewer"`
}

// Service описывает интерфейс бизнес-логики смены роли.
type Service interface {
	UpdateMemberRole(ctx context.Context, orgUID, userUID, memberUID, role string) (*models.OrganizationMember, error)
}

// Handler обрабатывает запросы на смену роли участника.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сменить роль участника
// @Description Меняет роль участника. Роль владельца не назначается и не снимается.
// @Tags Members
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID организации"
// @Param memberID path string true "UID участника"
// @Param request body Request true "Новая роль"
// @Success 200 {object} models.OrganizationMember "Обновлённый участник"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или запрещённая роль"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Участник не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /organizations/{id}/members/{memberID} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.updaterole"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	member, err := h.service.UpdateMemberRole(r.Context(), orgUID, userUID, memberUID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, orgservice.ErrNotMember), errors.Is(err, orgservice.ErrInsufficientRole):
			log.Error("access denied", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("insufficient permissions"))
		case errors.Is(err, orgservice.ErrCannotRemoveOwner), errors.Is(err, orgservice.ErrInvalidRole),
			errors.Is(err, orgservice.ErrCannotChangeOwnRole):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("member not found"))
		default:
			log.Error("failed to update member role", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not update member role"))
		}
		return
	}

	log.Info("updated member role",
		slog.String("organization_uid", orgUID),
		slog.String("member_uid", memberUID),
		slog.String("role", req.Role))
	render.JSON(w, r, member)
}
