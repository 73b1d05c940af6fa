// Package add реализует HTTP-обработчик добавления участника организации.
package add

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

// Request — email и роль нового участника.
type Request struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin member viewer"`
}

// Service описывает интерфейс бизнес-логики добавления участника.
type Service interface {
	AddMember(ctx context.Context, orgUID, userUID, email, role string) (*models.OrganizationMember, error)
}

// Handler обрабатывает запросы на добавление участника.
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
// @Summary Добавить участника
// @Description Добавляет пользователя по email. Доступно владельцу и администраторам организации. Возвращает 403, если лимит участников тарифного плана исчерпан.
// @Tags Members
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID организации"
// @Param request body Request true "Email и роль участника"
// @Success 201 {object} models.OrganizationMember "Новый участник"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь с таким email не найден"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже участник"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /organizations/{id}/members [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.add"
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

	member, err := h.service.AddMember(r.Context(), orgUID, userUID, req.Email, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, orgservice.ErrNotMember), errors.Is(err, orgservice.ErrInsufficientRole):
			log.Error("access denied", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("insufficient permissions"))
		case errors.Is(err, orgservice.ErrUserLimitReached):
			log.Warn("plan user limit reached", slog.String("organization_uid", orgUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("plan user limit reached"))
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user with this email not found"))
		case errors.Is(err, repository.ErrAlreadyExists):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("user is already a member"))
		default:
			log.Error("failed to add member", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not add member"))
		}
		return
	}

	log.Info("added organization member",
		slog.String("organization_uid", orgUID),
		slog.String("member_user_uid", member.UserUID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, member)
}
