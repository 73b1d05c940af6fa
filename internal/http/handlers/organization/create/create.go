// Package create реализует HTTP-обработчик создания организации.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/saas-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-backend/internal/http/response"
	"github.com/magabrotheeeer/saas-backend/internal/lib/sl"
	"github.com/magabrotheeeer/saas-backend/internal/models"
	"github.com/magabrotheeeer/saas-backend/internal/storage/repository"
)

// Request — данные новой организации.
type Request struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// Service описывает интерфейс бизнес-логики создания организации.
type Service interface {
	Create(ctx context.Context, ownerUID, name string, description *string) (*models.Organization, error)
}

// Handler обрабатывает запросы на создание организации.
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
// @Summary Создать организацию
// @Description Создает организацию, текущий пользователь становится её владельцем.
// @Tags Organizations
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Данные организации"
// @Success 201 {object} models.Organization "Созданная организация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Организация с таким slug уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /organizations [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.organization.create"
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

	org, err := h.service.Create(r.Context(), userUID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			log.Error("organization already exists", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("organization with this name already exists"))
			return
		}
		log.Error("failed to create organization", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create organization"))
		return
	}

	log.Info("created organization", slog.String("organization_uid", org.UID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, org)
}
