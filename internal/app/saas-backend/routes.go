// Package saasbackend предоставляет маршруты основного приложения.
package saasbackend

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/saas-backend/internal/config"
	admindashboard "github.com/magabrotheeeer/saas-backend/internal/http/handlers/admin/dashboard"
	adminexpiring "github.com/magabrotheeeer/saas-backend/internal/http/handlers/admin/expiring"
	adminfailedpayments "github.com/magabrotheeeer/saas-backend/internal/http/handlers/admin/failedpayments"
	adminorganizations "github.com/magabrotheeeer/saas-backend/internal/http/handlers/admin/organizations"
	adminrevenue "github.com/magabrotheeeer/saas-backend/internal/http/handlers/admin/revenue"
	adminuserdetails "github.com/magabrotheeeer/saas-backend/internal/http/handlers/admin/userdetails"
	adminusers "github.com/magabrotheeeer/saas-backend/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/saas-backend/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/saas-backend/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/saas-backend/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/saas-backend/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/saas-backend/internal/http/handlers/billingwebhook"
	"github.com/magabrotheeeer/saas-backend/internal/http/handlers/health"
	memberadd "github.com/magabrotheeeer/saas-backend/internal/http/handlers/member/add"
	memberlist "github.com/magabrotheeeer/saas-backend/internal/http/handlers/member/list"
	memberremove "github.com/magabrotheeeer/saas-backend/internal/http/handlers/member/remove"
	memberupdaterole "github.com/magabrotheeeer/saas-backend/internal/http/handlers/member/updaterole"
	orgcreate "github.com/magabrotheeeer/saas-backend/internal/http/handlers/organization/create"
	orglist "github.com/magabrotheeeer/saas-backend/internal/http/handlers/organization/list"
	orgread "github.com/magabrotheeeer/saas-backend/internal/http/handlers/organization/read"
	orgremove "github.com/magabrotheeeer/saas-backend/internal/http/handlers/organization/remove"
	orgupdate "github.com/magabrotheeeer/saas-backend/internal/http/handlers/organization/update"
	plancreate "github.com/magabrotheeeer/saas-backend/internal/http/handlers/plan/create"
	planlist "github.com/magabrotheeeer/saas-backend/internal/http/handlers/plan/list"
	planread "github.com/magabrotheeeer/saas-backend/internal/http/handlers/plan/read"
	planremove "github.com/magabrotheeeer/saas-backend/internal/http/handlers/plan/remove"
	planupdate "github.com/magabrotheeeer/saas-backend/internal/http/handlers/plan/update"
	subcancel "github.com/magabrotheeeer/saas-backend/internal/http/handlers/subscription/cancel"
	subcreate "github.com/magabrotheeeer/saas-backend/internal/http/handlers/subscription/create"
	sublist "github.com/magabrotheeeer/saas-backend/internal/http/handlers/subscription/list"
	subread "github.com/magabrotheeeer/saas-backend/internal/http/handlers/subscription/read"
	subupdate "github.com/magabrotheeeer/saas-backend/internal/http/handlers/subscription/update"
	usagecheckprojects "github.com/magabrotheeeer/saas-backend/internal/http/handlers/usage/checkprojects"
	usagecheckusers "github.com/magabrotheeeer/saas-backend/internal/http/handlers/usage/checkusers"
	usagesummary "github.com/magabrotheeeer/saas-backend/internal/http/handlers/usage/summary"
	userchangepassword "github.com/magabrotheeeer/saas-backend/internal/http/handlers/user/changepassword"
	userme "github.com/magabrotheeeer/saas-backend/internal/http/handlers/user/me"
	userremove "github.com/magabrotheeeer/saas-backend/internal/http/handlers/user/remove"
	userupdate "github.com/magabrotheeeer/saas-backend/internal/http/handlers/user/update"
	"github.com/magabrotheeeer/saas-backend/internal/http/middlewarectx"
	adminservice "github.com/magabrotheeeer/saas-backend/internal/services/admin"
	authservice "github.com/magabrotheeeer/saas-backend/internal/services/auth"
	orgservice "github.com/magabrotheeeer/saas-backend/internal/services/organization"
	planservice "github.com/magabrotheeeer/saas-backend/internal/services/plan"
	subservice "github.com/magabrotheeeer/saas-backend/internal/services/subscription"
	usageservice "github.com/magabrotheeeer/saas-backend/internal/services/usage"
	userservice "github.com/magabrotheeeer/saas-backend/internal/services/user"
	webhookservice "github.com/magabrotheeeer/saas-backend/internal/services/webhook"
)

// Services собирает бизнес-логику, которую обслуживают маршруты.
type Services struct {
	Auth         *authservice.AuthService
	User         *userservice.UserService
	Organization *orgservice.OrganizationService
	Plan         *planservice.PlanService
	Subscription *subservice.SubscriptionService
	Usage        *usageservice.UsageService
	Webhook      *webhookservice.WebhookService
	Admin        *adminservice.AdminService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.SecurityHeadersMiddleware,
		middlewarectx.MetricsMiddleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		r.Post("/refresh", refresh.New(logger, s.Auth).ServeHTTP)
		r.Get("/plans", planlist.New(logger, s.Plan).ServeHTTP)
		r.Get("/plans/{id}", planread.New(logger, s.Plan).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Webhook endpoint (без аутентификации, подпись проверяется отдельно)
		r.Post("/billing/webhook", billingwebhook.New(logger, s.Webhook, cfg.Billing.WebhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, rate.Limit(10), 20))

			r.Post("/logout", logout.New(logger, s.Auth).ServeHTTP)

			r.Get("/users/me", userme.New(logger, s.User).ServeHTTP)
			r.Patch("/users/me", userupdate.New(logger, s.User).ServeHTTP)
			r.Post("/users/me/password", userchangepassword.New(logger, s.User).ServeHTTP)
			r.Delete("/users/me", userremove.New(logger, s.User).ServeHTTP)

			r.Post("/organizations", orgcreate.New(logger, s.Organization).ServeHTTP)
			r.Get("/organizations", orglist.New(logger, s.Organization).ServeHTTP)
			r.Get("/organizations/{id}", orgread.New(logger, s.Organization).ServeHTTP)
			r.Patch("/organizations/{id}", orgupdate.New(logger, s.Organization).ServeHTTP)
			r.Delete("/organizations/{id}", orgremove.New(logger, s.Organization).ServeHTTP)

			r.Get("/organizations/{id}/members", memberlist.New(logger, s.Organization).ServeHTTP)
			r.Post("/organizations/{id}/members", memberadd.New(logger, s.Organization).ServeHTTP)
			r.Patch("/organizations/{id}/members/{memberID}", memberupdaterole.New(logger, s.Organization).ServeHTTP)
			r.Delete("/organizations/{id}/members/{memberID}", memberremove.New(logger, s.Organization).ServeHTTP)

			r.Post("/subscriptions", subcreate.New(logger, s.Subscription).ServeHTTP)
			r.Get("/subscriptions/{id}", subread.New(logger, s.Subscription).ServeHTTP)
			r.Patch("/subscriptions/{id}", subupdate.New(logger, s.Subscription).ServeHTTP)
			r.Delete("/subscriptions/{id}", subcancel.New(logger, s.Subscription).ServeHTTP)
			r.Get("/organizations/{id}/subscriptions", sublist.New(logger, s.Subscription).ServeHTTP)

			r.Get("/organizations/{id}/usage", usagesummary.New(logger, s.Usage).ServeHTTP)
			r.Get("/organizations/{id}/usage/check-users", usagecheckusers.New(logger, s.Usage).ServeHTTP)
			r.Get("/organizations/{id}/usage/check-projects", usagecheckprojects.New(logger, s.Usage).ServeHTTP)

			// Группа административной панели
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))

				r.Get("/admin/dashboard", admindashboard.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/revenue", adminrevenue.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/organizations", adminorganizations.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/subscriptions/expiring", adminexpiring.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/subscriptions/failed-payments", adminfailedpayments.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/users", adminusers.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/users/{id}", adminuserdetails.New(logger, s.Admin).ServeHTTP)
				r.Post("/admin/plans", plancreate.New(logger, s.Plan).ServeHTTP)
				r.Patch("/admin/plans/{id}", planupdate.New(logger, s.Plan).ServeHTTP)
				r.Delete("/admin/plans/{id}", planremove.New(logger, s.Plan).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
