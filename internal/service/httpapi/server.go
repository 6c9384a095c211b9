// Package httpapi собирает публичный HTTP-интерфейс магазина: маршруты,
// аутентификацию и сериализацию поверх доменных сервисов и репозиториев.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
	"github.com/vladislavdragonenkov/shop/internal/service/reconcile"
	"github.com/vladislavdragonenkov/shop/internal/service/report"
)

const requestTimeout = 30 * time.Second

// Server агрегирует зависимости HTTP-слоя.
type Server struct {
	users    domain.UserRepository
	products domain.ProductRepository
	reviews  domain.ReviewRepository
	cart     domain.CartRepository
	engine   *reconcile.Engine
	reports  *report.Service
	tokens   *auth.TokenManager
	metrics  *metrics.HTTPMetrics
	logger   *log.Entry
}

// Deps перечисляет всё, что нужно серверу. Metrics может быть nil.
type Deps struct {
	Users    domain.UserRepository
	Products domain.ProductRepository
	Reviews  domain.ReviewRepository
	Cart     domain.CartRepository
	Engine   *reconcile.Engine
	Reports  *report.Service
	Tokens   *auth.TokenManager
	Metrics  *metrics.HTTPMetrics
	Logger   *log.Entry
}

// NewServer создаёт HTTP-сервер магазина.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New().WithField("component", "httpapi")
	}
	return &Server{
		users:    deps.Users,
		products: deps.Products,
		reviews:  deps.Reviews,
		cart:     deps.Cart,
		engine:   deps.Engine,
		reports:  deps.Reports,
		tokens:   deps.Tokens,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// Router строит chi-маршрутизатор с полной картой маршрутов API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignUp)
			r.Post("/signin", s.handleSignIn)
			r.Post("/signout", s.handleSignOut)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(s.tokens.Authenticate)
			r.Post("/profile", s.handleUpdateProfile)
			r.Group(func(r chi.Router) {
				r.Use(auth.AdminOnly)
				r.Get("/", s.handleListUsers)
				r.Get("/{id}", s.handleGetUser)
				r.Patch("/{id}", s.handleUpdateUser)
				r.Delete("/{id}", s.handleDeleteUser)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Get("/{id}", s.handleGetProduct)
			r.Group(func(r chi.Router) {
				r.Use(s.tokens.Authenticate, auth.AdminOnly)
				r.Post("/", s.handleCreateProduct)
				r.Patch("/{id}", s.handleUpdateProduct)
				r.Delete("/{id}", s.handleDeleteProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(s.tokens.Authenticate)
			r.Post("/", s.handleAddToCart)
			r.Get("/", s.handleListCart)
			r.Get("/{id}", s.handleGetCartItem)
			r.Patch("/{id}", s.handleUpdateCartItem)
			r.Delete("/{id}", s.handleDeleteCartItem)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/product/{productId}", s.handleListProductReviews)
			r.Group(func(r chi.Router) {
				r.Use(s.tokens.Authenticate)
				r.Post("/", s.handleCreateReview)
				r.Patch("/{id}", s.handleUpdateReview)
				r.Delete("/{id}", s.handleDeleteReview)
				r.With(auth.AdminOnly).Get("/", s.handleListReviews)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(s.tokens.Authenticate)
			r.Post("/", s.handleCreatePayment)
			r.Get("/my", s.handleListMyPayments)
			r.Group(func(r chi.Router) {
				r.Use(auth.AdminOnly)
				r.Get("/", s.handleListPayments)
				r.Patch("/{id}", s.handleUpdatePaymentStatus)
				r.Delete("/{id}", s.handleDeletePayment)
			})
		})

		r.Route("/stats", func(r chi.Router) {
			r.Use(s.tokens.Authenticate, auth.AdminOnly)
			r.Get("/", s.handleDashboard)
			r.Get("/sales-report", s.handleSalesReport)
		})
	})

	return r
}
