package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"atlascoffee/internal/config"
	"atlascoffee/internal/database"
	"atlascoffee/internal/handler"
	"atlascoffee/internal/metrics"
	"atlascoffee/internal/model"
	"atlascoffee/internal/mw"
	"atlascoffee/internal/notify"
	"atlascoffee/internal/service"
)

func main() {
	cfg := config.New()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(context.Background(), db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	// Services
	authSvc := service.NewAuthService(db)
	menuSvc := service.NewMenuService(db)
	mailer := service.NewMailer(cfg.MailAddress, cfg.MailAPIKey, cfg.MailFrom)
	orderSvc := service.NewOrderService(service.NewPGOrderStore(db), mailer, m)
	paymentClient := service.NewPaymentClient(cfg.PayMongoAddress, cfg.PayMongoSecretKey, cfg.AllowedOrigin)
	llmClient := service.NewLLMClient(cfg.ChatAddress, cfg.ChatAPIKey, cfg.ChatModel)
	chatSvc := service.NewChatService(llmClient, orderSvc, menuSvc)

	// Admin notification poller
	notifier := notify.New(orderSvc, m)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/auth/signup", handler.SignupHandler(authSvc, cfg.JWTSecret))
	r.Post("/api/auth/login", handler.LoginHandler(authSvc, cfg.JWTSecret))

	r.Get("/api/menu", handler.ListMenuHandler(menuSvc))
	r.Get("/api/menu/category/{category}", handler.ListMenuByCategoryHandler(menuSvc))

	r.Post("/api/payment/create-checkout", handler.CreateCheckoutHandler(paymentClient))
	r.Post("/api/payment/confirm", handler.ConfirmPaymentHandler(orderSvc))

	r.Post("/api/chat", handler.ChatHandler(chatSvc))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.JWTSecret))
		r.Use(mw.RequireRole(model.RoleAdmin))

		r.Post("/api/menu", handler.CreateMenuItemHandler(menuSvc))
		r.Put("/api/menu/{id}", handler.UpdateMenuItemHandler(menuSvc))

		r.Get("/api/orders", handler.ListOrdersHandler(orderSvc))
		r.Get("/api/orders/{id}", handler.GetOrderHandler(orderSvc))
		r.Patch("/api/orders/{id}/status", handler.UpdateOrderStatusHandler(orderSvc))

		r.Get("/api/notifications", handler.ListNotificationsHandler(notifier))
		r.Post("/api/notifications/activate", handler.ActivateNotificationsHandler(notifier))
		r.Post("/api/notifications/deactivate", handler.DeactivateNotificationsHandler(notifier))
		r.Post("/api/notifications/{id}/read", handler.MarkNotificationReadHandler(notifier))
		r.Post("/api/notifications/read-all", handler.MarkAllNotificationsReadHandler(notifier))
		r.Delete("/api/notifications", handler.ClearNotificationsHandler(notifier))
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go notifier.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop poller
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
