package server

import (
	"context"
	"lounge-portal/internal/config"
	"lounge-portal/internal/handler"
	appmiddleware "lounge-portal/internal/middleware"
	"lounge-portal/internal/model"
	"lounge-portal/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Cart         service.CartService
	Checkout     service.CheckoutService
	Payment      service.PaymentService
	Purchase     service.PurchaseService
	Notification service.NotificationService
	Chat         service.ChatService
	Staff        service.StaffService
	User         service.UserService
	Menu         service.MenuService
}

type Server struct {
	echo                *echo.Echo
	auth                config.Auth
	cartHandler         *handler.CartHandler
	paymentHandler      *handler.PaymentHandler
	purchaseHandler     *handler.PurchaseHandler
	notificationHandler *handler.NotificationHandler
	chatHandler         *handler.ChatHandler
	staffHandler        *handler.StaffHandler
	userHandler         *handler.UserHandler
}

func NewServer(auth config.Auth, services *Services, hub handler.Subscriber, log *logrus.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request")
			} else {
				entry.Info("request")
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:                e,
		auth:                auth,
		cartHandler:         handler.NewCartHandler(services.Cart),
		paymentHandler:      handler.NewPaymentHandler(services.Checkout, services.Payment),
		purchaseHandler:     handler.NewPurchaseHandler(services.Purchase),
		notificationHandler: handler.NewNotificationHandler(services.Notification),
		chatHandler:         handler.NewChatHandler(services.Chat, hub, log),
		staffHandler:        handler.NewStaffHandler(services.Staff),
		userHandler:         handler.NewUserHandler(services.User, services.Menu),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	identity := appmiddleware.Identity(s.auth)
	requireUser := appmiddleware.RequireUser()

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	api.GET("/menu", s.userHandler.ListMenu)
	api.GET("/menu/:id", s.userHandler.GetMenuItem)

	// -------- stripe callbacks (signature checked, no identity) --------
	api.POST("/functions/stripe-webhook", s.paymentHandler.StripeWebhook)

	authed := api.Group("", identity, requireUser)
	authed.GET("/me", s.userHandler.Me)

	// -------- cart --------
	authed.GET("/cart", s.cartHandler.GetCart)
	authed.POST("/cart", s.cartHandler.RefreshCart)
	authed.DELETE("/cart", s.cartHandler.ClearCart)
	authed.POST("/cart/items", s.cartHandler.AddItem)
	authed.PATCH("/cart/items/:menuItemId", s.cartHandler.UpdateItem)
	authed.DELETE("/cart/items/:menuItemId", s.cartHandler.RemoveItem)

	// -------- purchasables --------
	authed.POST("/orders", s.purchaseHandler.CreateOrder)
	authed.POST("/bookings", s.purchaseHandler.CreateRoomBooking)
	authed.POST("/event-registrations", s.purchaseHandler.CreateEventRegistration)
	authed.POST("/party-requests", s.purchaseHandler.CreatePartyRequest)
	authed.GET("/purchases/:type", s.purchaseHandler.ListMine)

	// -------- payments --------
	functions := authed.Group("/functions")
	functions.POST("/create-checkout", s.paymentHandler.CreateCheckout)
	functions.POST("/verify-payment", s.paymentHandler.VerifyPayment)
	functions.GET("/list-payment-methods", s.paymentHandler.ListPaymentMethods)
	functions.POST("/delete-payment-method", s.paymentHandler.DeletePaymentMethod)

	// -------- notifications + chat --------
	authed.GET("/notifications", s.notificationHandler.List)
	authed.POST("/notifications/:id/read", s.notificationHandler.MarkRead)
	authed.GET("/chat/rooms", s.chatHandler.ListRooms)
	authed.GET("/chat/rooms/:roomId/messages", s.chatHandler.ListMessages)
	authed.POST("/chat/rooms/:roomId/messages", s.chatHandler.PostMessage)

	// -------- staff --------
	staff := api.Group("/staff", identity, appmiddleware.RequireRole(model.RoleStaff, model.RoleAdmin))
	staff.GET("/orders", s.staffHandler.ListOrders)
	staff.POST("/orders/:id/status", s.staffHandler.UpdateOrderStatus)
	staff.POST("/notifications", s.notificationHandler.Send)

	// -------- websockets --------
	ws := s.echo.Group("/ws", identity, requireUser)
	ws.GET("/chat/:roomId", s.chatHandler.ChatSocket)
	ws.GET("/notifications", s.chatHandler.NotificationSocket)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
