package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// Services groups everything the router dispatches to.
type Services struct {
	Catalog        RaffleLister
	Entries        EntryCreator
	Reconciliation PaymentEventHandler
	Admin          AdminRaffleService
	Draw           WinnerService
	Donations      DonationService
}

type RouterConfig struct {
	CORSOrigins        []string
	PaymentsConfigured bool
	Auth               *AdminAuth
	Logger             logrus.FieldLogger
}

// NewRouter wires every route and wraps the result in CORS and request logging.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	v := NewValidator()

	r := mux.NewRouter()
	r.NotFoundHandler = NotFoundHandler()
	r.MethodNotAllowedHandler = MethodNotAllowedHandler()

	r.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/payments/status", PaymentsStatusHandler(cfg.PaymentsConfigured)).Methods(http.MethodGet)
	r.HandleFunc("/raffles", HandleListRaffles(svc.Catalog)).Methods(http.MethodGet)
	r.HandleFunc("/raffles/{id}/checkout", HandleCreateCheckout(svc.Entries, v)).Methods(http.MethodPost)
	r.HandleFunc("/donations/checkout", HandleDonationCheckout(svc.Donations, v)).Methods(http.MethodPost)
	r.HandleFunc("/webhooks/payments", HandlePaymentWebhook(svc.Reconciliation)).Methods(http.MethodPost)

	r.HandleFunc("/admin/login", cfg.Auth.HandleLogin(v)).Methods(http.MethodPost)
	r.HandleFunc("/admin/logout", cfg.Auth.HandleLogout()).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(cfg.Auth.Require)
	admin.HandleFunc("/raffles", HandleAdminListRaffles(svc.Admin)).Methods(http.MethodGet)
	admin.HandleFunc("/raffles", HandleAdminCreateRaffle(svc.Admin, v)).Methods(http.MethodPost)
	admin.HandleFunc("/raffles/{id}", HandleAdminGetRaffle(svc.Admin)).Methods(http.MethodGet)
	admin.HandleFunc("/raffles/{id}", HandleAdminUpdateRaffle(svc.Admin, v)).Methods(http.MethodPatch)
	admin.HandleFunc("/raffles/{id}", HandleAdminDeleteRaffle(svc.Admin)).Methods(http.MethodDelete)
	admin.HandleFunc("/raffles/{id}/entries.csv", HandleAdminExportEntries(svc.Admin)).Methods(http.MethodGet)
	admin.HandleFunc("/raffles/{id}/draw", HandleAdminDraw(svc.Draw)).Methods(http.MethodPost)
	admin.HandleFunc("/raffles/{id}/winner", HandleAdminSetWinner(svc.Draw, v)).Methods(http.MethodPut)
	admin.HandleFunc("/raffles/{id}/winner", HandleAdminClearWinner(svc.Draw)).Methods(http.MethodDelete)
	admin.HandleFunc("/donations", HandleListDonations(svc.Donations)).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", idempotencyHeader},
		AllowCredentials: true,
		MaxAge:           600,
	})

	return RequestLogger(c.Handler(r), cfg.Logger)
}
