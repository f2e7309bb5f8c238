package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/lekarna/internal/fulfill"
	"github.com/erazemk/lekarna/internal/model"
	"github.com/erazemk/lekarna/internal/queue"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	q := queue.New(db, nil)
	service := fulfill.NewService(db, q, nil)

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db}
	prescriptionsHandler := &PrescriptionsHandler{DB: db}
	pharmacyHandler := &PharmacyHandler{DB: db, Service: service}
	queueHandler := &QueueHandler{DB: db, Queue: q}
	alertsHandler := &AlertsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	patientOnly := RequireRole(model.RolePatient)
	doctorOnly := RequireRole(model.RoleDoctor)
	staffOnly := RequireRole(model.RolePharmacist, model.RoleAdmin)
	adminOnly := RequireRole(model.RoleAdmin)

	mux := http.NewServeMux()

	// Public: registration and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated session management.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(adminOnly(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(adminOnly(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(adminOnly(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(adminOnly(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(adminOnly(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(adminOnly(http.HandlerFunc(usersHandler.Delete))))

	// Inventory: staff read, admin write.
	mux.Handle("GET /api/inventory", authMW(staffOnly(http.HandlerFunc(inventoryHandler.List))))
	mux.Handle("POST /api/inventory", authMW(adminOnly(http.HandlerFunc(inventoryHandler.Create))))
	mux.Handle("GET /api/inventory/low-stock", authMW(staffOnly(http.HandlerFunc(inventoryHandler.LowStock))))
	mux.Handle("POST /api/inventory/import", authMW(adminOnly(http.HandlerFunc(inventoryHandler.Import))))
	mux.Handle("GET /api/inventory/{id}", authMW(staffOnly(http.HandlerFunc(inventoryHandler.Get))))
	mux.Handle("PUT /api/inventory/{id}/quantity", authMW(adminOnly(http.HandlerFunc(inventoryHandler.UpdateQuantity))))
	mux.Handle("DELETE /api/inventory/{id}", authMW(adminOnly(http.HandlerFunc(inventoryHandler.Delete))))

	// Prescriptions: doctors issue, patients and staff read.
	mux.Handle("POST /api/prescriptions", authMW(doctorOnly(http.HandlerFunc(prescriptionsHandler.Create))))
	mux.Handle("GET /api/prescriptions", authMW(http.HandlerFunc(prescriptionsHandler.List)))
	mux.Handle("GET /api/prescriptions/{id}", authMW(http.HandlerFunc(prescriptionsHandler.Get)))
	mux.Handle("PUT /api/prescriptions/{id}/scan", authMW(doctorOnly(http.HandlerFunc(prescriptionsHandler.UploadScan))))
	mux.Handle("GET /api/prescriptions/{id}/scan", authMW(http.HandlerFunc(prescriptionsHandler.GetScan)))

	// Fulfillment flow.
	mux.Handle("POST /api/pharmacy/submit", authMW(patientOnly(http.HandlerFunc(pharmacyHandler.Submit))))
	mux.Handle("GET /api/pharmacy/orders", authMW(staffOnly(http.HandlerFunc(pharmacyHandler.ListOrders))))
	mux.Handle("GET /api/pharmacy/orders/mine", authMW(patientOnly(http.HandlerFunc(pharmacyHandler.ListMine))))
	mux.Handle("POST /api/pharmacy/orders/{id}/prepare", authMW(RequireRole(model.RolePharmacist)(http.HandlerFunc(pharmacyHandler.Prepare))))
	mux.Handle("POST /api/pharmacy/orders/{id}/pickup", authMW(RequireRole(model.RolePharmacist)(http.HandlerFunc(pharmacyHandler.Pickup))))

	// Queue.
	mux.Handle("GET /api/queue", authMW(staffOnly(http.HandlerFunc(queueHandler.List))))
	mux.Handle("GET /api/queue/orders/{id}", authMW(http.HandlerFunc(queueHandler.Status)))

	// Alerts and statistics (staff only).
	mux.Handle("GET /api/alerts/stock", authMW(staffOnly(http.HandlerFunc(alertsHandler.StockEvents))))
	mux.Handle("GET /api/alerts/stale", authMW(staffOnly(http.HandlerFunc(alertsHandler.StaleOrders))))
	mux.Handle("GET /api/alerts/volume", authMW(staffOnly(http.HandlerFunc(alertsHandler.HighVolume))))
	mux.Handle("GET /api/stats", authMW(staffOnly(http.HandlerFunc(alertsHandler.Stats))))

	return mux
}
