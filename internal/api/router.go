package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.service/internal/api/handler"
	"attendance.service/internal/api/identity"
	"attendance.service/internal/core"
	"attendance.service/internal/ports/repository"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(attendance *core.AttendanceService, approval *core.ApprovalService, repo repository.Repository) *mux.Router {

	attendanceHandler := handler.AttendanceHandler{Service: attendance}
	adminHandler := handler.AdminHandler{Service: approval}

	r := mux.NewRouter()
	r.Use(identity.Middleware(repo))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/attendance/sign-in", attendanceHandler.SignIn).Methods(http.MethodPost)
	api.HandleFunc("/attendance/sign-out", attendanceHandler.SignOut).Methods(http.MethodPost)
	api.HandleFunc("/attendance/today", attendanceHandler.Today).Methods(http.MethodGet)
	api.HandleFunc("/attendance/history", attendanceHandler.History).Methods(http.MethodGet)

	api.HandleFunc("/admin/pending-signins", adminHandler.ListPending).Methods(http.MethodGet)
	api.HandleFunc("/admin/pending-signins/{id}", adminHandler.Decide).Methods(http.MethodPut)
	api.HandleFunc("/admin/stats", adminHandler.Stats).Methods(http.MethodGet)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
