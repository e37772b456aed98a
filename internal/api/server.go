package api

import (
	"net/http"

	"github.com/darmiel/callsign/internal/api/middleware"
	"github.com/darmiel/callsign/internal/audit"
	"github.com/darmiel/callsign/internal/config"
	"github.com/darmiel/callsign/internal/core"
	"github.com/darmiel/callsign/internal/service"
	"github.com/darmiel/callsign/internal/tasks"
)

type Server struct {
	credentials *service.CredentialService
	taskManager *tasks.Manager
	auditor     core.Auditor
	store       core.CredentialStore
	cors        config.CORSConfig
}

func NewServer(
	credentials *service.CredentialService,
	taskManager *tasks.Manager,
	auditor core.Auditor,
	store core.CredentialStore,
	cors config.CORSConfig,
) *Server {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}
	if taskManager == nil {
		taskManager = tasks.NewManager()
	}
	return &Server{
		credentials: credentials,
		taskManager: taskManager,
		auditor:     auditor,
		store:       store,
		cors:        cors,
	}
}

func (s *Server) Routes(adminSigningKey []byte) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// credential routes check the method themselves to answer with the JSON envelope
	mux.HandleFunc(UserSigRoute, s.handleUserSig)
	mux.HandleFunc(UserSigAliasRoute, s.handleUserSig)

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET "+ListActiveCredentialsRoute, s.handleAdminCredentials)
	adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudit)
	adminMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
	adminMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
	adminMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)
	mux.Handle(AdminParent, middleware.AdminAuth(adminSigningKey)(adminMux))

	return middleware.Recover(
		middleware.Correlation(
			middleware.Logging(
				middleware.CORS(s.cors.AllowOrigin, s.cors.AllowHeaders)(
					mux))))
}
