package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/about"

	UserSigRoute = "/v1/usersig"
	// UserSigAliasRoute is kept for clients of the hosted function deployment.
	UserSigAliasRoute = "/functions/v1/generate-usersig"

	AdminParent                = "/v1/admin/"
	ListActiveCredentialsRoute = AdminParent + "credentials"
	ListAuditsRoute            = AdminParent + "audits"

	TaskParent       = AdminParent + "tasks"
	ListTasksRoute   = TaskParent
	TriggerTaskRoute = TaskParent + "/{name}/trigger"
	LogsForTaskRoute = TaskParent + "/{name}/logs"
)
