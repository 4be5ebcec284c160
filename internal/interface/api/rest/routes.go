package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	RouteFiles = RouteApiV1 + "/files"
	RouteFile  = RouteFiles + "/:file_id"

	// async upload jobs
	RouteJobs = RouteApiV1 + "/jobs"
	RouteJob  = RouteJobs + "/:job_id"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
