package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyFireDBType string = "FIRE_DB_TYPE"
	EnvKeyFireDbPath string = "FIRE_DB_PATH"

	EnvKeyFireHttpHostPort string = "FIRE_HTTP_HOST_PORT"
	EnvKeyFireGrpcHostPort string = "FIRE_GRPC_HOST_PORT"

	EnvKeyFireDefaultRate  string = "FIRE_DEFAULT_RATE"
	EnvKeyFireDefaultBurst string = "FIRE_DEFAULT_BURST"

	EnvKeyFireDispatchStationCount string = "FIRE_DISPATCH_STATION_COUNT"
	EnvKeyFireResponseFallback     string = "FIRE_RESPONSE_FALLBACK"
	EnvKeyFireStatsTimezone        string = "FIRE_STATS_TIMEZONE"
	EnvKeyFireSeedDefaults         string = "FIRE_SEED_DEFAULTS"
	EnvKeyFireLogDir               string = "FIRE_LOG_DIR"

	LoggerNameFireCore      string = "fire_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameDB            string = "db"

	LoggerFieldFireCategory     string = "category"
	LoggerCategoryFireAlert     string = "alert"
	LoggerCategoryFireDispatch  string = "dispatch"
	LoggerCategoryFireStats     string = "stats"
	LoggerCategoryFireDashboard string = "dashboard"
	LoggerCategoryFireDetection string = "detection"
	LoggerCategoryFireRoster    string = "roster"
	LoggerCategoryFirePolicy    string = "policy"
)
