package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/db"
	"firewatch.xyz/alert-dispatch-service/pkg/fire"
	fireGrpc "firewatch.xyz/alert-dispatch-service/pkg/grpc"
	fireHttp "firewatch.xyz/alert-dispatch-service/pkg/http"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

func loadPolicy() models.DispatchPolicy {
	policy := models.DefaultDispatchPolicy()

	if raw := common.EnvOr(common.EnvKeyFireDispatchStationCount, ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			log.Fatal("Invalid FIRE_DISPATCH_STATION_COUNT, should be a positive int value")
		}
		policy.StationCount = n
	}

	if raw := common.EnvOr(common.EnvKeyFireResponseFallback, ""); raw != "" {
		policy.ResponseFallback = models.ResponseFallback(raw)
		if !policy.ResponseFallback.Valid() {
			log.Fatal("Invalid FIRE_RESPONSE_FALLBACK, should be one of zero, alert_created")
		}
	}

	return policy
}

func loadLocation() *time.Location {
	name := common.EnvOr(common.EnvKeyFireStatsTimezone, "")
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("Invalid FIRE_STATS_TIMEZONE %q: %v", name, err)
	}
	return loc
}

func main() {
	var err error

	err = godotenv.Load()
	if err != nil && !common.IsProduction() {
		log.Fatal("Error loading .env file, copy .env.example to .env first if in development")
	}

	var dbInstance *db.DB
	fireDbType := common.EnvOr(common.EnvKeyFireDBType, "file")
	switch fireDbType {
	case "file":
		dbInstance = db.GetInstance(db.UseSqliteDialector())
	case "memory":
		dbInstance = db.GetInstance(db.UseMemorySqliteDialector())
	default:
		log.Fatal("Unknown FIRE_DB_TYPE: " + fireDbType)
	}

	grpcHostPort := common.EnvOr(common.EnvKeyFireGrpcHostPort, "")
	httpHostPort := common.EnvOr(common.EnvKeyFireHttpHostPort, ":1080")

	var defaultRate float64
	var defaultBurst int64

	if defaultRate, err = strconv.ParseFloat(common.EnvOr(common.EnvKeyFireDefaultRate, "5"), 64); err != nil {
		log.Fatal("Invalid FIRE_DEFAULT_RATE, should be a float64 value")
	}

	if defaultBurst, err = strconv.ParseInt(common.EnvOr(common.EnvKeyFireDefaultBurst, "10"), 10, 64); err != nil {
		log.Fatal("Invalid FIRE_DEFAULT_BURST, should be an int value")
	}

	logger := common.GetLogger()

	policy := loadPolicy()
	if common.EnvBool(common.EnvKeyFireSeedDefaults, true) {
		if err := dbInstance.SeedDefaults(policy); err != nil {
			log.Fatalf("failed to seed defaults: %v", err)
		}
	}

	fireCore := &fire.Fire{
		Db:      *dbInstance,
		Options: fire.Options{Location: loadLocation()},
	}
	fireCore.WithDefaultServices()

	logger.Info("Fire core created with:",
		zap.Int("station_count", policy.StationCount),
		zap.String("response_fallback", string(policy.ResponseFallback)),
		zap.String("stats_timezone", fireCore.Options.Location.String()),
	)

	// one store for both transports so an alert is throttled the same way
	// whichever side the call arrives on
	limiterStore := fire.NewRateLimiterStore(rate.Limit(defaultRate), int(defaultBurst))
	defaultLimiter := zap.String("default_limiter",
		fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", defaultRate, defaultBurst))

	if grpcHostPort != "" {
		go func() {
			grpcServer := fireGrpc.AlertServer{
				Fire:             fireCore,
				RateLimiterStore: limiterStore,
			}
			s := grpc.NewServer(grpc.ChainUnaryInterceptor(
				fireGrpc.LoggingInterceptor(),
				grpcServer.CreateRateLimitInterceptor(fireGrpc.DefaultLimitTargets()),
			))
			fireGrpc.RegisterAlertServiceServer(s, &grpcServer)
			logger.Info("gRPC server created with:", defaultLimiter)

			listener, err := net.Listen("tcp", grpcHostPort)
			if err != nil {
				log.Fatalf("failed to listen: %v", err)
			}

			logger.Info("start gRPC server on " + grpcHostPort)
			if err := s.Serve(listener); err != nil {
				log.Fatalf("grpc server failed to serve: %v", err)
			}
		}()
	}

	if common.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rs := &fireHttp.RestfulServer{
		Server:           gin.Default(),
		Fire:             fireCore,
		RateLimiterStore: limiterStore,
	}
	rs.Setup()

	logger.Info("http server created with:", defaultLimiter)

	logger.Info("Starting HTTP server on: " + httpHostPort)
	if err := rs.Server.Run(httpHostPort); err != nil {
		logger.Error("http server stopped", zap.Error(err))
		os.Exit(1)
	}
}
