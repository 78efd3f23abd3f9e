package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/fire"
)

const (
	HeaderRequestID  = "X-Request-ID"
	contextRequestID = "request_id"
)

type RestfulServer struct {
	Server           *gin.Engine
	Fire             *fire.Fire
	RateLimiterStore *fire.RateLimiterStore
}

func (rs *RestfulServer) GetLimiter(key string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(key)
	}
}

func (rs *RestfulServer) CheckLimiter(key string) bool {
	limiter := rs.GetLimiter(key)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

func (rs *RestfulServer) SetLimiter(key string, r float64, burst int) bool {
	if rs.RateLimiterStore == nil {
		return false
	}
	rs.RateLimiterStore.SetLimiter(key, rate.Limit(r), burst)
	return true
}

// RateLimit rejects the request with 429 once the bucket for keyFn's key is empty.
func (rs *RestfulServer) RateLimit(keyFn func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rs.CheckLimiter(keyFn(c)) {
			writeKindError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestID tags every request with an id, reusing the caller's when present.
func RequestID() gin.HandlerFunc {
	logger := common.GetLoggerWith(common.LoggerNameRestfulServer)

	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextRequestID, id)
		c.Header(HeaderRequestID, id)

		start := time.Now()
		c.Next()

		logger.Debug("Request served",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func alertKey(c *gin.Context) string {
	return "alert:" + c.Param("alert_id")
}

func clientKey(c *gin.Context) string {
	return "client:" + c.ClientIP()
}

func cameraKey(cameraID uint) string {
	return "camera:" + uintString(cameraID)
}

func (rs *RestfulServer) Setup() {
	rs.Server.Use(RequestID())

	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/metrics", gin.WrapH(promhttp.Handler()))
	rs.Server.GET("/api/dashboard", rs.GetDashboard)

	detections := rs.Server.Group("/detections")
	{
		detections.POST("", rs.PostDetection)
		detections.GET("", rs.GetDetections)
	}

	alerts := rs.Server.Group("/alerts")
	{
		alerts.POST("", rs.RateLimit(clientKey), rs.PostAlert)
		alerts.GET("/active", rs.GetActiveAlerts)
		alerts.GET("/:alert_id", rs.GetAlert)
		alerts.POST("/:alert_id/decision", rs.RateLimit(alertKey), rs.PostDecision)
		alerts.POST("/:alert_id/firefighter-status", rs.RateLimit(alertKey), rs.PostFirefighterStatus)
		alerts.GET("/:alert_id/dispatch", rs.GetDispatchPlan)
	}

	rs.Server.GET("/firefighter/alerts", rs.GetFirefighterAlerts)

	stations := rs.Server.Group("/stations")
	{
		stations.GET("", rs.GetStations)
		stations.POST("", rs.PostStation)
		stations.GET("/nearest", rs.GetNearestStations)
	}

	firefighters := rs.Server.Group("/firefighters")
	{
		firefighters.GET("", rs.GetFirefighters)
		firefighters.POST("", rs.PostFirefighter)
		firefighters.PUT("/:id", rs.PutFirefighter)
		firefighters.DELETE("/:id", rs.DeleteFirefighter)
	}

	personnel := rs.Server.Group("/personnel")
	{
		personnel.GET("", rs.GetPersonnel)
		personnel.POST("", rs.PostPersonnel)
		personnel.PUT("/:id", rs.PutPersonnel)
		personnel.DELETE("/:id", rs.DeletePersonnel)
	}

	cameras := rs.Server.Group("/cameras/:camera_id")
	{
		cameras.POST("/status", rs.PostCameraStatus)
		cameras.POST("/limiter", rs.PostCameraLimiter)
	}

	policy := rs.Server.Group("/dispatch/policy")
	{
		policy.GET("", rs.GetDispatchPolicy)
		policy.POST("", rs.PostDispatchPolicy)
	}
}
