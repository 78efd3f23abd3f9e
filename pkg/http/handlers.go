package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"

	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

const (
	defaultDetectionLimit = 100
	defaultAlertLimit     = 20
)

var adminStatuses = []string{"", string(models.AdminStatusPending), string(models.AdminStatusAccepted), string(models.AdminStatusDeclined)}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (rs *RestfulServer) GetDashboard(c *gin.Context) {
	state, err := rs.Fire.Dashboard.Snapshot()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type DetectionRequest struct {
	CameraID    uint       `json:"camera_id"`
	CameraName  string     `json:"camera_name"`
	Type        string     `json:"detection_type"`
	Confidence  float64    `json:"confidence"`
	ImagePath   *string    `json:"image_path"`
	ClipPath    *string    `json:"clip_path"`
	Location    string     `json:"location"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Timestamp   *time.Time `json:"timestamp"`
	AutoAlert   bool       `json:"auto_alert"`
	AdminStatus string     `json:"admin_status"`
}

var detectionRequestSchema = z.Struct(z.Shape{
	"CameraName":  z.String().Required(),
	"Type":        z.String().Required().OneOf([]string{string(models.DetectionTypeFire), string(models.DetectionTypeSmoke)}),
	"Confidence":  z.Float64().GTE(0).LTE(1),
	"AdminStatus": z.String().OneOf(adminStatuses),
})

func (rs *RestfulServer) PostDetection(c *gin.Context) {
	var req DetectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if issues := detectionRequestSchema.Validate(&req); issues != nil {
		writeIssues(c, issues)
		return
	}

	if !rs.CheckLimiter(cameraKey(req.CameraID)) {
		writeKindError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
		return
	}

	input := models.DetectionInput{
		CameraID:        req.CameraID,
		CameraName:      req.CameraName,
		Type:            models.DetectionType(req.Type),
		Confidence:      req.Confidence,
		ImagePath:       req.ImagePath,
		ClipPath:        req.ClipPath,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		AutoAlert:       req.AutoAlert,
		AdminStatusHint: models.AdminStatus(req.AdminStatus),
	}
	if req.Timestamp != nil {
		input.Timestamp = *req.Timestamp
	}

	detection, alert, err := rs.Fire.Detection.RecordDetection(input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"detection": detection, "alert": alert})
}

func (rs *RestfulServer) GetDetections(c *gin.Context) {
	limit, ok := queryLimit(c, defaultDetectionLimit)
	if !ok {
		return
	}
	detections, err := rs.Fire.Detection.ListDetections(limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detections)
}

type AlertRequest struct {
	DetectionID *uint  `json:"detection_id"`
	Type        string `json:"type"`
	Location    string `json:"location"`
	Message     string `json:"message"`
	Level       string `json:"alert_level"`
	AdminStatus string `json:"admin_status"`
}

var alertRequestSchema = z.Struct(z.Shape{
	"Type":        z.String().OneOf([]string{"", string(models.DetectionTypeFire), string(models.DetectionTypeSmoke)}),
	"Level":       z.String().OneOf([]string{"", string(models.AlertLevelInfo), string(models.AlertLevelWarning), string(models.AlertLevelCritical)}),
	"AdminStatus": z.String().OneOf(adminStatuses),
})

func (rs *RestfulServer) PostAlert(c *gin.Context) {
	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if issues := alertRequestSchema.Validate(&req); issues != nil {
		writeIssues(c, issues)
		return
	}

	input := models.CreateAlertInput{
		DetectionID:     req.DetectionID,
		Location:        req.Location,
		Message:         req.Message,
		Level:           models.AlertLevel(req.Level),
		AdminStatusHint: models.AdminStatus(req.AdminStatus),
	}
	if req.Type != "" {
		t := models.DetectionType(req.Type)
		input.Type = &t
	}

	alert, err := rs.Fire.Alert.Create(input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

func (rs *RestfulServer) GetActiveAlerts(c *gin.Context) {
	limit, ok := queryLimit(c, defaultAlertLimit)
	if !ok {
		return
	}
	alerts, err := rs.Fire.Alert.ListActive(limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (rs *RestfulServer) GetAlert(c *gin.Context) {
	alertID, ok := paramID(c, "alert_id")
	if !ok {
		return
	}
	alert, err := rs.Fire.Alert.GetAlert(alertID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

type DecisionRequest struct {
	Decision string `json:"decision"`
}

var decisionRequestSchema = z.Struct(z.Shape{
	"Decision": z.String().Required().OneOf([]string{string(models.AdminStatusAccepted), string(models.AdminStatusDeclined)}),
})

func (rs *RestfulServer) PostDecision(c *gin.Context) {
	alertID, ok := paramID(c, "alert_id")
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if issues := decisionRequestSchema.Validate(&req); issues != nil {
		writeIssues(c, issues)
		return
	}

	if err := rs.Fire.Alert.Decide(alertID, models.AdminStatus(req.Decision)); err != nil {
		writeError(c, err)
		return
	}

	alert, err := rs.Fire.Alert.GetAlert(alertID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

type FirefighterStatusRequest struct {
	Status string `json:"status"`
}

var firefighterStatusRequestSchema = z.Struct(z.Shape{
	"Status": z.String().Required().OneOf([]string{
		string(models.FirefighterStatusPending),
		string(models.FirefighterStatusResponding),
		string(models.FirefighterStatusAcknowledged),
	}),
})

func (rs *RestfulServer) PostFirefighterStatus(c *gin.Context) {
	alertID, ok := paramID(c, "alert_id")
	if !ok {
		return
	}

	var req FirefighterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if issues := firefighterStatusRequestSchema.Validate(&req); issues != nil {
		writeIssues(c, issues)
		return
	}

	result, err := rs.Fire.Alert.UpdateFirefighterStatus(alertID, models.FirefighterStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (rs *RestfulServer) GetDispatchPlan(c *gin.Context) {
	alertID, ok := paramID(c, "alert_id")
	if !ok {
		return
	}
	plan, err := rs.Fire.Dispatch.DispatchPlan(alertID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (rs *RestfulServer) GetFirefighterAlerts(c *gin.Context) {
	alerts, err := rs.Fire.Alert.ListFirefighterVisible()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

type NearestQuery struct {
	Lat float64 `zog:"lat"`
	Lon float64 `zog:"lon"`
	K   int     `zog:"k"`
}

var nearestQuerySchema = z.Struct(z.Shape{
	"Lat": z.Float64().Required().GTE(-90).LTE(90),
	"Lon": z.Float64().Required().GTE(-180).LTE(180),
	"K":   z.Int().GTE(0),
})

func (rs *RestfulServer) GetNearestStations(c *gin.Context) {
	var q NearestQuery
	if issues := nearestQuerySchema.Parse(zhttp.Request(c.Request), &q); issues != nil {
		writeIssues(c, issues)
		return
	}

	if q.K == 0 {
		policy, err := rs.Fire.Policy.GetPolicy()
		if err != nil {
			writeError(c, err)
			return
		}
		q.K = policy.StationCount
	}

	ranked, err := rs.Fire.Dispatch.NearestStations(q.Lat, q.Lon, q.K)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranked)
}

func (rs *RestfulServer) GetStations(c *gin.Context) {
	stations, err := rs.Fire.Roster.ListStations()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stations)
}

type StationRequest struct {
	ID             uint     `json:"id"`
	Name           string   `json:"name"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	PersonnelCount int      `json:"personnel_count"`
}

var stationRequestSchema = z.Struct(z.Shape{
	"Name":           z.String().Required(),
	"PersonnelCount": z.Int().GTE(0),
})

func (rs *RestfulServer) PostStation(c *gin.Context) {
	var req StationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if issues := stationRequestSchema.Validate(&req); issues != nil {
		writeIssues(c, issues)
		return
	}

	station := models.Station{
		ID:             req.ID,
		Name:           req.Name,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		PersonnelCount: req.PersonnelCount,
	}
	if err := rs.Fire.Roster.UpsertStation(&station); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, station)
}

func (rs *RestfulServer) GetFirefighters(c *gin.Context) {
	firefighters, err := rs.Fire.Roster.ListFirefighters()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, firefighters)
}

type FirefighterRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Station uint   `json:"station"`
	Status  string `json:"status"`
}

var onlineStatuses = []string{"", string(models.OnlineStatusOnline), string(models.OnlineStatusOffline)}

var firefighterRequestSchema = z.Struct(z.Shape{
	"Name":   z.String().Required(),
	"Phone":  z.String().Required(),
	"Status": z.String().OneOf(onlineStatuses),
})

func bindFirefighter(c *gin.Context) (*models.Firefighter, bool) {
	var req FirefighterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return nil, false
	}
	if issues := firefighterRequestSchema.Validate(&req); issues != nil {
		writeIssues(c, issues)
		return nil, false
	}
	return &models.Firefighter{
		Name:      req.Name,
		Phone:     req.Phone,
		StationID: req.Station,
		Status:    models.OnlineStatus(req.Status),
	}, true
}

func (rs *RestfulServer) PostFirefighter(c *gin.Context) {
	ff, ok := bindFirefighter(c)
	if !ok {
		return
	}
	if err := rs.Fire.Roster.CreateFirefighter(ff); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ff)
}

func (rs *RestfulServer) PutFirefighter(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ff, ok := bindFirefighter(c)
	if !ok {
		return
	}
	ff.ID = id
	if err := rs.Fire.Roster.UpdateFirefighter(ff); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ff)
}

func (rs *RestfulServer) DeleteFirefighter(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := rs.Fire.Roster.DeleteFirefighter(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (rs *RestfulServer) GetPersonnel(c *gin.Context) {
	personnel, err := rs.Fire.Roster.ListPersonnel()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, personnel)
}

type PersonnelRequest struct {
	Name    string  `json:"name"`
	Role    string  `json:"role"`
	Type    string  `json:"type"`
	Phone   *string `json:"phone"`
	Station *uint   `json:"station"`
	Status  string  `json:"status"`
}

var personnelRequestSchema = z.Struct(z.Shape{
	"Name":   z.String().Required(),
	"Role":   z.String().Required(),
	"Status": z.String().OneOf(onlineStatuses),
})

func bindPersonnel(c *gin.Context) (*models.Personnel, bool) {
	var req PersonnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return nil, false
	}
	if issues := personnelRequestSchema.Validate(&req); issues != nil {
		writeIssues(c, issues)
		return nil, false
	}
	return &models.Personnel{
		Name:      req.Name,
		Role:      req.Role,
		Type:      req.Type,
		Phone:     req.Phone,
		StationID: req.Station,
		Status:    models.OnlineStatus(req.Status),
	}, true
}

func (rs *RestfulServer) PostPersonnel(c *gin.Context) {
	p, ok := bindPersonnel(c)
	if !ok {
		return
	}
	if err := rs.Fire.Roster.CreatePersonnel(p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (rs *RestfulServer) PutPersonnel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, ok := bindPersonnel(c)
	if !ok {
		return
	}
	p.ID = id
	if err := rs.Fire.Roster.UpdatePersonnel(p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (rs *RestfulServer) DeletePersonnel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := rs.Fire.Roster.DeletePersonnel(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type CameraStatusRequest struct {
	Status string `json:"status"`
}

var cameraStatusRequestSchema = z.Struct(z.Shape{
	"Status": z.String().Required().OneOf([]string{string(models.OnlineStatusOnline), string(models.OnlineStatusOffline)}),
})

func (rs *RestfulServer) PostCameraStatus(c *gin.Context) {
	cameraID, ok := paramID(c, "camera_id")
	if !ok {
		return
	}

	var req CameraStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if issues := cameraStatusRequestSchema.Validate(&req); issues != nil {
		writeIssues(c, issues)
		return
	}

	if err := rs.Fire.Roster.SetCameraStatus(cameraID, models.OnlineStatus(req.Status)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"Rate":  z.Float64().Required().GT(0),
	"Burst": z.Int().Required().GT(0),
})

// PostCameraLimiter overrides the ingest rate of one camera.
func (rs *RestfulServer) PostCameraLimiter(c *gin.Context) {
	cameraID, ok := paramID(c, "camera_id")
	if !ok {
		return
	}

	var req LimiterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if issues := limiterRequestSchema.Validate(&req); issues != nil {
		writeIssues(c, issues)
		return
	}

	if !rs.SetLimiter(cameraKey(cameraID), req.Rate, req.Burst) {
		writeKindError(c, http.StatusConflict, "limiter_disabled", "rate limiting is not enabled")
		return
	}
	c.Status(http.StatusOK)
}

func (rs *RestfulServer) GetDispatchPolicy(c *gin.Context) {
	policy, err := rs.Fire.Policy.GetPolicy()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

type DispatchPolicyRequest struct {
	StationCount     int    `json:"station_count"`
	ResponseFallback string `json:"response_fallback"`
}

var dispatchPolicyRequestSchema = z.Struct(z.Shape{
	"StationCount":     z.Int().Required().GT(0),
	"ResponseFallback": z.String().OneOf([]string{"", string(models.ResponseFallbackZero), string(models.ResponseFallbackAlertCreated)}),
})

func (rs *RestfulServer) PostDispatchPolicy(c *gin.Context) {
	var req DispatchPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if issues := dispatchPolicyRequestSchema.Validate(&req); issues != nil {
		writeIssues(c, issues)
		return
	}

	policy := models.DispatchPolicy{
		StationCount:     req.StationCount,
		ResponseFallback: models.ResponseFallback(req.ResponseFallback),
	}
	if err := rs.Fire.Policy.UpsertPolicy(&policy); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}
