package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/fire"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

func respond(data any) (*structpb.Struct, error) {
	payload := map[string]any{"success": true, "message": "OK"}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "encode response: %v", err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, status.Errorf(codes.Internal, "encode response: %v", err)
		}
		payload["data"] = generic
	}
	return structpb.NewStruct(payload)
}

func failure(kind, message string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"success": false, "message": message, "kind": kind})
}

func coreFailure(method string, err error) (*structpb.Struct, error) {
	kind := fire.KindOf(err)
	message := err.Error()
	if kind == fire.KindStorage {
		common.GetLoggerWith(common.LoggerNameGrpcServer).Error("Call failed",
			zap.String("method", method),
			zap.Error(err),
		)
		var fe *fire.Error
		if errors.As(err, &fe) {
			message = fe.Message
		}
	}
	return failure(string(kind), message)
}

func invalid(issues z.ZogIssueMap) (*structpb.Struct, error) {
	fields := make([]string, 0, len(issues))
	for field := range issues {
		if strings.HasPrefix(field, "$") {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return failure(string(fire.KindValidation), "validation error: invalid "+strings.Join(fields, ", "))
}

// bind copies the Struct into a typed request through its JSON form.
func bind(req *structpb.Struct, dst any) error {
	raw, err := json.Marshal(req.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func bindFailure(err error) (*structpb.Struct, error) {
	return failure(string(fire.KindValidation), fmt.Sprintf("validation error: %v", err))
}

var alertIDSchema = z.Int().Required().GT(0)

type alertRef struct {
	AlertID int `json:"alert_id"`
}

func validateAlertID(alertID *int) z.ZogIssueList {
	return alertIDSchema.Validate(alertID)
}

func alertIDFailure(issues z.ZogIssueList) (*structpb.Struct, error) {
	return failure(string(fire.KindValidation), fmt.Sprintf("validation error: invalid alert_id: %v", issues))
}

type createAlertRequest struct {
	DetectionID *uint  `json:"detection_id"`
	Type        string `json:"type"`
	Location    string `json:"location"`
	Message     string `json:"message"`
	Level       string `json:"alert_level"`
	AdminStatus string `json:"admin_status"`
}

var createAlertSchema = z.Struct(z.Shape{
	"Type":        z.String().OneOf([]string{"", string(models.DetectionTypeFire), string(models.DetectionTypeSmoke)}),
	"Level":       z.String().OneOf([]string{"", string(models.AlertLevelInfo), string(models.AlertLevelWarning), string(models.AlertLevelCritical)}),
	"AdminStatus": z.String().OneOf([]string{"", string(models.AdminStatusPending), string(models.AdminStatusAccepted), string(models.AdminStatusDeclined)}),
})

func (s *AlertServer) CreateAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in createAlertRequest
	if err := bind(req, &in); err != nil {
		return bindFailure(err)
	}
	if issues := createAlertSchema.Validate(&in); issues != nil {
		return invalid(issues)
	}

	input := models.CreateAlertInput{
		DetectionID:     in.DetectionID,
		Location:        in.Location,
		Message:         in.Message,
		Level:           models.AlertLevel(in.Level),
		AdminStatusHint: models.AdminStatus(in.AdminStatus),
	}
	if in.Type != "" {
		t := models.DetectionType(in.Type)
		input.Type = &t
	}

	alert, err := s.Fire.Alert.Create(input)
	if err != nil {
		return coreFailure("CreateAlert", err)
	}
	return respond(alert)
}

type decideRequest struct {
	alertRef
	Decision string `json:"decision"`
}

var decideSchema = z.Struct(z.Shape{
	"Decision": z.String().Required().OneOf([]string{string(models.AdminStatusAccepted), string(models.AdminStatusDeclined)}),
})

func (s *AlertServer) Decide(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in decideRequest
	if err := bind(req, &in); err != nil {
		return bindFailure(err)
	}
	if issues := validateAlertID(&in.AlertID); issues != nil {
		return alertIDFailure(issues)
	}
	if issues := decideSchema.Validate(&in); issues != nil {
		return invalid(issues)
	}

	alertID := uint(in.AlertID)
	if err := s.Fire.Alert.Decide(alertID, models.AdminStatus(in.Decision)); err != nil {
		return coreFailure("Decide", err)
	}
	alert, err := s.Fire.Alert.GetAlert(alertID)
	if err != nil {
		return coreFailure("Decide", err)
	}
	return respond(alert)
}

type firefighterStatusRequest struct {
	alertRef
	Status string `json:"status"`
}

var firefighterStatusSchema = z.Struct(z.Shape{
	"Status": z.String().Required(),
})

func (s *AlertServer) UpdateFirefighterStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in firefighterStatusRequest
	if err := bind(req, &in); err != nil {
		return bindFailure(err)
	}
	if issues := validateAlertID(&in.AlertID); issues != nil {
		return alertIDFailure(issues)
	}
	if issues := firefighterStatusSchema.Validate(&in); issues != nil {
		return invalid(issues)
	}

	// unknown statuses are rejected by the core as validation failures
	result, err := s.Fire.Alert.UpdateFirefighterStatus(uint(in.AlertID), models.FirefighterStatus(in.Status))
	if err != nil {
		return coreFailure("UpdateFirefighterStatus", err)
	}
	return respond(result)
}

func (s *AlertServer) ListFirefighterAlerts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	alerts, err := s.Fire.Alert.ListFirefighterVisible()
	if err != nil {
		return coreFailure("ListFirefighterAlerts", err)
	}
	return respond(alerts)
}

func (s *AlertServer) GetDispatchPlan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in alertRef
	if err := bind(req, &in); err != nil {
		return bindFailure(err)
	}
	if issues := validateAlertID(&in.AlertID); issues != nil {
		return alertIDFailure(issues)
	}

	plan, err := s.Fire.Dispatch.DispatchPlan(uint(in.AlertID))
	if err != nil {
		return coreFailure("GetDispatchPlan", err)
	}
	return respond(plan)
}

type recordDetectionRequest struct {
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

var recordDetectionSchema = z.Struct(z.Shape{
	"CameraName": z.String().Required(),
	"Type":       z.String().Required().OneOf([]string{string(models.DetectionTypeFire), string(models.DetectionTypeSmoke)}),
	"Confidence": z.Float64().GTE(0).LTE(1),
})

func (s *AlertServer) RecordDetection(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in recordDetectionRequest
	if err := bind(req, &in); err != nil {
		return bindFailure(err)
	}
	if issues := recordDetectionSchema.Validate(&in); issues != nil {
		return invalid(issues)
	}

	input := models.DetectionInput{
		CameraID:        in.CameraID,
		CameraName:      in.CameraName,
		Type:            models.DetectionType(in.Type),
		Confidence:      in.Confidence,
		ImagePath:       in.ImagePath,
		ClipPath:        in.ClipPath,
		Location:        in.Location,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		AutoAlert:       in.AutoAlert,
		AdminStatusHint: models.AdminStatus(in.AdminStatus),
	}
	if in.Timestamp != nil {
		input.Timestamp = *in.Timestamp
	}

	detection, alert, err := s.Fire.Detection.RecordDetection(input)
	if err != nil {
		return coreFailure("RecordDetection", err)
	}
	return respond(map[string]any{"detection": detection, "alert": alert})
}

func (s *AlertServer) Snapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	state, err := s.Fire.Dashboard.Snapshot()
	if err != nil {
		return coreFailure("Snapshot", err)
	}
	return respond(state)
}

type setLimiterRequest struct {
	Target string  `json:"target"`
	ID     int     `json:"id"`
	Rate   float64 `json:"rate"`
	Burst  int     `json:"burst"`
}

var setLimiterSchema = z.Struct(z.Shape{
	"Target": z.String().Required().OneOf([]string{"alert", "camera"}),
	"ID":     z.Int().Required().GT(0),
	"Rate":   z.Float64().Required().GT(0),
	"Burst":  z.Int().Required().GT(0),
})

// SetLimiter overrides the bucket of one alert or camera.
func (s *AlertServer) SetLimiter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in setLimiterRequest
	if err := bind(req, &in); err != nil {
		return bindFailure(err)
	}
	if issues := setLimiterSchema.Validate(&in); issues != nil {
		return invalid(issues)
	}

	if s.RateLimiterStore == nil {
		return failure("limiter_disabled", "rate limiting is not enabled")
	}
	s.RateLimiterStore.SetLimiter(in.Target+":"+strconv.Itoa(in.ID), rate.Limit(in.Rate), in.Burst)
	return respond(nil)
}
