package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	z "github.com/Oudwins/zog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/fire"
)

var kindStatus = map[fire.Kind]int{
	fire.KindValidation:         http.StatusBadRequest,
	fire.KindNotFound:           http.StatusNotFound,
	fire.KindInvalidTransition:  http.StatusConflict,
	fire.KindMissingCoordinates: http.StatusUnprocessableEntity,
	fire.KindNoStations:         http.StatusUnprocessableEntity,
	fire.KindStorage:            http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind fire.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeKindError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": gin.H{"kind": kind, "message": message}})
}

func writeError(c *gin.Context, err error) {
	kind := fire.KindOf(err)
	status := StatusFor(kind)

	message := err.Error()
	if kind == fire.KindStorage {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Error("Request failed",
			zap.String("request_id", c.GetString(contextRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		var fe *fire.Error
		if errors.As(err, &fe) {
			message = fe.Message
		}
	}
	writeKindError(c, status, string(kind), message)
}

func validationMessage(fields []string) string {
	return "validation error: invalid " + strings.Join(fields, ", ")
}

// issueFields lists the offending fields of a zog issue map, skipping zog's
// own "$" summary keys.
func issueFields(issues z.ZogIssueMap) []string {
	fields := make([]string, 0, len(issues))
	for field := range issues {
		if strings.HasPrefix(field, "$") {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func writeIssues(c *gin.Context, issues z.ZogIssueMap) {
	writeKindError(c, http.StatusBadRequest, string(fire.KindValidation), validationMessage(issueFields(issues)))
}

func writeBindError(c *gin.Context, err error) {
	writeKindError(c, http.StatusBadRequest, string(fire.KindValidation), "validation error: "+err.Error())
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// paramID reads a positive numeric path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		writeKindError(c, http.StatusBadRequest, string(fire.KindValidation), "validation error: invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeKindError(c, http.StatusBadRequest, string(fire.KindValidation), "validation error: invalid limit")
		return 0, false
	}
	return limit, true
}
