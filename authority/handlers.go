package authority

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rohanhumai/qr-attendance-client/models"
)

// Router builds the gin engine exposing the authority's API.
func (a *Authority) Router() *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	api.POST("/auth/student/register", a.handleRegister)
	api.GET("/student/token-status", a.handleTokenStatus)
	api.POST("/attendance/mark", a.handleMark)
	api.GET("/attendance/my-attendance", a.handleHistory)

	api.POST("/teacher/session", a.handleCreateSession)
	api.PUT("/teacher/session/:code/end", a.handleEndSession)
	api.GET("/teacher/session/:code/attendance", a.handleSessionAttendance)

	api.GET("/session/:code/feed", a.handleFeed)
	return router
}

func (a *Authority) handleRegister(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIError{Message: err.Error(), Code: string(models.KindInvalidPayload)})
		return
	}
	fingerprint := c.GetHeader("X-Device-Fingerprint")

	token, student, err := a.RegisterStudent(req, fingerprint)
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, models.RegisterResponse{
		Success: true,
		Message: "Registered successfully",
		Token:   token,
		Student: student,
	})
}

func (a *Authority) handleTokenStatus(c *gin.Context) {
	identityID, ok := a.bearerIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.TokenStatus(identityID))
}

func (a *Authority) handleMark(c *gin.Context) {
	identityID, ok := a.bearerIdentity(c)
	if !ok {
		return
	}
	var req models.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIError{Message: err.Error(), Code: string(models.KindInvalidPayload)})
		return
	}

	record, err := a.Redeem(identityID, c.GetHeader("X-Device-Fingerprint"), req.SessionCode)
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MarkResponse{Success: true, Attendance: record})
}

func (a *Authority) handleHistory(c *gin.Context) {
	identityID, ok := a.bearerIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.HistoryResponse{Attendance: a.History(identityID)})
}

type createSessionRequest struct {
	Teacher       string `json:"teacher"`
	Subject       string `json:"subject" binding:"required"`
	Department    string `json:"department"`
	ExpiryMinutes int    `json:"expiryMinutes"`
}

func (a *Authority) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.APIError{Message: err.Error(), Code: string(models.KindInvalidPayload)})
		return
	}
	session := a.CreateSession(req.Teacher, req.Subject, req.Department, req.ExpiryMinutes)
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

func (a *Authority) handleEndSession(c *gin.Context) {
	if err := a.EndSession(c.Param("code")); err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *Authority) handleSessionAttendance(c *gin.Context) {
	records, err := a.SessionAttendance(c.Param("code"))
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, models.HistoryResponse{Attendance: records})
}

// bearerIdentity authenticates the request, writing the 401 itself when the
// credential is missing or dead.
func (a *Authority) bearerIdentity(c *gin.Context) (string, bool) {
	identityID, err := a.Authenticate(c.GetHeader("Authorization"))
	if err != nil {
		writeFailure(c, err)
		return "", false
	}
	return identityID, true
}

func writeFailure(c *gin.Context, err error) {
	failure, ok := models.FailureOf(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.APIError{Message: err.Error()})
		return
	}
	c.JSON(statusForKind(failure.Kind), models.APIError{
		Message:           failure.Message,
		Code:              string(failure.Kind),
		CooldownRemaining: failure.CooldownRemaining,
		DeviceLocked:      failure.Kind == models.KindDeviceLocked,
	})
}

func statusForKind(kind models.FailureKind) int {
	switch kind {
	case models.KindInvalidPayload:
		return http.StatusBadRequest
	case models.KindAuthExpired:
		return http.StatusUnauthorized
	case models.KindDeviceMismatch, models.KindDeviceLocked:
		return http.StatusForbidden
	case models.KindSessionUnavailable:
		return http.StatusGone
	case models.KindAlreadyRedeemed:
		return http.StatusConflict
	case models.KindCooldownActive:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
