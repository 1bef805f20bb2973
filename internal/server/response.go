package server

import (
	"net/http"

	"taskboard/internal/domain/errors"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Every response uses the {success, data?, message?, count?} envelope.

func respondData(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, gin.H{"success": true, "data": data})
}

func respondList(ctx *gin.Context, data any, count int) {
	ctx.JSON(http.StatusOK, gin.H{"success": true, "count": count, "data": data})
}

func respondMessage(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": gin.H{}})
}

func respondFailure(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"success": false, "message": message})
}

// respondError maps domain errors onto HTTP statuses. Anything unexpected
// is logged and reported as a generic 500 so store detail never leaks.
func respondError(ctx *gin.Context, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", ctx.FullPath()).Error("unexpected error")
	}
	respondFailure(ctx, status, message)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errors.ErrTaskNotFound), errors.Is(err, errors.ErrUserNotFound):
		return http.StatusNotFound, rootMessage(err)
	case errors.Is(err, errors.ErrForbidden):
		return http.StatusForbidden, errors.ErrForbidden.Error()
	case errors.Is(err, errors.ErrUserAlreadyExists), errors.Is(err, errors.ErrConflict):
		return http.StatusConflict, rootMessage(err)
	case errors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized, errors.ErrInvalidCredentials.Error()
	case errors.Is(err, errors.ErrUnauthorized):
		return http.StatusUnauthorized, errors.ErrUnauthorized.Error()
	}
	return http.StatusInternalServerError, errors.ErrInternalServer.Error()
}

func rootMessage(err error) string {
	for _, known := range []error{errors.ErrTaskNotFound, errors.ErrUserNotFound, errors.ErrUserAlreadyExists, errors.ErrConflict} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
