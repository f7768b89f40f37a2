package controller

import (
	"errors"
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-journal/app/dto/http"
	"github.com/vibast-solutions/ms-go-journal/app/service"
	"github.com/vibast-solutions/ms-go-journal/app/validation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

func invalidBody(ctx echo.Context) error {
	return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
}

func validationFailed(ctx echo.Context, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return ctx.JSON(http.StatusUnprocessableEntity, httpdto.ErrorResponse{
			Error:  "validation failed",
			Fields: verr.Fields,
		})
	}
	return ctx.JSON(http.StatusUnprocessableEntity, httpdto.ErrorResponse{Error: err.Error()})
}

// weakPassword reports a policy failure against the named field.
func weakPassword(ctx echo.Context, field string, err error) error {
	detail := strings.TrimPrefix(err.Error(), service.ErrWeakPassword.Error()+": ")
	return validationFailed(ctx, validation.FieldError(field, detail))
}

func unauthorized(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: message})
}

func internalError(ctx echo.Context) error {
	return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
}

func currentUserID(ctx echo.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Get(userIDKey).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}
