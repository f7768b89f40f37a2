package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-journal/app/dto/http"
	"github.com/vibast-solutions/ms-go-journal/app/service"
	"github.com/vibast-solutions/ms-go-journal/app/types"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type JournalEntryController struct {
	entryService service.JournalEntryService
}

func NewJournalEntryController(entryService service.JournalEntryService) *JournalEntryController {
	return &JournalEntryController{entryService: entryService}
}

func (c *JournalEntryController) Create(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return unauthorized(ctx, "unauthorized")
	}

	req, err := types.NewCreateJournalEntryRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind create entry request")
		return invalidBody(ctx)
	}
	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID.String()).Debug("Create entry validation failed")
		return validationFailed(ctx, err)
	}

	entry, err := c.entryService.Create(ctx.Request().Context(), userID, req.Fields())
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("user_id", userID.String()).Warn("Create entry for deleted account")
			return unauthorized(ctx, "unauthorized")
		}
		logrus.WithError(err).WithField("user_id", userID.String()).Error("Create entry failed")
		return internalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID.String(),
		"entry_id": entry.ID.String(),
	}).Info("Journal entry created")

	return ctx.JSON(http.StatusCreated, httpdto.NewJournalEntryResponse(entry))
}

func (c *JournalEntryController) List(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return unauthorized(ctx, "unauthorized")
	}

	entries, err := c.entryService.List(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.String()).Error("List entries failed")
		return internalError(ctx)
	}

	return ctx.JSON(http.StatusOK, httpdto.NewJournalEntryListResponse(entries))
}

func (c *JournalEntryController) Get(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return unauthorized(ctx, "unauthorized")
	}

	entryID, ok := entryIDParam(ctx)
	if !ok {
		return entryNotFound(ctx)
	}

	entry, err := c.entryService.Get(ctx.Request().Context(), userID, entryID)
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return entryNotFound(ctx)
		}
		logrus.WithError(err).WithField("user_id", userID.String()).Error("Get entry failed")
		return internalError(ctx)
	}

	return ctx.JSON(http.StatusOK, httpdto.NewJournalEntryResponse(entry))
}

func (c *JournalEntryController) Update(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return unauthorized(ctx, "unauthorized")
	}

	entryID, ok := entryIDParam(ctx)
	if !ok {
		return entryNotFound(ctx)
	}

	req, err := types.NewUpdateJournalEntryRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update entry request")
		return invalidBody(ctx)
	}
	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID.String()).Debug("Update entry validation failed")
		return validationFailed(ctx, err)
	}

	entry, err := c.entryService.Update(ctx.Request().Context(), userID, entryID, req.Fields())
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return entryNotFound(ctx)
		}
		logrus.WithError(err).WithField("user_id", userID.String()).Error("Update entry failed")
		return internalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID.String(),
		"entry_id": entry.ID.String(),
	}).Info("Journal entry updated")

	return ctx.JSON(http.StatusOK, httpdto.NewJournalEntryResponse(entry))
}

func (c *JournalEntryController) Delete(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return unauthorized(ctx, "unauthorized")
	}

	entryID, ok := entryIDParam(ctx)
	if !ok {
		return entryNotFound(ctx)
	}

	if err := c.entryService.Delete(ctx.Request().Context(), userID, entryID); err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return entryNotFound(ctx)
		}
		logrus.WithError(err).WithField("user_id", userID.String()).Error("Delete entry failed")
		return internalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID.String(),
		"entry_id": entryID.String(),
	}).Info("Journal entry deleted")

	return ctx.NoContent(http.StatusNoContent)
}

func (c *JournalEntryController) DeleteAll(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return unauthorized(ctx, "unauthorized")
	}

	count, err := c.entryService.DeleteAll(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.String()).Error("Delete all entries failed")
		return internalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID.String(),
		"count":   count,
	}).Info("Journal entries deleted")

	return ctx.NoContent(http.StatusNoContent)
}

// entryIDParam treats a malformed id like a missing entry.
func entryIDParam(ctx echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func entryNotFound(ctx echo.Context) error {
	return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "journal entry not found"})
}
