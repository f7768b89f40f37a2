package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-journal/app/dto/http"
	"github.com/vibast-solutions/ms-go-journal/app/service"
	"github.com/vibast-solutions/ms-go-journal/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const forgotPasswordMessage = "If the email exists, a password reset link has been sent"

type UserAuthController struct {
	userAuthService service.UserAuthService
}

func NewUserAuthController(userAuthService service.UserAuthService) *UserAuthController {
	return &UserAuthController{userAuthService: userAuthService}
}

func (c *UserAuthController) Signup(ctx echo.Context) error {
	req, err := types.NewSignupRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind signup request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Signup validation failed")
		return validationFailed(ctx, err)
	}

	logrus.WithField("email", req.Email).Info("Signup request received")
	user, err := c.userAuthService.Signup(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Signup failed: user already exists")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "email already registered"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Signup failed: weak password")
			return weakPassword(ctx, "password", err)
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Signup failed")
		return internalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID.String(),
		"email":   user.Email,
	}).Info("User signed up")

	return ctx.JSON(http.StatusCreated, httpdto.NewUserResponse(user))
}

func (c *UserAuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return validationFailed(ctx, err)
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	pair, err := c.userAuthService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return unauthorized(ctx, "invalid email or password")
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return internalError(ctx)
	}

	logrus.WithField("email", req.Email).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.NewTokenResponse(pair))
}

func (c *UserAuthController) Refresh(ctx echo.Context) error {
	req, err := types.NewRefreshTokenRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind refresh token request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Refresh token validation failed")
		return validationFailed(ctx, err)
	}

	logrus.Info("Refresh token request received")
	pair, err := c.userAuthService.Refresh(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.Warn("Refresh token failed: invalid or expired token")
			return unauthorized(ctx, "invalid or expired refresh token")
		}
		logrus.WithError(err).Error("Refresh token failed")
		return internalError(ctx)
	}

	logrus.Info("Refresh token successful")
	return ctx.JSON(http.StatusOK, httpdto.NewTokenResponse(pair))
}

func (c *UserAuthController) Logout(ctx echo.Context) error {
	req, err := types.NewLogoutRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind logout request")
		return invalidBody(ctx)
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		logrus.Warn("Logout failed: missing user_id in context")
		return unauthorized(ctx, "unauthorized")
	}

	logrus.WithField("user_id", userID.String()).Info("Logout request received")
	if err = c.userAuthService.Logout(ctx.Request().Context(), userID, req.RefreshToken); err != nil {
		logrus.WithError(err).WithField("user_id", userID.String()).Error("Logout failed")
		return internalError(ctx)
	}

	logrus.WithField("user_id", userID.String()).Info("Logout successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "Successfully logged out"})
}

func (c *UserAuthController) ForgotPassword(ctx echo.Context) error {
	req, err := types.NewForgotPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Forgot password validation failed")
		return validationFailed(ctx, err)
	}

	logrus.WithField("email", req.Email).Info("Forgot password request received")
	if err = c.userAuthService.ForgotPassword(ctx.Request().Context(), req.Email); err != nil {
		logrus.WithError(err).WithField("email", req.Email).Error("Forgot password failed")
		return internalError(ctx)
	}

	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: forgotPasswordMessage})
}

func (c *UserAuthController) ResetPassword(ctx echo.Context) error {
	req, err := types.NewResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return invalidBody(ctx)
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Reset password validation failed")
		return validationFailed(ctx, err)
	}

	logrus.Info("Reset password request received")
	if err = c.userAuthService.ResetPassword(ctx.Request().Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.Warn("Reset password failed: weak password")
			return weakPassword(ctx, "new_password", err)
		}
		if errors.Is(err, service.ErrInvalidResetToken) {
			logrus.Warn("Reset password failed: invalid or expired token")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid or expired reset token"})
		}
		logrus.WithError(err).Error("Reset password failed")
		return internalError(ctx)
	}

	logrus.Info("Password reset successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "Password has been reset successfully"})
}
