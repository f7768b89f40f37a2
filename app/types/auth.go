package types

import (
	"strings"

	"github.com/vibast-solutions/ms-go-journal/app/validation"

	"github.com/labstack/echo/v4"
)

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

func NewSignupRequestFromContext(ctx echo.Context) (*SignupRequest, error) {
	var body SignupRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *SignupRequest) Validate() error {
	return validation.Struct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *LoginRequest) Validate() error {
	return validation.Struct(r)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func NewRefreshTokenRequestFromContext(ctx echo.Context) (*RefreshTokenRequest, error) {
	var body RefreshTokenRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *RefreshTokenRequest) Validate() error {
	return validation.Struct(r)
}

// LogoutRequest may be empty; without a refresh token every session of the
// caller is ended.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

func NewLogoutRequestFromContext(ctx echo.Context) (*LogoutRequest, error) {
	var body LogoutRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.RefreshToken = strings.TrimSpace(body.RefreshToken)

	return &body, nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func NewForgotPasswordRequestFromContext(ctx echo.Context) (*ForgotPasswordRequest, error) {
	var body ForgotPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *ForgotPasswordRequest) Validate() error {
	return validation.Struct(r)
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,max=72"`
}

func NewResetPasswordRequestFromContext(ctx echo.Context) (*ResetPasswordRequest, error) {
	var body ResetPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Token = strings.TrimSpace(body.Token)

	return &body, nil
}

func (r *ResetPasswordRequest) Validate() error {
	return validation.Struct(r)
}
