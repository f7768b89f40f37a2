package middleware

import (
	"net/http"

	"github.com/vibast-solutions/ms-go-journal/app/auth"
	httpdto "github.com/vibast-solutions/ms-go-journal/app/dto/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	UserIDKey = "user_id"
	ClaimsKey = "claims"
)

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	authService accessTokenValidator
	jwt         echo.MiddlewareFunc
}

func NewAuthMiddleware(authService accessTokenValidator) *AuthMiddleware {
	m := &AuthMiddleware{authService: authService}
	m.jwt = echojwt.WithConfig(echojwt.Config{
		ContextKey:     ClaimsKey,
		TokenLookup:    "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: m.parseToken,
		SuccessHandler: m.storeUser,
		ErrorHandler:   m.reject,
	})
	return m
}

// RequireAuth lets a request through only with a valid access token and
// stores its claims and user id on the context.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.jwt(next)
}

func (m *AuthMiddleware) parseToken(_ echo.Context, tokenString string) (interface{}, error) {
	claims, err := m.authService.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *AuthMiddleware) storeUser(c echo.Context) {
	claims, ok := c.Get(ClaimsKey).(*auth.Claims)
	if !ok {
		return
	}
	if userID, err := claims.UserID(); err == nil {
		c.Set(UserIDKey, userID)
	}
}

func (m *AuthMiddleware) reject(c echo.Context, err error) error {
	logrus.WithError(err).Debug("Rejected request without a valid access token")
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "could not validate credentials"})
}
