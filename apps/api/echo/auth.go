package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/arifa/core"
	"github.com/trezcool/arifa/core/school"
)

// appJWTConfig is the default JWT auth middleware config.
var appJWTConfig = middleware.JWTConfig{
	SigningKey:    []byte(core.Conf.SecretKey),
	SigningMethod: middleware.AlgorithmHS256,
	ContextKey:    "userToken",
	Claims:        new(Claims),
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string      `json:"username,omitempty"`
	Role     school.Role `json:"role,omitempty"`
}

func GetViewerClaims(viewer school.Viewer) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   viewer.ID,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: viewer.Username,
		Role:     viewer.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextViewer(ctx echo.Context) (school.Viewer, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return school.Viewer{}, errors.Wrap(err, "getting context claims")
	}

	viewer := school.Viewer{
		ID:       claims.Subject,
		Username: claims.Username,
		Role:     claims.Role,
	}
	if viewer.ID == "" && viewer.Username == "" {
		return school.Viewer{}, core.NewValidationError(nil, core.FieldError{Field: "sub", Error: "missing subject"})
	}
	switch viewer.Role {
	case school.RoleStudent, school.RoleTeacher, school.RoleGuardian, school.RoleAdmin:
	default:
		return school.Viewer{}, errHttpForbidden
	}
	return viewer, nil
}
