package jwt

import (
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrInvalidClaims = errors.New("token is missing employee_id or role")

type Service interface {
	GenerateAccessToken(employeeID string, role user.Role) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	exp, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, err
	}
	return &JWTService{
		accessTokenExpirationTime: exp,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}, nil
}

func (j *JWTService) GenerateAccessToken(employeeID string, role user.Role) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"role":        string(role),
		"type":        "access",
		"exp":         expiresAt,
	})
	return tokenString, expiresAt, err
}

// ActorFromClaims builds the caller from verified access-token claims.
func ActorFromClaims(claims map[string]interface{}) (user.Actor, error) {
	if t, _ := claims["type"].(string); t != "access" {
		return user.Actor{}, ErrInvalidClaims
	}
	employeeID, _ := claims["employee_id"].(string)
	role, _ := claims["role"].(string)
	if employeeID == "" || !user.Role(role).Valid() {
		return user.Actor{}, ErrInvalidClaims
	}
	return user.Actor{EmployeeID: employeeID, Role: user.Role(role)}, nil
}
