package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the decoded payload of an access token. HospitalID and Role are
// baked into the token so the role resolver can reject cheaply, but every
// request still re-reads the profile row as the source of truth.
type Claims struct {
	UserID     uuid.UUID
	Email      string
	HospitalID uuid.UUID
	Role       string
}

type JWTService interface {
	GenerateAccessToken(claims *Claims) (string, error)
	GenerateRefreshToken(userID uuid.UUID) (string, error)
	ValidateToken(token string) (*Claims, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
}

type Config struct {
	Secret        string
	RefreshSecret string
	Expiry        time.Duration
	RefreshExpiry time.Duration
}

type jwtService struct {
	cfg Config
}

func NewJWTService(cfg Config) JWTService {
	if cfg.Expiry == 0 {
		cfg.Expiry = 24 * time.Hour
	}
	if cfg.RefreshExpiry == 0 {
		cfg.RefreshExpiry = 7 * 24 * time.Hour
	}
	return &jwtService{cfg: cfg}
}

func (s *jwtService) GenerateAccessToken(claims *Claims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":     claims.UserID.String(),
		"email":       claims.Email,
		"hospital_id": claims.HospitalID.String(),
		"role":        claims.Role,
		"iat":         now.Unix(),
		"exp":         now.Add(s.cfg.Expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(s.cfg.RefreshExpiry).Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateToken(tokenStr string) (*Claims, error) {
	mapClaims, err := s.parse(tokenStr, s.cfg.Secret)
	if err != nil {
		return nil, err
	}

	userID, err := parseUUIDClaim(mapClaims, "user_id")
	if err != nil {
		return nil, err
	}
	hospitalID, err := parseUUIDClaim(mapClaims, "hospital_id")
	if err != nil {
		return nil, err
	}
	email, _ := mapClaims["email"].(string)
	role, _ := mapClaims["role"].(string)

	return &Claims{
		UserID:     userID,
		Email:      email,
		HospitalID: hospitalID,
		Role:       role,
	}, nil
}

func (s *jwtService) ValidateRefreshToken(tokenStr string) (uuid.UUID, error) {
	mapClaims, err := s.parse(tokenStr, s.cfg.RefreshSecret)
	if err != nil {
		return uuid.Nil, err
	}
	return parseUUIDClaim(mapClaims, "user_id")
}

func (s *jwtService) parse(tokenStr, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func parseUUIDClaim(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing %s claim", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s claim", key)
	}
	return id, nil
}
