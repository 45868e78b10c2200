package auth

import (
	"time"

	"github.com/frahmantamala/course-platform/internal"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetPrincipal(userID int64) (*Principal, error)
}

type UserRepository interface {
	GetCredentialsByEmail(email string) (passwordHash string, userID int64, err error)
	GetPrincipalByID(userID int64) (*Principal, error)
}

type TokenGenerator interface {
	GenerateAccessToken(userID int64, email string) (string, error)
	GenerateRefreshToken(userID int64, email string) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
	}
}

// Authenticate validates credentials and returns a token pair.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	storedHash, userID, err := s.userRepo.GetCredentialsByEmail(dto.Email)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	return s.issueTokens(userID, dto.Email)
}

// RefreshTokens validates a refresh token and returns a new pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	// the account may have been deactivated since the token was issued
	if _, err := s.userRepo.GetPrincipalByID(claims.UserID); err != nil {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issueTokens(claims.UserID, claims.Email)
}

func (s *Service) issueTokens(userID int64, email string) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate refresh token", err)
	}

	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

func (s *Service) GetPrincipal(userID int64) (*Principal, error) {
	return s.userRepo.GetPrincipalByID(userID)
}

// JWTTokenGenerator signs and validates HMAC tokens with separate secrets for
// the access and refresh families so one cannot stand in for the other.
type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (g *JWTTokenGenerator) GenerateAccessToken(userID int64, email string) (string, error) {
	return g.generate(userID, email, g.AccessTokenTTL, g.AccessTokenSecret)
}

func (g *JWTTokenGenerator) GenerateRefreshToken(userID int64, email string) (string, error) {
	return g.generate(userID, email, g.RefreshTokenTTL, g.RefreshTokenSecret)
}

func (g *JWTTokenGenerator) generate(userID int64, email string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (g *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return g.validate(tokenString, g.AccessTokenSecret)
}

func (g *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return g.validate(tokenString, g.RefreshTokenSecret)
}

func (g *JWTTokenGenerator) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, internal.ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, internal.ErrInvalidToken
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, internal.ErrTokenExpired
	}
	return claims, nil
}
