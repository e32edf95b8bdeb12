package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tx-monitor/internal/custom_err"
	"tx-monitor/internal/models"
	"tx-monitor/internal/storage/postgres"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type Auth interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

type AuthService struct {
	operatorRepo  postgres.OperatorRepository
	txManager     TxManager
	jwtSecret     []byte
	jwtExpiration time.Duration
	log           *slog.Logger
}

func NewAuthService(
	operatorRepo postgres.OperatorRepository,
	txManager TxManager,
	jwtSecret string,
	jwtExpiration time.Duration,
	log *slog.Logger,
) Auth {
	return &AuthService{
		operatorRepo:  operatorRepo,
		txManager:     txManager,
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: jwtExpiration,
		log:           log,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	const op = "service.Register"

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", custom_err.ErrInvalidInput, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("failed to hash password", slog.String("op", op), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	operator := &models.Operator{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}

	err = s.txManager.WithTx(ctx, func(tx pgx.Tx) error {
		usernameTaken, err := s.operatorRepo.ExistsByUsernameTx(ctx, tx, req.Username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if usernameTaken {
			return custom_err.ErrUsernameExists
		}

		emailTaken, err := s.operatorRepo.ExistsByEmailTx(ctx, tx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if emailTaken {
			return custom_err.ErrEmailExists
		}

		created, err := s.operatorRepo.CreateTx(ctx, tx, operator)
		if err != nil {
			return fmt.Errorf("failed to create operator: %w", err)
		}

		s.log.Info("operator registered successfully",
			slog.String("op", op),
			slog.String("operator_id", created.ID.String()),
			slog.String("username", created.Username))

		return nil
	})

	if err != nil {
		if errors.Is(err, custom_err.ErrUsernameExists) || errors.Is(err, custom_err.ErrEmailExists) {
			return nil, err
		}
		s.log.Error("failed to register operator", slog.String("op", op), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.RegisterResponse{
		Message: "Operator registered successfully",
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	const op = "service.Login"
	const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

	operator, err := s.operatorRepo.GetByUsername(ctx, req.Username)

	if err != nil && !errors.Is(err, custom_err.ErrNotFound) {
		s.log.Error("failed to get operator", slog.String("op", op), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Сравнение с dummy-хэшем выравнивает время ответа для неизвестных имен
	var hashToCompare string
	if err != nil {
		hashToCompare = dummyHash
	} else {
		hashToCompare = operator.PasswordHash
	}

	err = bcrypt.CompareHashAndPassword([]byte(hashToCompare), []byte(req.Password))

	if operator == nil || err != nil {
		return nil, custom_err.ErrInvalidCredentials
	}

	token, err := s.generateJWT(operator)
	if err != nil {
		s.log.Error("failed to generate JWT", slog.String("op", op), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("operator logged in successfully",
		slog.String("op", op),
		slog.String("operator_id", operator.ID.String()),
		slog.String("username", operator.Username))

	return &models.LoginResponse{
		Token: token,
	}, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, custom_err.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, custom_err.ErrTokenNotActive
		}

		return nil, custom_err.ErrInvalidToken
	}

	if !token.Valid {
		return nil, custom_err.ErrInvalidToken
	}

	if claims.OperatorID == uuid.Nil || claims.Username == "" {
		return nil, custom_err.ErrInvalidToken
	}

	return claims, nil
}

func (s *AuthService) generateJWT(operator *models.Operator) (string, error) {
	claims := models.JWTClaims{
		OperatorID: operator.ID,
		Username:   operator.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
