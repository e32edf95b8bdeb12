package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"tx-monitor/internal/custom_err"
	"tx-monitor/internal/models"
)

func setupAuthService() (*AuthService, *MockOperatorRepo, *MockTxManager) {
	operatorRepo := new(MockOperatorRepo)
	txManager := new(MockTxManager)

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	service := &AuthService{
		operatorRepo:  operatorRepo,
		txManager:     txManager,
		jwtSecret:     []byte("test-secret"),
		jwtExpiration: time.Hour,
		log:           log,
	}

	return service, operatorRepo, txManager
}

func TestAuthService_Register_Success(t *testing.T) {
	service, operatorRepo, txManager := setupAuthService()
	ctx := context.Background()

	req := models.RegisterRequest{
		Username: "ops_anna",
		Email:    "anna@example.com",
		Password: "password123",
	}

	operatorRepo.On("ExistsByUsernameTx", ctx, mock.Anything, req.Username).Return(false, nil)
	operatorRepo.On("ExistsByEmailTx", ctx, mock.Anything, req.Email).Return(false, nil)
	operatorRepo.On("CreateTx", ctx, mock.Anything, mock.AnythingOfType("*models.Operator")).
		Return(&models.Operator{
			ID:       uuid.New(),
			Username: req.Username,
			Email:    req.Email,
		}, nil)

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(pgx.Tx) error")).Return(nil)

	resp, err := service.Register(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, "Operator registered successfully", resp.Message)

	operatorRepo.AssertExpectations(t)
	txManager.AssertExpectations(t)
}

func TestAuthService_Register_UsernameExists(t *testing.T) {
	service, operatorRepo, txManager := setupAuthService()
	ctx := context.Background()

	req := models.RegisterRequest{
		Username: "taken",
		Email:    "new@example.com",
		Password: "password123",
	}

	operatorRepo.On("ExistsByUsernameTx", ctx, mock.Anything, req.Username).Return(true, nil)
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(pgx.Tx) error")).Return(nil)

	resp, err := service.Register(ctx, req)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, custom_err.ErrUsernameExists)

	operatorRepo.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Register_EmailExists(t *testing.T) {
	service, operatorRepo, txManager := setupAuthService()
	ctx := context.Background()

	req := models.RegisterRequest{
		Username: "ops_anna",
		Email:    "taken@example.com",
		Password: "password123",
	}

	operatorRepo.On("ExistsByUsernameTx", ctx, mock.Anything, req.Username).Return(false, nil)
	operatorRepo.On("ExistsByEmailTx", ctx, mock.Anything, req.Email).Return(true, nil)
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(pgx.Tx) error")).Return(nil)

	resp, err := service.Register(ctx, req)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, custom_err.ErrEmailExists)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	service, operatorRepo, _ := setupAuthService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"empty username", models.RegisterRequest{Username: "", Email: "a@b.com", Password: "password123"}},
		{"invalid email", models.RegisterRequest{Username: "anna", Email: "not-an-email", Password: "password123"}},
		{"short password", models.RegisterRequest{Username: "anna", Email: "a@b.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := service.Register(ctx, tt.req)

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, custom_err.ErrInvalidInput)
		})
	}

	operatorRepo.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_Success(t *testing.T) {
	service, operatorRepo, _ := setupAuthService()
	ctx := context.Background()

	password := "password123"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)

	operator := &models.Operator{
		ID:           uuid.New(),
		Username:     "ops_anna",
		PasswordHash: string(hash),
	}

	operatorRepo.On("GetByUsername", ctx, "ops_anna").Return(operator, nil)

	resp, err := service.Login(ctx, models.LoginRequest{Username: "ops_anna", Password: password})

	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	claims, err := service.ValidateToken(resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, operator.ID, claims.OperatorID)
	assert.Equal(t, "ops_anna", claims.Username)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	service, operatorRepo, _ := setupAuthService()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	assert.NoError(t, err)

	operatorRepo.On("GetByUsername", ctx, "ops_anna").Return(&models.Operator{
		ID:           uuid.New(),
		Username:     "ops_anna",
		PasswordHash: string(hash),
	}, nil)

	resp, err := service.Login(ctx, models.LoginRequest{Username: "ops_anna", Password: "wrong"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, custom_err.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	service, operatorRepo, _ := setupAuthService()
	ctx := context.Background()

	operatorRepo.On("GetByUsername", ctx, "ghost").Return(nil, custom_err.ErrNotFound)

	resp, err := service.Login(ctx, models.LoginRequest{Username: "ghost", Password: "whatever"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, custom_err.ErrInvalidCredentials)
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	service, _, _ := setupAuthService()

	claims, err := service.ValidateToken("not-a-token")

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, custom_err.ErrInvalidToken)
}

func TestAuthService_ValidateToken_Expired(t *testing.T) {
	service, _, _ := setupAuthService()
	service.jwtExpiration = -time.Hour

	token, err := service.generateJWT(&models.Operator{ID: uuid.New(), Username: "ops_anna"})
	assert.NoError(t, err)

	claims, err := service.ValidateToken(token)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, custom_err.ErrTokenExpired)
}

func TestAuthService_ValidateToken_WrongSecret(t *testing.T) {
	service, _, _ := setupAuthService()

	token, err := service.generateJWT(&models.Operator{ID: uuid.New(), Username: "ops_anna"})
	assert.NoError(t, err)

	other, _, _ := setupAuthService()
	other.jwtSecret = []byte("another-secret")

	claims, err := other.ValidateToken(token)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, custom_err.ErrInvalidToken)
}
