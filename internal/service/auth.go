package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magicgame/topup-store/internal/domain/models"
	"github.com/magicgame/topup-store/internal/security"
	"github.com/magicgame/topup-store/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials — единый ответ и на неизвестный email, и на неверный
// пароль, чтобы не раскрывать, какая именно часть не совпала.
var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	tokenTTL time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:      log,
		userRepo: userRepo,
		tokenTTL: tokenTTL,
	}
}

type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Login осуществляет аутентификацию администратора.
// Пароль сравнивается с сохранённым bcrypt-хэшем, после успешной проверки
// генерируется JWT-токен (секрет для подписи берется из переменной окружения).
func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "auth.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", ErrInvalidCredentials
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", ErrInvalidCredentials
	}

	token, err := security.NewToken(ctx, user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return token, nil
}

// SeedAdmin идемпотентно создаёт единственную учётную запись администратора
// из настроек окружения. Повторный запуск с уже существующим admin — no-op.
func (a *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	const op = "auth.SeedAdmin"
	logger := a.log.With(slog.String("op", op), slog.String("email", email))

	_, err := a.userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		logger.Info("admin already exists")
		return nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("%s: failed to check admin: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	admin := &models.User{
		Email:    email,
		PassHash: passHash,
		Role:     models.RoleAdmin,
	}
	if _, err := a.userRepo.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("%s: failed to create admin: %w", op, err)
	}

	logger.Info("admin account created")
	return nil
}
