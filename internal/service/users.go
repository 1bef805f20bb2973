package service

import (
	"context"
	"strings"
	"time"

	"taskboard/internal/domain/errors"
	"taskboard/internal/domain/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type UserService struct {
	store UserStore
	cost  int
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store, cost: bcrypt.DefaultCost}
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := models.Validator().Struct(req); err != nil {
		return nil, models.ValidationError(err)
	}

	if existing, _ := s.store.GetUserByUsername(ctx, req.Username); existing != nil {
		return nil, errors.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	log.WithField("user", user.ID).Info("user registered")
	return user, nil
}

// Login returns ErrInvalidCredentials for both an unknown username and a
// wrong password.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if err := models.Validator().Struct(req); err != nil {
		return nil, models.ValidationError(err)
	}
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := models.Validator().Struct(req); err != nil {
		return nil, models.ValidationError(err)
	}
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != "" && req.Username != user.Username {
		if existing, _ := s.store.GetUserByUsername(ctx, req.Username); existing != nil {
			return nil, errors.ErrUserAlreadyExists
		}
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hash)
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	log.WithField("user", id).Info("profile updated")
	return user, nil
}

// DeleteAccount removes the user; stores drop the user's tasks with it.
func (s *UserService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	log.WithField("user", id).Info("account deleted")
	return nil
}
