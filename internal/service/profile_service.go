package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hsawaji/flema-backend/internal/model"
	"github.com/hsawaji/flema-backend/internal/repository"
)

type ProfileService interface {
	Upsert(ctx context.Context, uid, email, username string, avatarURL, bio *string) (*model.User, error)
	Get(ctx context.Context, uid string) (*model.User, error)
}

type profileService struct {
	repo repository.UserRepository
}

func NewProfileService(repo repository.UserRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) Upsert(ctx context.Context, uid, email, username string, avatarURL, bio *string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrValidation)
	}
	if username == "" || len(username) > 120 {
		return nil, fmt.Errorf("%w: invalid username", ErrValidation)
	}
	user := &model.User{
		UID:       uid,
		Email:     email,
		Username:  username,
		AvatarURL: avatarURL,
		Bio:       bio,
	}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *profileService) Get(ctx context.Context, uid string) (*model.User, error) {
	user, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
