package services

import (
	"context"
	"fmt"
	"net/http"

	"floo/internal/api"
	"floo/internal/core"
)

// UserService covers the account endpoints that do not require a session.
type UserService struct {
	client *api.Client
}

func NewUserService(client *api.Client) *UserService {
	return &UserService{client: client}
}

// Register creates a new account. The caller still has to log in afterwards;
// registration does not establish a session.
func (s *UserService) Register(ctx context.Context, in core.UserCreate) (core.User, error) {
	if err := in.Validate(); err != nil {
		return core.User{}, err
	}
	var user core.User
	if err := s.client.Do(ctx, http.MethodPost, "register", in, &user); err != nil {
		return core.User{}, fmt.Errorf("register user: %w", err)
	}
	return user, nil
}
