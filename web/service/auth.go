// Package service implements the nasweb business logic: registration and
// login of admin users, and the subscriber (contact form) lifecycle.
package service

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/spu-nas/nasweb/config"
	"github.com/spu-nas/nasweb/database"
	"github.com/spu-nas/nasweb/database/model"
	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/util/crypto"
	"github.com/spu-nas/nasweb/web/entity"
	"github.com/spu-nas/nasweb/web/session"

	"github.com/samber/oops"
)

// AuthService registers admin users, checks credentials and manages the
// authenticated identity held by the session.
type AuthService struct {
	userService UserService
}

// Register validates the form, refuses a taken email and stores a new user
// with a bcrypt hash of the password.
func (s *AuthService) Register(ctx context.Context, form entity.RegisterForm) (*model.User, error) {
	if err := newValidationError(form.Validate()); err != nil {
		return nil, err
	}

	if _, err := s.userService.GetUserByEmail(ctx, form.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := crypto.HashPasswordAsBcrypt(form.Password)
	if err != nil {
		return nil, oops.In("auth").Wrapf(err, "hash password")
	}

	user := &model.User{
		Name:         form.Name,
		Email:        form.Email,
		PasswordHash: hash,
	}
	err = database.GetDB().WithContext(ctx).Create(user).Error
	if database.IsDuplicate(err) {
		// lost the race against a concurrent registration
		return nil, ErrDuplicateEmail
	} else if err != nil {
		return nil, oops.In("auth").With("email", form.Email).Wrapf(err, "create user")
	}

	logger.Infof("registered user %s", user.Email)
	return user, nil
}

// Login returns the user matching email and password. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email string, password string) (*model.User, error) {
	user, err := s.userService.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}

	if !crypto.CheckPasswordHash(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// StartSession moves the client to a new session bound to user. The session
// id used before login stops working.
func (s *AuthService) StartSession(c *gin.Context, user *model.User) error {
	if err := session.Renew(c); err != nil {
		return err
	}
	if err := session.SetMaxAge(c, config.GetSessionMaxAge()*60); err != nil {
		return err
	}
	return session.SetLoginUser(c, user.Id)
}

// Logout drops the authenticated identity. It is a no-op for anonymous sessions.
func (s *AuthService) Logout(c *gin.Context) error {
	if id := session.GetLoginUserId(c); id != "" {
		logger.Infof("user %s logged out", id)
	}
	return session.ClearLoginUser(c)
}

// IsAuthenticated reports whether the client session carries a user.
func (s *AuthService) IsAuthenticated(c *gin.Context) bool {
	return session.IsLogin(c)
}

// CurrentUser resolves the session identity against the store. It returns
// nil for anonymous sessions and for ids that no longer resolve.
func (s *AuthService) CurrentUser(c *gin.Context) *model.User {
	id := session.GetLoginUserId(c)
	if id == "" {
		return nil
	}
	user, err := s.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warning("load session user err:", err)
		}
		return nil
	}
	return user
}
