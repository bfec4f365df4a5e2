package service

import (
	"context"

	"github.com/spu-nas/nasweb/database"
	"github.com/spu-nas/nasweb/database/model"
	"github.com/spu-nas/nasweb/web/cache"

	"github.com/samber/oops"
)

// UserService reads registered admin users.
type UserService struct{}

// GetUser returns the user with id. Hits are served from the in-process
// cache since users are never modified after registration.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if v, ok := cache.Memory().Get(cache.UserKey(id)); ok {
		if cached, ok := v.(model.User); ok {
			return &cached, nil
		}
	}

	db := database.GetDB().WithContext(ctx)

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("id = ?", id).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, oops.In("user").With("id", id).Wrapf(err, "get user")
	}
	cache.Memory().SetDefault(cache.UserKey(id), *user)
	return user, nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	db := database.GetDB().WithContext(ctx)

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("email = ?", email).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, oops.In("user").With("email", email).Wrapf(err, "get user by email")
	}
	return user, nil
}

func (s *UserService) GetUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := database.GetDB().WithContext(ctx).
		Order("created_at ASC").
		Find(&users).
		Error
	if err != nil {
		return nil, oops.In("user").Wrapf(err, "list users")
	}
	return users, nil
}
