package service

import (
	"context"
	"time"

	"github.com/spu-nas/nasweb/database"
	"github.com/spu-nas/nasweb/database/model"
	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/web/cache"
	"github.com/spu-nas/nasweb/web/entity"

	"github.com/samber/oops"
)

// SubscriberService stores contact-form submissions and serves them to the admin pages.
type SubscriberService struct{}

// Submit validates the contact form and stores a new subscriber stamped with
// the current time.
func (s *SubscriberService) Submit(ctx context.Context, form entity.SubscriberForm) (*model.Subscriber, error) {
	if err := newValidationError(form.Validate()); err != nil {
		return nil, err
	}

	subscriber := &model.Subscriber{
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		Email:       form.Email,
		SubmittedAt: time.Now(),
	}
	if err := database.GetDB().WithContext(ctx).Create(subscriber).Error; err != nil {
		return nil, oops.In("subscriber").Wrapf(err, "create subscriber")
	}
	s.invalidate()
	return subscriber, nil
}

// List returns every subscriber, newest submission first.
func (s *SubscriberService) List(ctx context.Context) ([]model.Subscriber, error) {
	var subscribers []model.Subscriber
	err := cache.GetOrSet(cache.KeySubscribersAll, &subscribers, cache.TTLSubscribers, func() (any, error) {
		var fresh []model.Subscriber
		err := database.GetDB().WithContext(ctx).
			Order("submitted_at DESC").
			Find(&fresh).
			Error
		return fresh, err
	})
	if err != nil {
		return nil, oops.In("subscriber").Wrapf(err, "list subscribers")
	}
	return subscribers, nil
}

func (s *SubscriberService) Get(ctx context.Context, id string) (*model.Subscriber, error) {
	subscriber := &model.Subscriber{}
	err := database.GetDB().WithContext(ctx).
		Where("id = ?", id).
		First(subscriber).
		Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, oops.In("subscriber").With("id", id).Wrapf(err, "get subscriber")
	}
	return subscriber, nil
}

// Update overwrites all three fields of an existing subscriber. The values
// are stored as given; no form validation is applied.
func (s *SubscriberService) Update(ctx context.Context, id string, form entity.SubscriberForm) (*model.Subscriber, error) {
	subscriber, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	subscriber.FirstName = form.FirstName
	subscriber.LastName = form.LastName
	subscriber.Email = form.Email
	if err := database.GetDB().WithContext(ctx).Save(subscriber).Error; err != nil {
		return nil, oops.In("subscriber").With("id", id).Wrapf(err, "update subscriber")
	}
	s.invalidate()
	return subscriber, nil
}

// Delete removes the subscriber. Deleting a missing id succeeds.
func (s *SubscriberService) Delete(ctx context.Context, id string) error {
	err := database.GetDB().WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Subscriber{}).
		Error
	if err != nil {
		return oops.In("subscriber").With("id", id).Wrapf(err, "delete subscriber")
	}
	s.invalidate()
	return nil
}

func (s *SubscriberService) invalidate() {
	if err := cache.InvalidateSubscribers(); err != nil {
		logger.Warning("invalidate subscribers cache err:", err)
	}
}
