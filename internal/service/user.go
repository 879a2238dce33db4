package service

import (
	"context"
	"lounge-portal/internal/dto"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"
)

type UserService interface {
	Me(ctx context.Context, identity model.Identity) (*dto.MeResponse, error)
}

type userServiceImpl struct {
	savedCardRepo repository.SavedCardRepository
}

func NewUserService(
	savedCardRepo repository.SavedCardRepository,
) UserService {
	return &userServiceImpl{
		savedCardRepo: savedCardRepo,
	}
}

// Me describes the caller. Saved cards come from the local cache only.
func (s *userServiceImpl) Me(ctx context.Context, identity model.Identity) (*dto.MeResponse, error) {
	if !identity.HasUser() {
		return nil, ErrUnauthenticated
	}

	resp := &dto.MeResponse{
		UserID:     identity.UserID,
		Email:      identity.Email,
		Role:       identity.Role,
		Guest:      identity.Kind == model.IdentityGuest,
		SavedCards: []*model.SavedCard{},
	}
	if !identity.IsAuthenticated() {
		return resp, nil
	}

	cards, err := s.savedCardRepo.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	resp.SavedCards = cards

	return resp, nil
}
