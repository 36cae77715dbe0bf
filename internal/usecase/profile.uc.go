package usecase

import (
	"context"
	"errors"

	"ride-backend/internal/domain"
	"ride-backend/pkg/xerrors"
)

type ProfileStore interface {
	Upsert(ctx context.Context, p *domain.Profile) error
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
}

// ProfileUpdate carries only the fields the caller supplied; nil means leave
// the stored value alone.
type ProfileUpdate struct {
	FirstName            *string
	LastName             *string
	Age                  *int
	Languages            []string
	Level                *string
	YearsOfExperience    *int
	LevelOfEducation     *string
	FreelancerOrEmployed *string
	CarOwnerOrDriver     []string
	IDNumber             *string
	PassportNumber       *string
	TRANumber            *string
	Bio                  *string
	ProfilePicture       *domain.FileRef
	IDImage              *domain.FileRef
	PassportImage        *domain.FileRef
	TRAImage             *domain.FileRef
}

type ProfileUsecase struct {
	profiles ProfileStore
}

func NewProfileUsecase(profiles ProfileStore) *ProfileUsecase {
	return &ProfileUsecase{profiles: profiles}
}

// Update merges the patch into the stored profile (creating it on first
// call) and persists the result.
func (uc *ProfileUsecase) Update(ctx context.Context, userID string, in *ProfileUpdate) (*domain.Profile, error) {
	p, err := uc.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, xerrors.ErrNotFound) {
		p = &domain.Profile{UserID: userID, Languages: []string{}, CarOwnerOrDriver: []string{}}
	} else if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		p.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		p.LastName = *in.LastName
	}
	if in.Age != nil {
		p.Age = in.Age
	}
	if in.Languages != nil {
		p.Languages = in.Languages
	}
	if in.Level != nil {
		if !domain.IsValidLevel(*in.Level) {
			return nil, xerrors.ErrInvalidRequest
		}
		p.Level = *in.Level
	}
	if in.YearsOfExperience != nil {
		p.YearsOfExperience = in.YearsOfExperience
	}
	if in.LevelOfEducation != nil {
		p.LevelOfEducation = *in.LevelOfEducation
	}
	if in.FreelancerOrEmployed != nil {
		if !domain.IsValidEmployment(*in.FreelancerOrEmployed) {
			return nil, xerrors.ErrInvalidRequest
		}
		p.FreelancerOrEmployed = *in.FreelancerOrEmployed
	}
	if in.CarOwnerOrDriver != nil {
		p.CarOwnerOrDriver = in.CarOwnerOrDriver
	}
	if in.IDNumber != nil {
		p.IDNumber = *in.IDNumber
	}
	if in.PassportNumber != nil {
		p.PassportNumber = *in.PassportNumber
	}
	if in.TRANumber != nil {
		p.TRANumber = *in.TRANumber
	}
	if in.Bio != nil {
		p.Bio = *in.Bio
	}
	if in.ProfilePicture != nil {
		p.ProfilePicture = in.ProfilePicture
	}
	if in.IDImage != nil {
		p.IDImage = in.IDImage
	}
	if in.PassportImage != nil {
		p.PassportImage = in.PassportImage
	}
	if in.TRAImage != nil {
		p.TRAImage = in.TRAImage
	}

	if err := uc.profiles.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *ProfileUsecase) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return uc.profiles.GetByUserID(ctx, userID)
}
