package usecase

import (
	"context"
	"strings"

	"ride-backend/internal/domain"
	"ride-backend/pkg/id"
	"ride-backend/pkg/xerrors"
)

type VehicleStore interface {
	Create(ctx context.Context, v *domain.Vehicle, fileIDs []string) error
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Vehicle, error)
	Update(ctx context.Context, v *domain.Vehicle, fileIDs []string) error
	Delete(ctx context.Context, id string) ([]string, error)
	ListPublic(ctx context.Context, limit, offset int) ([]*domain.PublicVehicle, error)
}

// VehicleUpdate is a partial update plus file changes. Nil scalar pointers
// mean unchanged; Remove*Paths name stored files to drop; Add* are freshly
// uploaded refs.
type VehicleUpdate struct {
	PlateNumber        *string
	Model              *string
	SeatCount          *int
	TripType           *string
	Color              *string
	WindowType         *string
	Sunroof            *bool
	FourByFour         *bool
	AdditionalFeatures []string

	RemoveImagePaths    []string
	RemoveDocumentPaths []string
	AddImages           []domain.FileRef
	AddDocuments        []domain.FileRef
}

type VehicleUsecase struct {
	vehicles VehicleStore
	sf       *id.Snowflake
}

func NewVehicleUsecase(vehicles VehicleStore, sf *id.Snowflake) *VehicleUsecase {
	return &VehicleUsecase{vehicles: vehicles, sf: sf}
}

func (uc *VehicleUsecase) validate(v *domain.Vehicle) error {
	if strings.TrimSpace(v.PlateNumber) == "" {
		return xerrors.ErrInvalidRequest
	}
	if !domain.IsValidTripType(v.TripType) || !domain.IsValidWindowType(v.WindowType) {
		return xerrors.ErrInvalidRequest
	}
	if len(v.Images) > domain.MaxVehicleImages {
		return xerrors.ErrInvalidRequest
	}
	return nil
}

func (uc *VehicleUsecase) fileIDs(v *domain.Vehicle) []string {
	n := len(v.Images) + len(v.Documents)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uc.sf.Generate()
	}
	return ids
}

func (uc *VehicleUsecase) Create(ctx context.Context, v *domain.Vehicle) error {
	if err := uc.validate(v); err != nil {
		return err
	}
	v.ID = uc.sf.Generate()
	if v.AdditionalFeatures == nil {
		v.AdditionalFeatures = []string{}
	}
	return uc.vehicles.Create(ctx, v, uc.fileIDs(v))
}

func (uc *VehicleUsecase) Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	return uc.vehicles.GetByID(ctx, vehicleID)
}

func (uc *VehicleUsecase) ListByUser(ctx context.Context, userID string) ([]*domain.Vehicle, error) {
	return uc.vehicles.ListByUser(ctx, userID)
}

func (uc *VehicleUsecase) ListPublic(ctx context.Context, limit, offset int) ([]*domain.PublicVehicle, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.vehicles.ListPublic(ctx, limit, offset)
}

func removeRefs(refs []domain.FileRef, paths []string) ([]domain.FileRef, []string) {
	if len(paths) == 0 {
		return refs, nil
	}
	drop := make(map[string]bool, len(paths))
	for _, p := range paths {
		drop[p] = true
	}
	kept := refs[:0:0]
	var removed []string
	for _, ref := range refs {
		if drop[ref.Path] {
			removed = append(removed, ref.Path)
			continue
		}
		kept = append(kept, ref)
	}
	return kept, removed
}

// Update applies a partial update for the owner. It returns the updated
// vehicle plus the paths of files dropped from it, so the caller can remove
// them from disk.
func (uc *VehicleUsecase) Update(ctx context.Context, userID, vehicleID string, in *VehicleUpdate) (*domain.Vehicle, []string, error) {
	v, err := uc.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, nil, err
	}
	if v.UserID != userID {
		return nil, nil, xerrors.ErrForbidden
	}

	if in.PlateNumber != nil {
		v.PlateNumber = *in.PlateNumber
	}
	if in.Model != nil {
		v.Model = *in.Model
	}
	if in.SeatCount != nil {
		v.SeatCount = *in.SeatCount
	}
	if in.TripType != nil {
		v.TripType = *in.TripType
	}
	if in.Color != nil {
		v.Color = *in.Color
	}
	if in.WindowType != nil {
		v.WindowType = *in.WindowType
	}
	if in.Sunroof != nil {
		v.Sunroof = *in.Sunroof
	}
	if in.FourByFour != nil {
		v.FourByFour = *in.FourByFour
	}
	if in.AdditionalFeatures != nil {
		v.AdditionalFeatures = in.AdditionalFeatures
	}

	var removed []string
	v.Images, removed = removeRefs(v.Images, in.RemoveImagePaths)
	docsKept, removedDocs := removeRefs(v.Documents, in.RemoveDocumentPaths)
	v.Documents = docsKept
	removed = append(removed, removedDocs...)

	v.Images = append(v.Images, in.AddImages...)
	v.Documents = append(v.Documents, in.AddDocuments...)

	if err := uc.validate(v); err != nil {
		return nil, nil, err
	}
	if err := uc.vehicles.Update(ctx, v, uc.fileIDs(v)); err != nil {
		return nil, nil, err
	}
	return v, removed, nil
}

// Delete removes the owner's vehicle and returns the stored file paths for
// disk cleanup.
func (uc *VehicleUsecase) Delete(ctx context.Context, userID, vehicleID string) ([]string, error) {
	v, err := uc.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v.UserID != userID {
		return nil, xerrors.ErrForbidden
	}
	return uc.vehicles.Delete(ctx, vehicleID)
}
