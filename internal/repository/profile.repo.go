package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"ride-backend/internal/domain"
	"ride-backend/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func fileRef(path *string, at *time.Time) *domain.FileRef {
	if path == nil || *path == "" {
		return nil
	}
	return &domain.FileRef{Path: *path, UploadedAt: at}
}

func refCols(ref *domain.FileRef) (*string, *time.Time) {
	if ref == nil {
		return nil, nil
	}
	return &ref.Path, ref.UploadedAt
}

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, first_name, last_name, age, languages, level,
	years_of_experience, level_of_education, freelancer_or_employed, car_owner_or_driver,
	id_number, passport_number, tra_number, bio,
	profile_picture, profile_picture_at, id_image, id_image_at,
	passport_image, passport_image_at, tra_image, tra_image_at, updated_at`

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	var userID int64
	var picPath, idPath, passPath, traPath *string
	var picAt, idAt, passAt, traAt *time.Time

	err := row.Scan(
		&userID,
		&p.FirstName,
		&p.LastName,
		&p.Age,
		&p.Languages,
		&p.Level,
		&p.YearsOfExperience,
		&p.LevelOfEducation,
		&p.FreelancerOrEmployed,
		&p.CarOwnerOrDriver,
		&p.IDNumber,
		&p.PassportNumber,
		&p.TRANumber,
		&p.Bio,
		&picPath, &picAt,
		&idPath, &idAt,
		&passPath, &passAt,
		&traPath, &traAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.UserID = strconv.FormatInt(userID, 10)
	p.ProfilePicture = fileRef(picPath, picAt)
	p.IDImage = fileRef(idPath, idAt)
	p.PassportImage = fileRef(passPath, passAt)
	p.TRAImage = fileRef(traPath, traAt)
	return &p, nil
}

// Upsert writes the whole profile row; the handler merges partial input
// before calling.
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	userID, err := strconv.ParseInt(p.UserID, 10, 64)
	if err != nil {
		return xerrors.ErrUserNotFound
	}

	picPath, picAt := refCols(p.ProfilePicture)
	idPath, idAt := refCols(p.IDImage)
	passPath, passAt := refCols(p.PassportImage)
	traPath, traAt := refCols(p.TRAImage)

	_, err = r.db.Exec(ctx, `
		INSERT INTO user_profiles (
			user_id, first_name, last_name, age, languages, level,
			years_of_experience, level_of_education, freelancer_or_employed, car_owner_or_driver,
			id_number, passport_number, tra_number, bio,
			profile_picture, profile_picture_at, id_image, id_image_at,
			passport_image, passport_image_at, tra_image, tra_image_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			first_name=EXCLUDED.first_name,
			last_name=EXCLUDED.last_name,
			age=EXCLUDED.age,
			languages=EXCLUDED.languages,
			level=EXCLUDED.level,
			years_of_experience=EXCLUDED.years_of_experience,
			level_of_education=EXCLUDED.level_of_education,
			freelancer_or_employed=EXCLUDED.freelancer_or_employed,
			car_owner_or_driver=EXCLUDED.car_owner_or_driver,
			id_number=EXCLUDED.id_number,
			passport_number=EXCLUDED.passport_number,
			tra_number=EXCLUDED.tra_number,
			bio=EXCLUDED.bio,
			profile_picture=EXCLUDED.profile_picture,
			profile_picture_at=EXCLUDED.profile_picture_at,
			id_image=EXCLUDED.id_image,
			id_image_at=EXCLUDED.id_image_at,
			passport_image=EXCLUDED.passport_image,
			passport_image_at=EXCLUDED.passport_image_at,
			tra_image=EXCLUDED.tra_image,
			tra_image_at=EXCLUDED.tra_image_at,
			updated_at=NOW()
	`, userID, p.FirstName, p.LastName, p.Age, p.Languages, p.Level,
		p.YearsOfExperience, p.LevelOfEducation, p.FreelancerOrEmployed, p.CarOwnerOrDriver,
		p.IDNumber, p.PassportNumber, p.TRANumber, p.Bio,
		picPath, picAt, idPath, idAt, passPath, passAt, traPath, traAt)
	return err
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, xerrors.ErrNotFound
	}
	return scanProfile(r.db.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM user_profiles WHERE user_id=$1
	`, uid))
}
