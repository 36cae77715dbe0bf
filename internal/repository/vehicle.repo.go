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

type VehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `id, user_id, plate_number, model, seat_count, trip_type, color,
	window_type, sunroof, four_by_four, additional_features, created_at, updated_at`

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	var v domain.Vehicle
	var vehicleID, userID int64
	err := row.Scan(
		&vehicleID,
		&userID,
		&v.PlateNumber,
		&v.Model,
		&v.SeatCount,
		&v.TripType,
		&v.Color,
		&v.WindowType,
		&v.Sunroof,
		&v.FourByFour,
		&v.AdditionalFeatures,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v.ID = strconv.FormatInt(vehicleID, 10)
	v.UserID = strconv.FormatInt(userID, 10)
	v.Images = []domain.FileRef{}
	v.Documents = []domain.FileRef{}
	return &v, nil
}

// Create inserts the vehicle and its file refs in one transaction.
func (r *VehicleRepository) Create(ctx context.Context, v *domain.Vehicle, fileIDs []string) error {
	vehicleID, err := strconv.ParseInt(v.ID, 10, 64)
	if err != nil {
		return xerrors.ErrInvalidRequest
	}
	userID, err := strconv.ParseInt(v.UserID, 10, 64)
	if err != nil {
		return xerrors.ErrInvalidRequest
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO vehicles (id, user_id, plate_number, model, seat_count, trip_type, color,
			window_type, sunroof, four_by_four, additional_features)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at
	`, vehicleID, userID, v.PlateNumber, v.Model, v.SeatCount, v.TripType, v.Color,
		v.WindowType, v.Sunroof, v.FourByFour, v.AdditionalFeatures).
		Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertFiles(ctx, tx, vehicleID, v, fileIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertFiles(ctx context.Context, tx pgx.Tx, vehicleID int64, v *domain.Vehicle, fileIDs []string) error {
	refs := make([]struct {
		kind string
		ref  domain.FileRef
	}, 0, len(v.Images)+len(v.Documents))
	for _, img := range v.Images {
		refs = append(refs, struct {
			kind string
			ref  domain.FileRef
		}{domain.VehicleFileImage, img})
	}
	for _, doc := range v.Documents {
		refs = append(refs, struct {
			kind string
			ref  domain.FileRef
		}{domain.VehicleFileDocument, doc})
	}
	if len(refs) != len(fileIDs) {
		return xerrors.ErrInvalidRequest
	}
	for i, f := range refs {
		fileID, err := strconv.ParseInt(fileIDs[i], 10, 64)
		if err != nil {
			return xerrors.ErrInvalidRequest
		}
		uploadedAt := time.Now()
		if f.ref.UploadedAt != nil {
			uploadedAt = *f.ref.UploadedAt
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO vehicle_files (id, vehicle_id, kind, path, uploaded_at)
			VALUES ($1,$2,$3,$4,$5)
		`, fileID, vehicleID, f.kind, f.ref.Path, uploadedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *VehicleRepository) loadFiles(ctx context.Context, vehicles map[string]*domain.Vehicle) error {
	if len(vehicles) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(vehicles))
	for id := range vehicles {
		vid, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, vid)
	}

	rows, err := r.db.Query(ctx, `
		SELECT vehicle_id, kind, path, uploaded_at
		FROM vehicle_files
		WHERE vehicle_id = ANY($1)
		ORDER BY uploaded_at
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var vehicleID int64
		var kind string
		var ref domain.FileRef
		var uploadedAt time.Time
		if err := rows.Scan(&vehicleID, &kind, &ref.Path, &uploadedAt); err != nil {
			return err
		}
		ref.UploadedAt = &uploadedAt
		v, ok := vehicles[strconv.FormatInt(vehicleID, 10)]
		if !ok {
			continue
		}
		if kind == domain.VehicleFileImage {
			v.Images = append(v.Images, ref)
		} else {
			v.Documents = append(v.Documents, ref)
		}
	}
	return rows.Err()
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	vehicleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, xerrors.ErrNotFound
	}
	v, err := scanVehicle(r.db.QueryRow(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles WHERE id=$1
	`, vehicleID))
	if err != nil {
		return nil, err
	}
	if err := r.loadFiles(ctx, map[string]*domain.Vehicle{v.ID: v}); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VehicleRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Vehicle, error) {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, xerrors.ErrNotFound
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles WHERE user_id=$1 ORDER BY created_at DESC
	`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Vehicle
	byID := make(map[string]*domain.Vehicle)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		byID[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadFiles(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the vehicle row and replaces its file refs.
func (r *VehicleRepository) Update(ctx context.Context, v *domain.Vehicle, fileIDs []string) error {
	vehicleID, err := strconv.ParseInt(v.ID, 10, 64)
	if err != nil {
		return xerrors.ErrNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE vehicles SET plate_number=$1, model=$2, seat_count=$3, trip_type=$4, color=$5,
			window_type=$6, sunroof=$7, four_by_four=$8, additional_features=$9, updated_at=NOW()
		WHERE id=$10
	`, v.PlateNumber, v.Model, v.SeatCount, v.TripType, v.Color,
		v.WindowType, v.Sunroof, v.FourByFour, v.AdditionalFeatures, vehicleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM vehicle_files WHERE vehicle_id=$1`, vehicleID); err != nil {
		return err
	}
	if err := insertFiles(ctx, tx, vehicleID, v, fileIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes the vehicle and returns the stored file paths so the
// caller can clean up the files on disk.
func (r *VehicleRepository) Delete(ctx context.Context, id string) ([]string, error) {
	vehicleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, xerrors.ErrNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT path FROM vehicle_files WHERE vehicle_id=$1`, vehicleID)
	if err != nil {
		return nil, err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, err
		}
		paths = append(paths, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, vehicleID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, xerrors.ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return paths, nil
}

// ListPublic returns all vehicles newest first, joined with the safe driver
// fields only.
func (r *VehicleRepository) ListPublic(ctx context.Context, limit, offset int) ([]*domain.PublicVehicle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT v.id, v.user_id, v.plate_number, v.model, v.seat_count, v.trip_type, v.color,
			v.window_type, v.sunroof, v.four_by_four, v.additional_features, v.created_at, v.updated_at,
			COALESCE(p.first_name, ''), COALESCE(p.level, ''),
			COALESCE(p.languages, '{}'), p.profile_picture
		FROM vehicles v
		LEFT JOIN user_profiles p ON p.user_id = v.user_id
		ORDER BY v.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PublicVehicle
	byID := make(map[string]*domain.Vehicle)
	for rows.Next() {
		var pv domain.PublicVehicle
		var vehicleID, userID int64
		err := rows.Scan(
			&vehicleID,
			&userID,
			&pv.PlateNumber,
			&pv.Model,
			&pv.SeatCount,
			&pv.TripType,
			&pv.Color,
			&pv.WindowType,
			&pv.Sunroof,
			&pv.FourByFour,
			&pv.AdditionalFeatures,
			&pv.CreatedAt,
			&pv.UpdatedAt,
			&pv.Driver.FirstName,
			&pv.Driver.Level,
			&pv.Driver.Languages,
			&pv.Driver.ProfilePicture,
		)
		if err != nil {
			return nil, err
		}
		pv.ID = strconv.FormatInt(vehicleID, 10)
		pv.UserID = strconv.FormatInt(userID, 10)
		pv.Driver.UserID = pv.UserID
		pv.Images = []domain.FileRef{}
		pv.Documents = []domain.FileRef{}
		byID[pv.ID] = &pv.Vehicle
		out = append(out, &pv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadFiles(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}
