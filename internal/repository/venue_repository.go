package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sporthub/venue-booking/internal/model"
)

const venueColumns = "id,owner_id,name,description,address,lat,lng,image,is_active,is_under_maintenance,province_id,district_id,ward_id,opening_time,closing_time,created_at,updated_at"

// VenueRepo performs all queries against the `venues` table.
type VenueRepo struct{ DB *sql.DB }

func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{DB: db} }

// VenueFilter narrows and orders venue listings. Nil pointer fields mean
// "no filter on this column".
type VenueFilter struct {
	Search             string
	IsActive           *bool
	IsUnderMaintenance *bool
	ProvinceID         uint64
	DistrictID         uint64
	WardID             uint64
	OwnerID            uint64
	SortBy             string // name | created_at | updated_at
	SortOrder          string // asc | desc
	Page               int
	Limit              int
}

func scanVenue(scan func(dest ...any) error) (model.Venue, error) {
	var v model.Venue
	var desc, addr, image, open, clos sql.NullString
	var lat, lng sql.NullFloat64
	var prov, dist, ward sql.NullInt64
	err := scan(&v.ID, &v.OwnerID, &v.Name, &desc, &addr, &lat, &lng, &image,
		&v.IsActive, &v.IsUnderMaintenance, &prov, &dist, &ward, &open, &clos,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return v, err
	}
	v.Description, v.Address, v.Image = desc.String, addr.String, image.String
	v.OpeningTime, v.ClosingTime = open.String, clos.String
	if lat.Valid {
		v.Lat = &lat.Float64
	}
	if lng.Valid {
		v.Lng = &lng.Float64
	}
	if prov.Valid {
		u := uint64(prov.Int64)
		v.ProvinceID = &u
	}
	if dist.Valid {
		u := uint64(dist.Int64)
		v.DistrictID = &u
	}
	if ward.Valid {
		u := uint64(ward.Int64)
		v.WardID = &u
	}
	return v, nil
}

// List returns a filtered page of venues and the matching total.
func (r *VenueRepo) List(ctx context.Context, f VenueFilter) ([]model.Venue, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Search != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
	}
	if f.IsActive != nil {
		where = append(where, "is_active=?")
		args = append(args, *f.IsActive)
	}
	if f.IsUnderMaintenance != nil {
		where = append(where, "is_under_maintenance=?")
		args = append(args, *f.IsUnderMaintenance)
	}
	if f.ProvinceID != 0 {
		where = append(where, "province_id=?")
		args = append(args, f.ProvinceID)
	}
	if f.DistrictID != 0 {
		where = append(where, "district_id=?")
		args = append(args, f.DistrictID)
	}
	if f.WardID != 0 {
		where = append(where, "ward_id=?")
		args = append(args, f.WardID)
	}
	if f.OwnerID != 0 {
		where = append(where, "owner_id=?")
		args = append(args, f.OwnerID)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM venues WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortBy := "created_at"
	switch f.SortBy {
	case "name", "updated_at":
		sortBy = f.SortBy
	}
	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	q := fmt.Sprintf("SELECT %s FROM venues WHERE %s ORDER BY %s %s LIMIT ? OFFSET ?",
		venueColumns, cond, sortBy, order)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// GetByID fetches a single venue.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (model.Venue, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+venueColumns+" FROM venues WHERE id=? LIMIT 1", id)
	v, err := scanVenue(row.Scan)
	if err == sql.ErrNoRows {
		return v, ErrNotFound
	}
	return v, err
}

// Create inserts a venue and reloads the stored row into v.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO venues
		 (owner_id, name, description, address, lat, lng, image, is_active, is_under_maintenance,
		  province_id, district_id, ward_id, opening_time, closing_time)
		 VALUES (?,?,?,?,?,?,?,1,0,?,?,?,?,?)`,
		v.OwnerID, v.Name, nullStr(v.Description), nullStr(v.Address), v.Lat, v.Lng,
		nullStr(v.Image), v.ProvinceID, v.DistrictID, v.WardID,
		nullStr(v.OpeningTime), nullStr(v.ClosingTime))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*v = created
	return nil
}

// Update rewrites the venue's mutable columns from v.
func (r *VenueRepo) Update(ctx context.Context, v *model.Venue) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE venues SET name=?, description=?, address=?, lat=?, lng=?, image=?,
		 is_active=?, is_under_maintenance=?, province_id=?, district_id=?, ward_id=?,
		 opening_time=?, closing_time=?, updated_at=NOW() WHERE id=?`,
		v.Name, nullStr(v.Description), nullStr(v.Address), v.Lat, v.Lng, nullStr(v.Image),
		v.IsActive, v.IsUnderMaintenance, v.ProvinceID, v.DistrictID, v.WardID,
		nullStr(v.OpeningTime), nullStr(v.ClosingTime), v.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports zero affected rows for a no-change update too, so
		// confirm existence before reporting not found.
		if _, err := r.GetByID(ctx, v.ID); err != nil {
			return err
		}
	}
	updated, err := r.GetByID(ctx, v.ID)
	if err != nil {
		return err
	}
	*v = updated
	return nil
}

// Delete removes a venue row.
func (r *VenueRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM venues WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
