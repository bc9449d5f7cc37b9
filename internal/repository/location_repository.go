package repository

import (
	"context"
	"database/sql"

	"github.com/sporthub/venue-booking/internal/model"
)

// LocationRepo reads the province/district/ward lookup tables. The data
// is reference-only at runtime; writes happen through cmd/import-locations.
type LocationRepo struct{ DB *sql.DB }

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{DB: db} }

// Provinces returns all provinces ordered by code.
func (r *LocationRepo) Provinces(ctx context.Context) ([]model.Province, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, code, name FROM provinces ORDER BY code ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Province
	for rows.Next() {
		var p model.Province
		if err := rows.Scan(&p.ID, &p.Code, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DistrictsByProvince returns the districts of one province ordered by code.
func (r *LocationRepo) DistrictsByProvince(ctx context.Context, provinceID uint64) ([]model.District, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, code, name, province_id FROM districts WHERE province_id=? ORDER BY code ASC",
		provinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.District
	for rows.Next() {
		var d model.District
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.ProvinceID); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// WardsByDistrict returns the wards of one district ordered by code.
func (r *LocationRepo) WardsByDistrict(ctx context.Context, districtID uint64) ([]model.Ward, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, code, name, district_id FROM wards WHERE district_id=? ORDER BY code ASC",
		districtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Ward
	for rows.Next() {
		var w model.Ward
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.DistrictID); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ProvinceByID fetches one province.
func (r *LocationRepo) ProvinceByID(ctx context.Context, id uint64) (model.Province, error) {
	var p model.Province
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, code, name FROM provinces WHERE id=? LIMIT 1", id).
		Scan(&p.ID, &p.Code, &p.Name)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// DistrictByID fetches one district.
func (r *LocationRepo) DistrictByID(ctx context.Context, id uint64) (model.District, error) {
	var d model.District
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, code, name, province_id FROM districts WHERE id=? LIMIT 1", id).
		Scan(&d.ID, &d.Code, &d.Name, &d.ProvinceID)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	return d, err
}

// WardByID fetches one ward.
func (r *LocationRepo) WardByID(ctx context.Context, id uint64) (model.Ward, error) {
	var w model.Ward
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, code, name, district_id FROM wards WHERE id=? LIMIT 1", id).
		Scan(&w.ID, &w.Code, &w.Name, &w.DistrictID)
	if err == sql.ErrNoRows {
		return w, ErrNotFound
	}
	return w, err
}

// ReplaceAll clears and reloads the three lookup tables inside one
// transaction. Used by the import CLI only.
func (r *LocationRepo) ReplaceAll(ctx context.Context, provinces []model.Province, districts []model.District, wards []model.Ward) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"wards", "districts", "provinces"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	for _, p := range provinces {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO provinces (id, code, name) VALUES (?,?,?)", p.ID, p.Code, p.Name); err != nil {
			return err
		}
	}
	for _, d := range districts {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO districts (id, code, name, province_id) VALUES (?,?,?,?)",
			d.ID, d.Code, d.Name, d.ProvinceID); err != nil {
			return err
		}
	}
	for _, w := range wards {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO wards (id, code, name, district_id) VALUES (?,?,?,?)",
			w.ID, w.Code, w.Name, w.DistrictID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
