package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bankassist/internal/onboarding/models"
	"bankassist/pkg/platform/sentinel"
)

// PostgresStore is the production application repository. Schema lives in
// schema.sql next to this file.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const applicationColumns = `
	id, application_no, user_id,
	first_name, last_name, father_name, dob, gender,
	address_line, city, district, region, postal_code, country,
	national_id, tax_id,
	front_image_url, back_image_url, tax_image_url, live_photo_image_url,
	kyc_verified, status, created_at`

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (*models.PendingApplication, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM pending_applications
		WHERE national_id = $1`, nationalID)

	var app models.PendingApplication
	err := row.Scan(
		&app.ID, &app.ApplicationNo, &app.UserID,
		&app.FirstName, &app.LastName, &app.FatherName, &app.DOB, &app.Gender,
		&app.AddressLine, &app.City, &app.District, &app.Region, &app.PostalCode, &app.Country,
		&app.NationalID, &app.TaxID,
		&app.FrontImageURL, &app.BackImageURL, &app.TaxImageURL, &app.LivePhotoImageURL,
		&app.KYCVerified, &app.Status, &app.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find application by national id: %w", err)
	}
	return &app, nil
}

func (s *PostgresStore) Create(ctx context.Context, app *models.PendingApplication) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		app.ID, app.ApplicationNo, app.UserID,
		app.FirstName, app.LastName, app.FatherName, app.DOB, app.Gender,
		app.AddressLine, app.City, app.District, app.Region, app.PostalCode, app.Country,
		app.NationalID, app.TaxID,
		app.FrontImageURL, app.BackImageURL, app.TaxImageURL, app.LivePhotoImageURL,
		app.KYCVerified, app.Status, app.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}
