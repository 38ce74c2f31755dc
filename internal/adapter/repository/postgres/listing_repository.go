package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/errors"
)

const listingColumns = `id, seller_id, title, description, category, material, condition, quantity, unit,
	price, status, collection_available, delivery_available, delivery_charge, courier_delivery_cost,
	weight_kg, length_cm, width_cm, height_cm, location, postcode, images, carbon_saved_kg,
	created_at, updated_at, sold_at`

type listingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) repository.ListingRepository {
	return &listingRepository{db: db}
}

func scanListing(row scanner) (*entity.Listing, error) {
	var (
		l      entity.Listing
		images []byte
		soldAt sql.NullTime
	)
	err := row.Scan(&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Category, &l.Material, &l.Condition,
		&l.Quantity, &l.Unit, &l.Price, &l.Status, &l.CollectionAvailable, &l.DeliveryAvailable,
		&l.DeliveryCharge, &l.CourierDeliveryCost, &l.WeightKg, &l.LengthCm, &l.WidthCm, &l.HeightCm,
		&l.Location, &l.Postcode, &images, &l.CarbonSavedKg, &l.CreatedAt, &l.UpdatedAt, &soldAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(images, &l.Images); err != nil {
		return nil, err
	}
	l.SoldAt = timePtr(soldAt)
	return &l, nil
}

func marshalImages(images []string) ([]byte, error) {
	if images == nil {
		images = []string{}
	}
	return json.Marshal(images)
}

func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	images, err := marshalImages(listing.Images)
	if err != nil {
		return errors.Internal("Failed to encode listing images", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO listings (`+listingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		listing.ID, listing.SellerID, listing.Title, listing.Description, listing.Category, listing.Material,
		listing.Condition, listing.Quantity, listing.Unit, listing.Price, listing.Status,
		listing.CollectionAvailable, listing.DeliveryAvailable, listing.DeliveryCharge, listing.CourierDeliveryCost,
		listing.WeightKg, listing.LengthCm, listing.WidthCm, listing.HeightCm, listing.Location, listing.Postcode,
		images, listing.CarbonSavedKg, listing.CreatedAt, listing.UpdatedAt, nullTime(listing.SoldAt))
	if err != nil {
		return errors.Internal("Failed to create listing", err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	listing, err := scanListing(r.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("Listing", err)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get listing", err)
	}
	return listing, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	images, err := marshalImages(listing.Images)
	if err != nil {
		return errors.Internal("Failed to encode listing images", err)
	}

	res, err := r.db.ExecContext(ctx, `UPDATE listings SET
		title = $2, description = $3, category = $4, material = $5, condition = $6, quantity = $7, unit = $8,
		price = $9, status = $10, collection_available = $11, delivery_available = $12, delivery_charge = $13,
		courier_delivery_cost = $14, weight_kg = $15, length_cm = $16, width_cm = $17, height_cm = $18,
		location = $19, postcode = $20, images = $21, carbon_saved_kg = $22, updated_at = $23, sold_at = $24
		WHERE id = $1`,
		listing.ID, listing.Title, listing.Description, listing.Category, listing.Material, listing.Condition,
		listing.Quantity, listing.Unit, listing.Price, listing.Status, listing.CollectionAvailable,
		listing.DeliveryAvailable, listing.DeliveryCharge, listing.CourierDeliveryCost, listing.WeightKg,
		listing.LengthCm, listing.WidthCm, listing.HeightCm, listing.Location, listing.Postcode, images,
		listing.CarbonSavedKg, listing.UpdatedAt, nullTime(listing.SoldAt))
	if err != nil {
		return errors.Internal("Failed to update listing", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("Listing", nil)
	}
	return nil
}

// buildListingSearch returns the WHERE clause and arguments for filter.
func buildListingSearch(filter entity.ListingFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != "" {
		w.where("status = ?", filter.Status)
	}
	if filter.SellerID != "" {
		w.where("seller_id = ?", filter.SellerID)
	}
	if filter.Category != "" {
		w.where("lower(category) = lower(?)", filter.Category)
	}
	if filter.Material != "" {
		w.where("lower(material) = lower(?)", filter.Material)
	}
	if filter.MinPrice > 0 {
		w.where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		w.where("price <= ?", filter.MaxPrice)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		w.where("(title ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}
	return w
}

func (r *listingRepository) Search(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, int64, error) {
	w := buildListingSearch(filter)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM listings`+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, errors.Internal("Failed to count listings", err)
	}

	query := w.page(`SELECT `+listingColumns+` FROM listings`+w.clause()+` ORDER BY created_at DESC, id`, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, errors.Internal("Failed to search listings", err)
	}
	defer rows.Close()

	listings := []*entity.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, 0, errors.Internal("Failed to read listing", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Internal("Failed to search listings", err)
	}
	return listings, total, nil
}

func (r *listingRepository) UpdateStatusIfActive(ctx context.Context, id, status string) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return markListing(ctx, tx, id, status, time.Now())
	})
}

// markListing moves an active listing to status inside tx.
func markListing(ctx context.Context, tx *sql.Tx, id, status string, now time.Time) error {
	var soldAt sql.NullTime
	if status == entity.ListingStatusSold {
		soldAt = sql.NullTime{Time: now, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `UPDATE listings SET status = $2, updated_at = $3, sold_at = COALESCE($4, sold_at)
		WHERE id = $1 AND status = $5`, id, status, now, soldAt, entity.ListingStatusActive)
	if err != nil {
		return errors.Internal("Failed to update listing status", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return errors.Internal("Failed to check listing", err)
	}
	if !exists {
		return errors.NotFound("Listing", nil)
	}
	return errors.ListingUnavailable()
}

func (r *listingRepository) AddImage(ctx context.Context, id, imageURL string) error {
	add, err := json.Marshal([]string{imageURL})
	if err != nil {
		return errors.Internal("Failed to encode image", err)
	}

	res, err := r.db.ExecContext(ctx, `UPDATE listings SET images = images || $2::jsonb, updated_at = $3 WHERE id = $1`,
		id, add, time.Now())
	if err != nil {
		return errors.Internal("Failed to add listing image", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("Listing", nil)
	}
	return nil
}
