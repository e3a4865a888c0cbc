package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Nour-MZ/Nomada/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Repository handles all database operations
type Repository struct {
	db *gorm.DB
}

// NewRepository wraps an open gorm handle and migrates the schema.
func NewRepository(db *gorm.DB) (*Repository, error) {
	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

// Open opens the database for driver/dsn and returns a migrated repository.
func Open(driver, dsn string) (*Repository, error) {
	db, err := OpenGorm(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewRepository(db)
}

func (r *Repository) migrate() error {
	if err := r.db.AutoMigrate(
		&bookingRow{},
		&flightSearchRow{},
		&flightChoiceRow{},
		&hotelSearchRow{},
		&hotelChoiceRow{},
		&userRow{},
		&paymentRow{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.Close()
}

// --- Booking Operations ---

// SaveBooking stores a new active booking and returns its id.
func (r *Repository) SaveBooking(ctx context.Context, userEmail string, bookingType models.BookingType, reference, title string, detail any) (uint, error) {
	if strings.TrimSpace(reference) == "" {
		return 0, fmt.Errorf("booking reference is required")
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return 0, fmt.Errorf("failed to encode booking detail: %w", err)
	}

	row := bookingRow{
		UserEmail:  strings.ToLower(strings.TrimSpace(userEmail)),
		Type:       string(bookingType),
		Reference:  reference,
		Title:      title,
		DetailJSON: string(detailJSON),
		Status:     string(models.BookingStatusActive),
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to save booking: %w", err)
	}
	return row.ID, nil
}

// ListBookings returns a user's bookings, newest first.
func (r *Repository) ListBookings(ctx context.Context, userEmail string) ([]models.BookingRecord, error) {
	var rows []bookingRow
	err := r.db.WithContext(ctx).
		Where("user_email = ?", strings.ToLower(strings.TrimSpace(userEmail))).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	out := make([]models.BookingRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord())
	}
	return out, nil
}

// GetBooking returns the booking with the given reference.
func (r *Repository) GetBooking(ctx context.Context, reference string) (*models.BookingRecord, error) {
	var row bookingRow
	err := r.db.WithContext(ctx).Where("reference = ?", reference).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	rec := row.toRecord()
	return &rec, nil
}

// CancelBooking marks a booking cancelled. An empty email matches the
// reference regardless of owner.
func (r *Repository) CancelBooking(ctx context.Context, userEmail, reference string) error {
	query := r.db.WithContext(ctx).Model(&bookingRow{}).Where("reference = ?", reference)
	if email := strings.ToLower(strings.TrimSpace(userEmail)); email != "" {
		query = query.Where("user_email = ?", email)
	}
	res := query.Update("status", string(models.BookingStatusCancelled))
	if res.Error != nil {
		return fmt.Errorf("failed to cancel booking: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Search Cache Operations ---

// SaveSearch replaces the session's cached flight offers with offers and
// returns the new search id.
func (r *Repository) SaveSearch(ctx context.Context, sessionID string, offers []models.FlightOffer, meta models.SearchMeta) (string, error) {
	searchID := uuid.NewString()
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode search meta: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&flightChoiceRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear flight choices: %w", err)
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&flightSearchRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear flight searches: %w", err)
		}

		search := flightSearchRow{
			SearchID:  searchID,
			SessionID: sessionID,
			MetaJSON:  string(metaJSON),
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&search).Error; err != nil {
			return fmt.Errorf("failed to save flight search: %w", err)
		}

		if len(offers) == 0 {
			return nil
		}
		rows := make([]flightChoiceRow, 0, len(offers))
		for i, offer := range offers {
			paxJSON, err := json.Marshal(offer.PassengerIDs)
			if err != nil {
				return fmt.Errorf("failed to encode passenger ids: %w", err)
			}
			raw := offer.Raw
			if len(raw) == 0 {
				if raw, err = json.Marshal(offer); err != nil {
					return fmt.Errorf("failed to encode offer: %w", err)
				}
			}
			rows = append(rows, flightChoiceRow{
				SearchID:         searchID,
				SessionID:        sessionID,
				Position:         i + 1,
				OfferID:          offer.ID,
				PassengerIDsJSON: string(paxJSON),
				TotalAmount:      offer.TotalAmount,
				Currency:         offer.TotalCurrency,
				RawJSON:          string(raw),
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save flight choices: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return searchID, nil
}

// LoadLatest returns the offers of the session's most recent search in
// their original order.
func (r *Repository) LoadLatest(ctx context.Context, sessionID string) ([]models.OfferRecord, error) {
	var search flightSearchRow
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Take(&search).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest search: %w", err)
	}

	var rows []flightChoiceRow
	if err := r.db.WithContext(ctx).
		Where("search_id = ?", search.SearchID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load flight choices: %w", err)
	}

	out := make([]models.OfferRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord())
	}
	return out, nil
}

// SaveHotelSearch replaces the session's cached hotel results.
func (r *Repository) SaveHotelSearch(ctx context.Context, sessionID string, hotels []models.Hotel, req models.HotelSearchRequest) (string, error) {
	searchID := uuid.NewString()
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode hotel search: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&hotelChoiceRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear hotels: %w", err)
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&hotelSearchRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear hotel searches: %w", err)
		}
		if err := tx.Create(&hotelSearchRow{
			SearchID:    searchID,
			SessionID:   sessionID,
			RequestJSON: string(reqJSON),
			CreatedAt:   time.Now().UTC(),
		}).Error; err != nil {
			return fmt.Errorf("failed to save hotel search: %w", err)
		}

		if len(hotels) == 0 {
			return nil
		}
		rows := make([]hotelChoiceRow, 0, len(hotels))
		for i, h := range hotels {
			hotelJSON, err := json.Marshal(h)
			if err != nil {
				return fmt.Errorf("failed to encode hotel: %w", err)
			}
			rows = append(rows, hotelChoiceRow{
				SearchID:  searchID,
				SessionID: sessionID,
				Position:  i + 1,
				HotelCode: h.Code,
				Name:      h.Name,
				MinRate:   h.Rate(),
				Currency:  h.Currency,
				HotelJSON: string(hotelJSON),
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save hotels: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return searchID, nil
}

// LoadLatestHotels returns the session's latest hotel results and the
// request that produced them.
func (r *Repository) LoadLatestHotels(ctx context.Context, sessionID string) ([]models.Hotel, *models.HotelSearchRequest, error) {
	var search hotelSearchRow
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Take(&search).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to load latest hotel search: %w", err)
	}

	var req models.HotelSearchRequest
	if err := json.Unmarshal([]byte(search.RequestJSON), &req); err != nil {
		return nil, nil, fmt.Errorf("failed to decode hotel search: %w", err)
	}

	var rows []hotelChoiceRow
	if err := r.db.WithContext(ctx).
		Where("search_id = ?", search.SearchID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load hotels: %w", err)
	}

	hotels := make([]models.Hotel, 0, len(rows))
	for _, row := range rows {
		var h models.Hotel
		if err := json.Unmarshal([]byte(row.HotelJSON), &h); err != nil {
			return nil, nil, fmt.Errorf("failed to decode hotel: %w", err)
		}
		hotels = append(hotels, h)
	}
	return hotels, &req, nil
}

// --- User Operations ---

// CreateUser registers an account. The email must be unused.
func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var existing int64
	if err := r.db.WithContext(ctx).Model(&userRow{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	row := userRow{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user := row.toRecord()
	return &user, nil
}

// GetUserByEmail looks up an account by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user := row.toRecord()
	return &user, nil
}

// --- Payment Operations ---

// UpsertPayment inserts a payment or updates the row with the same payment id.
func (r *Repository) UpsertPayment(ctx context.Context, rec models.PaymentRecord) error {
	if rec.PaymentID == "" {
		return fmt.Errorf("payment id is required")
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.CustomerEmail = strings.ToLower(strings.TrimSpace(rec.CustomerEmail))

	row := paymentRowFromRecord(rec)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "payment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"offer_id", "order_id", "amount", "currency", "status",
			"customer_email", "card_brand", "card_last4", "metadata_json", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}

// GetPaymentByOrder returns the latest payment recorded for an order.
func (r *Repository) GetPaymentByOrder(ctx context.Context, orderID string) (*models.PaymentRecord, error) {
	var row paymentRow
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	rec := row.toRecord()
	return &rec, nil
}

// UpdatePaymentStatus changes the status of a stored payment.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, paymentID, status string) error {
	res := r.db.WithContext(ctx).Model(&paymentRow{}).
		Where("payment_id = ?", paymentID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("failed to update payment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPayments returns a customer's payments, newest first.
func (r *Repository) ListPayments(ctx context.Context, email string) ([]models.PaymentRecord, error) {
	var rows []paymentRow
	err := r.db.WithContext(ctx).
		Where("customer_email = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	out := make([]models.PaymentRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord())
	}
	return out, nil
}
