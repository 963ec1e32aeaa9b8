package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"norwegianopen/internal/database"
	"norwegianopen/internal/model"
	"norwegianopen/internal/pricing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// hotelLockKey serialises the capacity check and insert of hotel bookings.
const hotelLockKey = 20251001

const uniqueViolation = "23505"

const registrationColumns = `id, user_id, full_name, email, wsdc_id, country, region, level, role, competing,
	pass_option, added_intensive, promo_code, has_partner, partner_name, partner_email,
	base_price, amount_due, price_tier, payment_deadline, status, approval_email_sent,
	accepted_rules, accepted_toc, created_at, updated_at`

const hotelColumns = `id, full_name, email, room_option, check_in, check_out, nights, amount_due, roommates,
	special_requests, payment_deadline, status, confirmation_email_sent, created_at, updated_at`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(db *database.Database) *PostgresRepository {
	return &PostgresRepository{pool: db.Pool}
}

func (r *PostgresRepository) HealthCheck(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) CreateRegistration(ctx context.Context, params CreateRegistrationParams) (model.Registration, error) {
	now := time.Now().UTC()
	registration := model.Registration{
		ID:              uuid.New(),
		UserID:          params.UserID,
		FullName:        params.FullName,
		Email:           params.Email,
		WSDCID:          params.WSDCID,
		Country:         params.Country,
		Region:          params.Region,
		Level:           params.Level,
		Role:            params.Role,
		Competing:       params.Competing,
		PassOption:      params.PassOption,
		AddedIntensive:  params.AddedIntensive,
		PromoCode:       params.PromoCode,
		HasPartner:      params.HasPartner,
		PartnerName:     params.PartnerName,
		PartnerEmail:    params.PartnerEmail,
		BasePrice:       params.BasePrice,
		AmountDue:       params.AmountDue,
		PriceTier:       params.PriceTier,
		PaymentDeadline: params.PaymentDeadline,
		Status:          params.Status,
		AcceptedRules:   params.AcceptedRules,
		AcceptedToC:     params.AcceptedToC,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := r.pool.Exec(ctx, `INSERT INTO registrations (`+registrationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		registration.ID, registration.UserID, registration.FullName, registration.Email, registration.WSDCID,
		registration.Country, string(registration.Region), string(registration.Level), string(registration.Role),
		registration.Competing, string(registration.PassOption), registration.AddedIntensive, registration.PromoCode,
		registration.HasPartner, registration.PartnerName, registration.PartnerEmail, registration.BasePrice,
		registration.AmountDue, string(registration.PriceTier), registration.PaymentDeadline, string(registration.Status),
		registration.ApprovalEmailSent, registration.AcceptedRules, registration.AcceptedToC,
		registration.CreatedAt, registration.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == "registrations_user_id_key" {
				return registration, ErrDuplicateUserID
			}
			return registration, ErrDuplicateEmail
		}
		return registration, fmt.Errorf("database: failed to insert registration (email=%s): %w", registration.Email, err)
	}
	return registration, nil
}

func (r *PostgresRepository) GetRegistration(ctx context.Context, params GetRegistrationParams) (model.Registration, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + registrationColumns + ` FROM registrations WHERE 1=1`)
	var args []any
	argNum := 1

	if params.ID.IsSet {
		query.WriteString(fmt.Sprintf(" AND id = $%d", argNum))
		args = append(args, params.ID.Val)
		argNum++
	}
	if params.UserID.IsSet {
		query.WriteString(fmt.Sprintf(" AND user_id = $%d", argNum))
		args = append(args, params.UserID.Val)
		argNum++
	}
	if len(args) == 0 {
		return model.Registration{}, errors.New("database: at least one parameter (ID or UserID) must be provided")
	}

	registration, err := scanRegistration(r.pool.QueryRow(ctx, query.String(), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration, ErrRegistrationNotFound
		}
		return registration, fmt.Errorf("database: failed to scan registration: %w", err)
	}
	return registration, nil
}

func (r *PostgresRepository) ListRegistrations(ctx context.Context, params ListRegistrationsParams) ([]model.Registration, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + registrationColumns + ` FROM registrations WHERE 1=1`)
	var args []any
	argNum := 1

	addAny := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		query.WriteString(fmt.Sprintf(" AND %s = ANY($%d)", column, argNum))
		args = append(args, values)
		argNum++
	}
	addAny("status", toStrings(params.Filter.Statuses))
	addAny("level", toStrings(params.Filter.Levels))
	addAny("pass_option", toStrings(params.Filter.PassOptions))
	addAny("email", params.Filter.Emails)

	if params.Order == OrderByASC {
		query.WriteString(" ORDER BY created_at ASC")
	} else {
		query.WriteString(" ORDER BY created_at DESC")
	}
	if params.Limit > 0 {
		query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1))
		args = append(args, params.Limit, params.Offset)
	}

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list registrations: %w", err)
	}
	return collectRegistrations(rows)
}

func (r *PostgresRepository) SearchRegistrations(ctx context.Context, search string, limit int) ([]model.Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+registrationColumns+` FROM registrations
		WHERE full_name ILIKE '%' || $1 || '%' ESCAPE '\' OR user_id = UPPER($2)
		ORDER BY full_name ASC LIMIT $3`, escapeLike(search), search, limit)
	if err != nil {
		return nil, fmt.Errorf("database: failed to search registrations: %w", err)
	}
	return collectRegistrations(rows)
}

func (r *PostgresRepository) UserIDExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("database: failed to check user id: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ActiveEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE LOWER(email) = LOWER($1) AND status <> 'cancelled')`, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("database: failed to check email: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) UpdateRegistration(ctx context.Context, id uuid.UUID, params UpdateRegistrationParams) (model.Registration, error) {
	var query strings.Builder
	var args []any
	argNum := 1
	query.WriteString("UPDATE registrations SET ")

	set := func(column string, value any) {
		query.WriteString(fmt.Sprintf("%s = $%d, ", column, argNum))
		args = append(args, value)
		argNum++
	}
	if params.FullName.IsSet {
		set("full_name", params.FullName.Val)
	}
	if params.Email.IsSet {
		set("email", params.Email.Val)
	}
	if params.WSDCID.IsSet {
		set("wsdc_id", params.WSDCID.Val)
	}
	if params.Country.IsSet {
		set("country", params.Country.Val)
	}
	if params.Region.IsSet {
		set("region", string(params.Region.Val))
	}
	if params.Level.IsSet {
		set("level", string(params.Level.Val))
	}
	if params.Role.IsSet {
		set("role", string(params.Role.Val))
	}
	if params.Competing.IsSet {
		set("competing", params.Competing.Val)
	}
	if params.PassOption.IsSet {
		set("pass_option", string(params.PassOption.Val))
	}
	if params.AddedIntensive.IsSet {
		set("added_intensive", params.AddedIntensive.Val)
	}
	if params.PromoCode.IsSet {
		set("promo_code", params.PromoCode.Val)
	}
	if params.HasPartner.IsSet {
		set("has_partner", params.HasPartner.Val)
	}
	if params.PartnerName.IsSet {
		set("partner_name", params.PartnerName.Val)
	}
	if params.PartnerEmail.IsSet {
		set("partner_email", params.PartnerEmail.Val)
	}
	if params.BasePrice.IsSet {
		set("base_price", params.BasePrice.Val)
	}
	if params.AmountDue.IsSet {
		set("amount_due", params.AmountDue.Val)
	}
	if params.PaymentDeadline.IsSet {
		set("payment_deadline", params.PaymentDeadline.Val)
	}
	if params.Status.IsSet {
		set("status", string(params.Status.Val))
	}
	if params.ApprovalEmailSent.IsSet {
		set("approval_email_sent", params.ApprovalEmailSent.Val)
	}
	set("updated_at", time.Now().UTC())

	q := strings.TrimSuffix(query.String(), ", ")
	q += fmt.Sprintf(" WHERE id = $%d RETURNING %s", argNum, registrationColumns)
	args = append(args, id)

	registration, err := scanRegistration(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration, ErrRegistrationNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return registration, ErrDuplicateEmail
		}
		return registration, fmt.Errorf("database: failed to update registration (id=%s): %w", id, err)
	}
	return registration, nil
}

func (r *PostgresRepository) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("database: failed to delete registration (id=%s): %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// CreateHotelBooking counts the active rooms and inserts the booking in one
// transaction holding an advisory lock, so concurrent bookings cannot pass a cap.
func (r *PostgresRepository) CreateHotelBooking(ctx context.Context, params CreateHotelBookingParams, limits HotelLimits) (model.HotelBooking, error) {
	now := time.Now().UTC()
	booking := model.HotelBooking{
		ID:              uuid.New(),
		FullName:        params.FullName,
		Email:           params.Email,
		Option:          params.Option,
		CheckIn:         params.CheckIn,
		CheckOut:        params.CheckOut,
		Nights:          params.Nights,
		AmountDue:       params.AmountDue,
		Roommates:       params.Roommates,
		SpecialRequests: params.SpecialRequests,
		PaymentDeadline: params.PaymentDeadline,
		Status:          model.HotelStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return booking, fmt.Errorf("database: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, hotelLockKey); err != nil {
		return booking, fmt.Errorf("database: failed to lock hotel bookings: %w", err)
	}

	occupancy, err := countOccupancy(ctx, tx)
	if err != nil {
		return booking, err
	}
	if err := CheckHotelLimits(occupancy, params.Option, limits); err != nil {
		return booking, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO hotel_bookings (`+hotelColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		booking.ID, booking.FullName, booking.Email, string(booking.Option), booking.CheckIn, booking.CheckOut,
		booking.Nights, booking.AmountDue, roommatesOrEmpty(booking.Roommates), booking.SpecialRequests,
		booking.PaymentDeadline, string(booking.Status), booking.ConfirmationEmailSent, booking.CreatedAt, booking.UpdatedAt); err != nil {
		return booking, fmt.Errorf("database: failed to insert hotel booking (email=%s): %w", booking.Email, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return booking, fmt.Errorf("database: failed to commit hotel booking: %w", err)
	}
	return booking, nil
}

func (r *PostgresRepository) GetHotelBooking(ctx context.Context, id uuid.UUID) (model.HotelBooking, error) {
	booking, err := scanHotelBooking(r.pool.QueryRow(ctx, `SELECT `+hotelColumns+` FROM hotel_bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking, ErrHotelBookingNotFound
		}
		return booking, fmt.Errorf("database: failed to scan hotel booking: %w", err)
	}
	return booking, nil
}

// GetHotelBookingByEmail returns the most recent active booking made with email.
func (r *PostgresRepository) GetHotelBookingByEmail(ctx context.Context, email string) (model.HotelBooking, error) {
	booking, err := scanHotelBooking(r.pool.QueryRow(ctx, `SELECT `+hotelColumns+` FROM hotel_bookings
		WHERE LOWER(email) = LOWER($1) AND status <> 'cancelled' ORDER BY created_at DESC LIMIT 1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking, ErrHotelBookingNotFound
		}
		return booking, fmt.Errorf("database: failed to scan hotel booking: %w", err)
	}
	return booking, nil
}

func (r *PostgresRepository) ListHotelBookings(ctx context.Context, params ListHotelBookingsParams) ([]model.HotelBooking, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + hotelColumns + ` FROM hotel_bookings`)
	var args []any
	if len(params.Statuses) > 0 {
		query.WriteString(" WHERE status = ANY($1)")
		args = append(args, toStrings(params.Statuses))
	}
	if params.Order == OrderByASC {
		query.WriteString(" ORDER BY created_at ASC")
	} else {
		query.WriteString(" ORDER BY created_at DESC")
	}

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list hotel bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.HotelBooking
	for rows.Next() {
		booking, err := scanHotelBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("database: failed to scan hotel booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate hotel bookings: %w", err)
	}
	return bookings, nil
}

func (r *PostgresRepository) UpdateHotelBooking(ctx context.Context, id uuid.UUID, params UpdateHotelBookingParams) (model.HotelBooking, error) {
	var query strings.Builder
	var args []any
	argNum := 1
	query.WriteString("UPDATE hotel_bookings SET ")

	if params.Status.IsSet {
		query.WriteString(fmt.Sprintf("status = $%d, ", argNum))
		args = append(args, string(params.Status.Val))
		argNum++
	}
	if params.ConfirmationEmailSent.IsSet {
		query.WriteString(fmt.Sprintf("confirmation_email_sent = $%d, ", argNum))
		args = append(args, params.ConfirmationEmailSent.Val)
		argNum++
	}
	if params.SpecialRequests.IsSet {
		query.WriteString(fmt.Sprintf("special_requests = $%d, ", argNum))
		args = append(args, params.SpecialRequests.Val)
		argNum++
	}
	query.WriteString(fmt.Sprintf("updated_at = $%d WHERE id = $%d RETURNING %s", argNum, argNum+1, hotelColumns))
	args = append(args, time.Now().UTC(), id)

	booking, err := scanHotelBooking(r.pool.QueryRow(ctx, query.String(), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking, ErrHotelBookingNotFound
		}
		return booking, fmt.Errorf("database: failed to update hotel booking (id=%s): %w", id, err)
	}
	return booking, nil
}

func (r *PostgresRepository) CountHotelOccupancy(ctx context.Context) (model.HotelOccupancy, error) {
	return countOccupancy(ctx, r.pool)
}

func (r *PostgresRepository) AddMailListEntry(ctx context.Context, email string) (model.MailListEntry, bool, error) {
	entry := model.MailListEntry{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: time.Now().UTC(),
	}

	tag, err := r.pool.Exec(ctx, `INSERT INTO mail_list (id, email, created_at) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING`,
		entry.ID, entry.Email, entry.CreatedAt)
	if err != nil {
		return entry, false, fmt.Errorf("database: failed to insert mail list entry (email=%s): %w", entry.Email, err)
	}
	return entry, tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) ListMailList(ctx context.Context) ([]model.MailListEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, created_at FROM mail_list ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list mail list: %w", err)
	}
	defer rows.Close()

	var entries []model.MailListEntry
	for rows.Next() {
		var entry model.MailListEntry
		if err := rows.Scan(&entry.ID, &entry.Email, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan mail list entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate mail list: %w", err)
	}
	return entries, nil
}

func (r *PostgresRepository) CreateAdminUser(ctx context.Context, params CreateAdminUserParams) (model.AdminUser, error) {
	user := model.AdminUser{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        strings.ToLower(params.Email),
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := r.pool.Exec(ctx, `INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt); err != nil {
		return user, fmt.Errorf("database: failed to insert user (email=%s): %w", user.Email, err)
	}
	return user, nil
}

func (r *PostgresRepository) GetAdminUserByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	var user model.AdminUser
	err := r.pool.QueryRow(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE email = LOWER($1)`, email).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, ErrAdminNotFound
		}
		return user, fmt.Errorf("database: failed to scan user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GrantAdmin(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `INSERT INTO admin_users_lookup (user_id, created_at) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("database: failed to grant admin (user_id=%s): %w", userID, err)
	}
	return nil
}

func (r *PostgresRepository) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admin_users_lookup WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("database: failed to check admin (user_id=%s): %w", userID, err)
	}
	return exists, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func countOccupancy(ctx context.Context, q querier) (model.HotelOccupancy, error) {
	var occupancy model.HotelOccupancy
	err := q.QueryRow(ctx, `SELECT
			COUNT(*) FILTER (WHERE room_option = ANY($1)),
			COUNT(*) FILTER (WHERE room_option = ANY($2))
		FROM hotel_bookings WHERE status <> 'cancelled'`,
		toStrings(pricing.RoomOptions), toStrings(pricing.LargeRoomOptions)).
		Scan(&occupancy.Rooms, &occupancy.LargeRooms)
	if err != nil {
		return occupancy, fmt.Errorf("database: failed to count hotel rooms: %w", err)
	}
	return occupancy, nil
}

func scanRegistration(row pgx.Row) (model.Registration, error) {
	var registration model.Registration
	var region, level, role, passOption, tier string
	err := row.Scan(
		&registration.ID, &registration.UserID, &registration.FullName, &registration.Email, &registration.WSDCID,
		&registration.Country, &region, &level, &role, &registration.Competing, &passOption,
		&registration.AddedIntensive, &registration.PromoCode, &registration.HasPartner, &registration.PartnerName,
		&registration.PartnerEmail, &registration.BasePrice, &registration.AmountDue, &tier,
		&registration.PaymentDeadline, &registration.Status, &registration.ApprovalEmailSent,
		&registration.AcceptedRules, &registration.AcceptedToC, &registration.CreatedAt, &registration.UpdatedAt)
	registration.Region = pricing.Region(region)
	registration.Level = pricing.Level(level)
	registration.Role = model.Role(role)
	registration.PassOption = pricing.PassOption(passOption)
	registration.PriceTier = pricing.Tier(tier)
	return registration, err
}

func collectRegistrations(rows pgx.Rows) ([]model.Registration, error) {
	defer rows.Close()

	var registrations []model.Registration
	for rows.Next() {
		registration, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("database: failed to scan registration: %w", err)
		}
		registrations = append(registrations, registration)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate registrations: %w", err)
	}
	return registrations, nil
}

func scanHotelBooking(row pgx.Row) (model.HotelBooking, error) {
	var booking model.HotelBooking
	var option string
	err := row.Scan(
		&booking.ID, &booking.FullName, &booking.Email, &option, &booking.CheckIn, &booking.CheckOut,
		&booking.Nights, &booking.AmountDue, &booking.Roommates, &booking.SpecialRequests, &booking.PaymentDeadline,
		&booking.Status, &booking.ConfirmationEmailSent, &booking.CreatedAt, &booking.UpdatedAt)
	booking.Option = pricing.HotelOption(option)
	return booking, err
}

// roommatesOrEmpty keeps the NOT NULL roommates array column satisfied.
func roommatesOrEmpty(roommates []string) []string {
	if roommates == nil {
		return []string{}
	}
	return roommates
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using the
// backslash escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

var _ Repository = (*PostgresRepository)(nil)
