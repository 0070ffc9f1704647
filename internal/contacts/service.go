// Package contacts provides the contact store and race-safe
// find-or-create resolution by address.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaydesk/relaydesk/internal/db"
)

// ErrNotFound is returned when no contact matches the lookup.
var ErrNotFound = errors.New("contact not found")

const contactColumns = `id, first_name, last_name, email, phone, whatsapp_phone, team_id, created_at, updated_at`

type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "contacts")),
	}
}

// GetByID looks up a contact by id.
func (s *Service) GetByID(ctx context.Context, contactID string) (Contact, error) {
	pgID, err := db.ParseUUID(contactID)
	if err != nil {
		return Contact{}, err
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, pgID)
	return scanContact(row)
}

// FindByAddress looks up a contact whose phone or WhatsApp phone equals
// the given address (OR semantics: a match on either field resolves).
func (s *Service) FindByAddress(ctx context.Context, address string) (Contact, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return Contact{}, ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE phone = $1 OR whatsapp_phone = $1`, trimmed)
	return scanContact(row)
}

// Create inserts a contact. A unique violation on phone or WhatsApp
// phone stays detectable through db.IsUniqueViolation so callers can
// treat it as a lost race.
func (s *Service) Create(ctx context.Context, params NewContact) (Contact, error) {
	pgTeamID, err := db.ParseUUID(params.TeamID)
	if err != nil {
		return Contact{}, fmt.Errorf("invalid team id: %w", err)
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (first_name, last_name, email, phone, whatsapp_phone, team_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+contactColumns,
		db.TextOrNull(params.FirstName),
		db.TextOrNull(params.LastName),
		db.TextOrNull(params.Email),
		db.TextOrNull(params.Phone),
		db.TextOrNull(params.WhatsAppPhone),
		pgTeamID,
	)
	return scanContact(row)
}

// FindOrCreateByAddress resolves the contact owning the given address,
// creating it when absent. Under concurrent first contact the unique
// index on the address column arbitrates: a create-time collision means
// another request won the race and the now-existing row is re-read.
func (s *Service) FindOrCreateByAddress(ctx context.Context, address string, params NewContact) (Contact, error) {
	contact, err := s.FindByAddress(ctx, address)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Contact{}, err
	}

	contact, err = s.Create(ctx, params)
	if err == nil {
		s.logger.Info("contact created", slog.String("contact_id", contact.ID), slog.String("team_id", contact.TeamID))
		return contact, nil
	}
	if db.IsUniqueViolation(err) {
		return s.FindByAddress(ctx, address)
	}
	return Contact{}, err
}

// List returns all contacts with their message counts, newest first.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.first_name, c.last_name, c.email, c.phone, c.whatsapp_phone,
		        c.team_id, c.created_at, c.updated_at,
		        count(m.id) AS message_count
		 FROM contacts c
		 LEFT JOIN messages m ON m.contact_id = c.id
		 GROUP BY c.id
		 ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Summary, 0)
	for rows.Next() {
		var (
			item      Summary
			id        pgtype.UUID
			firstName pgtype.Text
			lastName  pgtype.Text
			email     pgtype.Text
			phone     pgtype.Text
			waPhone   pgtype.Text
			teamID    pgtype.UUID
			createdAt pgtype.Timestamptz
			updatedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &firstName, &lastName, &email, &phone, &waPhone, &teamID, &createdAt, &updatedAt, &item.MessageCount); err != nil {
			return nil, fmt.Errorf("scan contact summary: %w", err)
		}
		item.Contact = Contact{
			ID:            db.UUIDToString(id),
			FirstName:     db.TextToString(firstName),
			LastName:      db.TextToString(lastName),
			Email:         db.TextToString(email),
			Phone:         db.TextToString(phone),
			WhatsAppPhone: db.TextToString(waPhone),
			TeamID:        db.UUIDToString(teamID),
			CreatedAt:     db.TimeFromPg(createdAt),
			UpdatedAt:     db.TimeFromPg(updatedAt),
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanContact(row pgx.Row) (Contact, error) {
	var (
		id        pgtype.UUID
		firstName pgtype.Text
		lastName  pgtype.Text
		email     pgtype.Text
		phone     pgtype.Text
		waPhone   pgtype.Text
		teamID    pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &firstName, &lastName, &email, &phone, &waPhone, &teamID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	return Contact{
		ID:            db.UUIDToString(id),
		FirstName:     db.TextToString(firstName),
		LastName:      db.TextToString(lastName),
		Email:         db.TextToString(email),
		Phone:         db.TextToString(phone),
		WhatsAppPhone: db.TextToString(waPhone),
		TeamID:        db.UUIDToString(teamID),
		CreatedAt:     db.TimeFromPg(createdAt),
		UpdatedAt:     db.TimeFromPg(updatedAt),
	}, nil
}
