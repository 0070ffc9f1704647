// Package messages provides the append-mostly message ledger with
// at-most-once persistence per provider delivery event.
package messages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaydesk/relaydesk/internal/db"
)

// ErrNotFound is returned when no message matches the lookup.
var ErrNotFound = errors.New("message not found")

const defaultListLimit = 50

const messageColumns = `id, content, channel_type, direction, status, provider_id, metadata, contact_id, channel_id, created_at`

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
		logger: log.With(slog.String("service", "messages")),
	}
}

// Create appends a message. When the metadata carries a provider id,
// the partial unique index on (provider_id, direction) enforces exactly
// one row per provider delivery event: a collision returns the already
// stored row with duplicate=true instead of an error, absorbing
// provider webhook retries.
func (s *Service) Create(ctx context.Context, params NewMessage) (Message, bool, error) {
	pgContactID, err := db.ParseUUID(params.ContactID)
	if err != nil {
		return Message{}, false, fmt.Errorf("invalid contact id: %w", err)
	}
	pgChannelID, err := db.ParseUUID(params.ChannelID)
	if err != nil {
		return Message{}, false, fmt.Errorf("invalid channel id: %w", err)
	}
	metadata, err := json.Marshal(params.Metadata)
	if err != nil {
		return Message{}, false, fmt.Errorf("encode metadata: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO messages (content, channel_type, direction, status, provider_id, metadata, contact_id, channel_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+messageColumns,
		params.Content,
		params.ChannelType.String(),
		string(params.Direction),
		string(params.Status),
		db.TextOrNull(params.Metadata.ProviderID),
		metadata,
		pgContactID,
		pgChannelID,
	)
	msg, err := scanMessage(row)
	if err == nil {
		return msg, false, nil
	}
	if db.IsUniqueViolation(err) {
		existing, findErr := s.FindByProviderID(ctx, params.Metadata.ProviderID, params.Direction)
		if findErr != nil {
			return Message{}, false, fmt.Errorf("re-read after duplicate: %w", findErr)
		}
		s.logger.Info("duplicate provider event absorbed",
			slog.String("provider_id", params.Metadata.ProviderID),
			slog.String("direction", string(params.Direction)),
		)
		return existing, true, nil
	}
	return Message{}, false, err
}

// FindByProviderID looks up the message persisted for a provider
// delivery event.
func (s *Service) FindByProviderID(ctx context.Context, providerID string, direction Direction) (Message, error) {
	if providerID == "" {
		return Message{}, ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE provider_id = $1 AND direction = $2`,
		providerID, string(direction))
	return scanMessage(row)
}

// ListByContact returns a contact's messages, newest first.
func (s *Service) ListByContact(ctx context.Context, contactID string, limit int) ([]Message, error) {
	pgContactID, err := db.ParseUUID(contactID)
	if err != nil {
		return nil, fmt.Errorf("invalid contact id: %w", err)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE contact_id = $1 ORDER BY created_at DESC LIMIT $2`,
		pgContactID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Message, 0, limit)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, msg)
	}
	return items, rows.Err()
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		id          pgtype.UUID
		content     string
		channelType string
		direction   string
		status      string
		providerID  pgtype.Text
		metadataRaw []byte
		contactID   pgtype.UUID
		channelID   pgtype.UUID
		createdAt   pgtype.Timestamptz
	)
	if err := row.Scan(&id, &content, &channelType, &direction, &status, &providerID, &metadataRaw, &contactID, &channelID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, ErrNotFound
		}
		return Message{}, fmt.Errorf("scan message: %w", err)
	}
	var metadata ProviderMetadata
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
			return Message{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return Message{
		ID:          db.UUIDToString(id),
		Content:     content,
		ChannelType: parseStoredType(channelType),
		Direction:   Direction(direction),
		Status:      Status(status),
		Metadata:    metadata,
		ContactID:   db.UUIDToString(contactID),
		ChannelID:   db.UUIDToString(channelID),
		CreatedAt:   db.TimeFromPg(createdAt),
	}, nil
}
