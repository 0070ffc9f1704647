// Package channels provides the configured channel store with race-safe
// default channel resolution per (team, channel type).
package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/db"
)

// ErrNotFound is returned when no channel matches the lookup.
var ErrNotFound = errors.New("channel not found")

// Channel is a configured provider endpoint of one channel type for a team.
type Channel struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ChannelType channel.Type   `json:"channel_type"`
	Config      map[string]any `json:"config"`
	TeamID      string         `json:"team_id"`
	CreatedAt   time.Time      `json:"created_at"`
}

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
		logger: log.With(slog.String("service", "channels")),
	}
}

// Find looks up the team's channel of the given type.
func (s *Service) Find(ctx context.Context, teamID string, channelType channel.Type) (Channel, error) {
	pgTeamID, err := db.ParseUUID(teamID)
	if err != nil {
		return Channel{}, fmt.Errorf("invalid team id: %w", err)
	}
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, channel_type, config, team_id, created_at
		 FROM channels WHERE team_id = $1 AND channel_type = $2`,
		pgTeamID, channelType.String())
	return scanChannel(row)
}

// FindOrCreateDefault resolves the team's channel for the given type,
// lazily creating it with a display name derived from the type. The
// unique index on (team_id, channel_type) arbitrates concurrent
// first-time creation: a collision means another request won and the
// existing row is re-read.
func (s *Service) FindOrCreateDefault(ctx context.Context, teamID string, channelType channel.Type) (Channel, error) {
	ch, err := s.Find(ctx, teamID, channelType)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Channel{}, err
	}

	pgTeamID, err := db.ParseUUID(teamID)
	if err != nil {
		return Channel{}, fmt.Errorf("invalid team id: %w", err)
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO channels (name, channel_type, config, team_id)
		 VALUES ($1, $2, '{}'::jsonb, $3)
		 RETURNING id, name, channel_type, config, team_id, created_at`,
		fmt.Sprintf("%s Channel", channelType), channelType.String(), pgTeamID)

	ch, err = scanChannel(row)
	if err == nil {
		s.logger.Info("channel created",
			slog.String("channel_id", ch.ID),
			slog.String("team_id", teamID),
			slog.String("channel_type", channelType.String()),
		)
		return ch, nil
	}
	if db.IsUniqueViolation(err) {
		return s.Find(ctx, teamID, channelType)
	}
	return Channel{}, err
}

func scanChannel(row pgx.Row) (Channel, error) {
	var (
		id          pgtype.UUID
		name        string
		channelType string
		configRaw   []byte
		teamID      pgtype.UUID
		createdAt   pgtype.Timestamptz
	)
	if err := row.Scan(&id, &name, &channelType, &configRaw, &teamID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Channel{}, ErrNotFound
		}
		return Channel{}, fmt.Errorf("scan channel: %w", err)
	}
	config := map[string]any{}
	if len(configRaw) > 0 {
		if err := json.Unmarshal(configRaw, &config); err != nil {
			return Channel{}, fmt.Errorf("decode channel config: %w", err)
		}
	}
	return Channel{
		ID:          db.UUIDToString(id),
		Name:        name,
		ChannelType: channel.Type(channelType),
		Config:      config,
		TeamID:      db.UUIDToString(teamID),
		CreatedAt:   db.TimeFromPg(createdAt),
	}, nil
}
