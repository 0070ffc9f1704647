// Package teams provides read access to the team directory.
package teams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaydesk/relaydesk/internal/db"
)

// ErrNotFound is returned when no team matches the lookup.
var ErrNotFound = errors.New("team not found")

// Team owns contacts and channels.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
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
		logger: log.With(slog.String("service", "teams")),
	}
}

// GetByID looks up a team by id.
func (s *Service) GetByID(ctx context.Context, teamID string) (Team, error) {
	pgID, err := db.ParseUUID(teamID)
	if err != nil {
		return Team{}, err
	}
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM teams WHERE id = $1`, pgID)
	return scanTeam(row)
}

// FindAny returns the oldest team. It is the inbound fallback owner for
// contacts created from webhook events.
func (s *Service) FindAny(ctx context.Context) (Team, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM teams ORDER BY created_at LIMIT 1`)
	return scanTeam(row)
}

func scanTeam(row pgx.Row) (Team, error) {
	var (
		id        pgtype.UUID
		name      string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &name, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, ErrNotFound
		}
		return Team{}, fmt.Errorf("scan team: %w", err)
	}
	return Team{
		ID:        db.UUIDToString(id),
		Name:      name,
		CreatedAt: db.TimeFromPg(createdAt),
		UpdatedAt: db.TimeFromPg(updatedAt),
	}, nil
}
