package contacts_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaydesk/relaydesk/internal/contacts"
)

func setupIntegrationTest(t *testing.T) (*contacts.Service, *pgxpool.Pool, string) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skip integration test: TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip integration test: cannot connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test: database ping failed: %v", err)
	}
	t.Cleanup(pool.Close)

	var teamID string
	err = pool.QueryRow(ctx,
		`INSERT INTO teams (name) VALUES ($1) RETURNING id::text`,
		fmt.Sprintf("it-team-%d", time.Now().UnixNano())).Scan(&teamID)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return contacts.NewService(logger, pool), pool, teamID
}

func TestIntegrationFindOrCreateByAddressStability(t *testing.T) {
	svc, _, teamID := setupIntegrationTest(t)
	ctx := context.Background()

	address := fmt.Sprintf("+1999%d", time.Now().UnixNano()%1e10)
	params := contacts.NewContact{Phone: address, TeamID: teamID}

	first, err := svc.FindOrCreateByAddress(ctx, address, params)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := svc.FindOrCreateByAddress(ctx, address, params)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected stable contact id, got %s and %s", first.ID, second.ID)
	}
}

func TestIntegrationFindOrCreateByAddressConcurrent(t *testing.T) {
	svc, _, teamID := setupIntegrationTest(t)
	ctx := context.Background()

	address := fmt.Sprintf("+1888%d", time.Now().UnixNano()%1e10)
	params := contacts.NewContact{Phone: address, TeamID: teamID}

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := svc.FindOrCreateByAddress(ctx, address, params)
			ids[i], errs[i] = c.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d failed: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("workers resolved different contacts: %s and %s", ids[0], ids[i])
		}
	}
}

func TestIntegrationFindByAddressMatchesEitherField(t *testing.T) {
	svc, _, teamID := setupIntegrationTest(t)
	ctx := context.Background()

	address := fmt.Sprintf("+1777%d", time.Now().UnixNano()%1e10)
	created, err := svc.Create(ctx, contacts.NewContact{WhatsAppPhone: address, TeamID: teamID})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	found, err := svc.FindByAddress(ctx, address)
	if err != nil {
		t.Fatalf("find by whatsapp address: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected contact %s, got %s", created.ID, found.ID)
	}
}
