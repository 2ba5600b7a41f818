package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"bookly/backend/internal/domain"
	"bookly/backend/internal/store"
)

type integrationFixture struct {
	repo       *BookingRepo
	db         *bun.DB
	providerID uuid.UUID
	serviceID  uuid.UUID
}

func setupIntegration(t *testing.T) integrationFixture {
	t.Helper()

	databaseURL := strings.TrimSpace(os.Getenv("BOOKLY_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("BOOKLY_TEST_DATABASE_URL not set")
	}

	admin, err := Open(databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(admin)
	})

	schema := "bookly_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = admin.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}
		return applyMigrations(ctx, tx)
	})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	scopedURL, err := withSearchPath(databaseURL, schema)
	if err != nil {
		t.Fatalf("search_path: %v", err)
	}
	db, err := Open(scopedURL, PoolConfig{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("Open scoped error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	provider := domain.Provider{
		UserID:       "provider-user-" + randomHex(t, 4),
		ProviderType: domain.ProviderTypeDoctor,
		DisplayName:  "Dr. Integration",
	}
	if _, err := db.NewInsert().Model(&provider).Exec(ctx); err != nil {
		t.Fatalf("insert provider: %v", err)
	}
	service := domain.Service{ProviderID: provider.ID, Name: "Consultation", Price: decimal.RequireFromString("49.95")}
	if _, err := db.NewInsert().Model(&service).Exec(ctx); err != nil {
		t.Fatalf("insert service: %v", err)
	}

	return integrationFixture{
		repo:       NewBookingRepo(db),
		db:         db,
		providerID: provider.ID,
		serviceID:  service.ID,
	}
}

func TestPostgresIntegration_ScheduleAndBookingLifecycle(t *testing.T) {
	f := setupIntegration(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	monday := domain.Date{Year: 2024, Month: time.January, Day: 8}

	err := f.repo.InProviderTransaction(ctx, f.providerID, func(ctx context.Context, tx store.ProviderTx) error {
		_, err := tx.CreateAvailabilitySlot(ctx, domain.AvailabilitySlot{
			ProviderID: f.providerID,
			DayOfWeek:  time.Monday,
			StartTime:  domain.NewTimeOfDay(9, 0),
			EndTime:    domain.NewTimeOfDay(11, 0),
			IsActive:   true,
		})
		return err
	})
	if err != nil {
		t.Fatalf("create window: %v", err)
	}

	err = f.repo.InProviderTransaction(ctx, f.providerID, func(ctx context.Context, tx store.ProviderTx) error {
		_, err := tx.CreateAvailabilitySlot(ctx, domain.AvailabilitySlot{
			ProviderID: f.providerID,
			DayOfWeek:  time.Monday,
			StartTime:  domain.NewTimeOfDay(10, 30),
			EndTime:    domain.NewTimeOfDay(12, 0),
			IsActive:   true,
		})
		return err
	})
	if !errors.Is(err, store.ErrWindowOverlap) {
		t.Fatalf("overlap err = %v, want %v", err, store.ErrWindowOverlap)
	}

	windows, err := f.repo.ListActiveWindows(ctx, f.providerID, monday.Weekday())
	if err != nil {
		t.Fatalf("ListActiveWindows: %v", err)
	}
	if len(windows) != 1 || windows[0].StartTime.String() != "09:00" || windows[0].EndTime.String() != "11:00" {
		t.Fatalf("windows = %+v", windows)
	}

	var appt domain.Appointment
	err = f.repo.InProviderTransaction(ctx, f.providerID, func(ctx context.Context, tx store.ProviderTx) error {
		if _, err := tx.GetService(ctx, f.providerID, f.serviceID); err != nil {
			return err
		}
		appt, err = tx.CreateAppointment(ctx, domain.Appointment{
			UserID:          "client-1",
			ProviderID:      f.providerID,
			ServiceID:       f.serviceID,
			AppointmentDate: monday,
			AppointmentTime: domain.NewTimeOfDay(10, 0),
		})
		return err
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	occupied, err := f.repo.ListOccupiedTimes(ctx, f.providerID, monday)
	if err != nil {
		t.Fatalf("ListOccupiedTimes: %v", err)
	}
	if got := domain.FormatSlots(occupied); len(got) != 1 || got[0] != "10:00" {
		t.Fatalf("occupied = %v", got)
	}

	views, err := f.repo.ListUserAppointments(ctx, "client-1")
	if err != nil {
		t.Fatalf("ListUserAppointments: %v", err)
	}
	if len(views) != 1 || views[0].ProviderName != "Dr. Integration" || views[0].ServiceName != "Consultation" ||
		views[0].ProviderType != domain.ProviderTypeDoctor || views[0].ServicePrice.StringFixed(2) != "49.95" {
		t.Fatalf("views = %+v", views)
	}

	err = f.repo.InProviderTransaction(ctx, f.providerID, func(ctx context.Context, tx store.ProviderTx) error {
		locked, err := tx.GetAppointment(ctx, appt.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.AppointmentStatusPending {
			return fmt.Errorf("status = %s, want pending", locked.Status)
		}
		updated, err := tx.UpdateAppointmentStatus(ctx, appt.ID, domain.AppointmentStatusCancelled)
		if err != nil {
			return err
		}
		if updated.Status != domain.AppointmentStatusCancelled || !updated.UpdatedAt.After(locked.UpdatedAt) {
			return fmt.Errorf("updated = %+v", updated)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	occupied, err = f.repo.ListOccupiedTimes(ctx, f.providerID, monday)
	if err != nil {
		t.Fatalf("ListOccupiedTimes: %v", err)
	}
	if len(occupied) != 0 {
		t.Fatalf("cancelled appointment still occupies: %v", domain.FormatSlots(occupied))
	}

	var blockedCreated [2]bool
	for i := range blockedCreated {
		err = f.repo.InProviderTransaction(ctx, f.providerID, func(ctx context.Context, tx store.ProviderTx) error {
			_, created, err := tx.BlockDate(ctx, domain.BlockedDate{ProviderID: f.providerID, BlockedDate: monday})
			blockedCreated[i] = created
			return err
		})
		if err != nil {
			t.Fatalf("BlockDate #%d: %v", i, err)
		}
	}
	if !blockedCreated[0] || blockedCreated[1] {
		t.Fatalf("created flags = %v, want [true false]", blockedCreated)
	}

	blocked, err := f.repo.IsDateBlocked(ctx, f.providerID, monday)
	if err != nil || !blocked {
		t.Fatalf("IsDateBlocked = %v, %v", blocked, err)
	}
}

func TestPostgresIntegration_ConcurrentBookingsOneWinner(t *testing.T) {
	f := setupIntegration(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	monday := domain.Date{Year: 2024, Month: time.January, Day: 8}

	// Insert directly on the pool so only the partial unique index decides.
	const attempts = 4
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		taken int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := domain.Appointment{
				UserID:          fmt.Sprintf("client-%d", i),
				ProviderID:      f.providerID,
				ServiceID:       f.serviceID,
				AppointmentDate: monday,
				AppointmentTime: domain.NewTimeOfDay(9, 0),
				Status:          domain.AppointmentStatusPending,
			}
			_, err := f.db.NewInsert().Model(&m).Exec(ctx)
			err = translateError(err)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, store.ErrSlotTaken):
				taken++
			default:
				t.Errorf("attempt %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || taken != attempts-1 {
		t.Fatalf("wins = %d, taken = %d", wins, taken)
	}
}

func withSearchPath(databaseURL, schema string) (string, error) {
	if !strings.Contains(databaseURL, "://") {
		return databaseURL + " search_path=" + schema + ",public", nil
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema+",public")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

func applyMigrations(ctx context.Context, exec rawExecutor) error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		for _, stmt := range splitSQLStatements(string(b)) {
			if normalized, ok := normalizeExtensionStatement(stmt); ok {
				stmt = normalized
			}
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}

	return nil
}

func migrationsDir() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime.Caller failed")
	}
	base := filepath.Dir(file)
	return filepath.Clean(filepath.Join(base, "..", "..", "..", "migrations")), nil
}

func normalizeExtensionStatement(stmt string) (string, bool) {
	s := strings.TrimSpace(stmt)
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "CREATE EXTENSION") {
		return "", false
	}
	if !strings.Contains(upper, "BTREE_GIST") {
		return "", false
	}
	if strings.Contains(upper, " SCHEMA ") {
		return "", false
	}
	return s + " SCHEMA public", true
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
