package accessory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mwhitfield/leapgate/internal/infrastructure/database"
	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
	_ "github.com/mwhitfield/leapgate/migrations"
)

func testLogger() *logging.Logger {
	return logging.Default()
}

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "leapgate.db"),
		WALMode:     true,
		BusyTimeout: 5000,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return NewSQLiteRepository(db)
}

func TestSQLiteRepository_InsertAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	acc := testAccessory("68130838")
	if err := repo.Insert(ctx, acc); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := repo.Get(ctx, acc.UUID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != acc.Name {
		t.Errorf("Name = %q, want %q", got.Name, acc.Name)
	}
	if got.Context.BridgeID != "bridge1" {
		t.Errorf("BridgeID = %q, want bridge1", got.Context.BridgeID)
	}
	if got.Context.Device.DeviceType != "Pico3Button" {
		t.Errorf("DeviceType = %q, want Pico3Button", got.Context.Device.DeviceType)
	}
}

func TestSQLiteRepository_DuplicateSerial(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.Insert(ctx, testAccessory("100")); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	if err := repo.Insert(ctx, testAccessory("100")); !errors.Is(err, ErrAccessoryExists) {
		t.Errorf("second Insert() error = %v, want ErrAccessoryExists", err)
	}
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Get(context.Background(), IDForSerial("missing"))
	if !errors.Is(err, ErrAccessoryNotFound) {
		t.Errorf("Get() error = %v, want ErrAccessoryNotFound", err)
	}
}

func TestSQLiteRepository_List(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, serial := range []string{"1", "2", "3"} {
		if err := repo.Insert(ctx, testAccessory(serial)); err != nil {
			t.Fatalf("Insert(%s) error = %v", serial, err)
		}
	}

	accs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(accs) != 3 {
		t.Errorf("got %d accessories, want 3", len(accs))
	}
}

func TestRegistry_RegisterAndRestore(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	reg := NewRegistry(repo, nil, testLogger())

	acc := testAccessory("500")
	if err := reg.Register(ctx, acc); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(ctx, acc); !errors.Is(err, ErrAccessoryExists) {
		t.Errorf("duplicate Register() error = %v, want ErrAccessoryExists", err)
	}

	restored, err := reg.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if len(restored) != 1 || restored[0].UUID != acc.UUID {
		t.Errorf("Restore() = %+v, want the one registered accessory", restored)
	}
}
