package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/academy/internal/database"
)

func setupSnapshotStore(t *testing.T, passphrase string) *SnapshotStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := NewSnapshotStore(db, passphrase)
	if err != nil {
		t.Fatalf("new snapshot store: %v", err)
	}
	return s
}

type payload struct {
	Items []string `json:"items"`
	Total int      `json:"total"`
}

func TestSnapshotSaveLoad(t *testing.T) {
	s := setupSnapshotStore(t, "")
	ctx := context.Background()

	var got payload
	ok, err := s.Load(ctx, "job", &got)
	if err != nil || ok {
		t.Fatalf("empty load = %v, %v; want false, nil", ok, err)
	}

	if err := s.Save(ctx, "job", payload{Items: []string{"a", "b"}, Total: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "job", payload{Items: []string{"c"}, Total: 1}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	ok, err = s.Load(ctx, "job", &got)
	if err != nil || !ok {
		t.Fatalf("load = %v, %v", ok, err)
	}
	if len(got.Items) != 1 || got.Items[0] != "c" || got.Total != 1 {
		t.Errorf("got %+v, want the latest snapshot", got)
	}
}

func TestSnapshotEncrypted(t *testing.T) {
	s := setupSnapshotStore(t, "correct horse")
	ctx := context.Background()

	if err := s.Save(ctx, "user", payload{Items: []string{"ada@example.fr"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var raw []byte
	if err := s.db.QueryRow(`SELECT payload FROM snapshots WHERE resource = 'user'`).Scan(&raw); err != nil {
		t.Fatal(err)
	}
	if len(raw) < saltSize+nonceSize || string(raw[0]) == "{" {
		t.Error("payload stored in clear")
	}

	var got payload
	if ok, err := s.Load(ctx, "user", &got); err != nil || !ok || got.Items[0] != "ada@example.fr" {
		t.Errorf("load = %+v, %v, %v", got, ok, err)
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || !infos[0].Encrypted || infos[0].Resource != "user" {
		t.Errorf("infos = %+v", infos)
	}
}

func TestSnapshotWrongPassphrase(t *testing.T) {
	s := setupSnapshotStore(t, "first")
	ctx := context.Background()
	if err := s.Save(ctx, "center", payload{Total: 3}); err != nil {
		t.Fatal(err)
	}

	other, err := NewSnapshotStore(s.db, "second")
	if err != nil {
		t.Fatal(err)
	}
	var got payload
	if _, err := other.Load(ctx, "center", &got); !errors.Is(err, ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}

	plain, _ := NewSnapshotStore(s.db, "")
	if _, err := plain.Load(ctx, "center", &got); !errors.Is(err, ErrDecrypt) {
		t.Errorf("without passphrase err = %v, want ErrDecrypt", err)
	}
}

func TestSnapshotBoundToResource(t *testing.T) {
	s := setupSnapshotStore(t, "pass")
	ctx := context.Background()
	if err := s.Save(ctx, "blog", payload{Total: 1}); err != nil {
		t.Fatal(err)
	}
	// Moving a sealed payload to another row must not decrypt.
	if _, err := s.db.Exec(`INSERT INTO snapshots (resource, payload, encrypted) SELECT 'job', payload, encrypted FROM snapshots WHERE resource = 'blog'`); err != nil {
		t.Fatal(err)
	}
	var got payload
	if _, err := s.Load(ctx, "job", &got); !errors.Is(err, ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}
}

func TestSnapshotDelete(t *testing.T) {
	s := setupSnapshotStore(t, "")
	ctx := context.Background()
	s.Save(ctx, "formation", payload{})
	if err := s.Delete(ctx, "formation"); err != nil {
		t.Fatal(err)
	}
	var got payload
	if ok, _ := s.Load(ctx, "formation", &got); ok {
		t.Error("snapshot still present after delete")
	}
}

func TestRefreshRuns(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	runs := NewRefreshRunStore(db)
	ctx := context.Background()

	old := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 4, 15, 8, 0, 0, 0, time.UTC)
	if err := runs.Record(ctx, "job", old, 120*time.Millisecond, nil); err != nil {
		t.Fatal(err)
	}
	if err := runs.Record(ctx, "calendar", recent, time.Second, errors.New("boom")); err != nil {
		t.Fatal(err)
	}

	got, err := runs.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Job != "calendar" || got[0].Error != "boom" || got[1].Duration != 120*time.Millisecond {
		t.Errorf("recent = %+v", got)
	}

	n, err := runs.Prune(ctx, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	if err != nil || n != 1 {
		t.Errorf("prune = %d, %v; want 1", n, err)
	}
}
