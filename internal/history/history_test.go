package history

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Shutdown() })
	return db
}

func TestMigrateTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		if err := Migrate(path); err != nil {
			t.Fatalf("Migrate #%d: %v", i, err)
		}
	}
}

func TestPragmasOnEveryConnection(t *testing.T) {
	db := openTestDB(t)
	db.SetMaxIdleConns(0)

	for i := 0; i < 2; i++ {
		var fk, timeout int
		if err := db.Get(&fk, "PRAGMA foreign_keys"); err != nil {
			t.Fatal(err)
		}
		if err := db.Get(&timeout, "PRAGMA busy_timeout"); err != nil {
			t.Fatal(err)
		}
		if fk != 1 || timeout != 5000 {
			t.Errorf("connection %d: foreign_keys = %d, busy_timeout = %d", i, fk, timeout)
		}
	}
}

func TestModels(t *testing.T) {
	ctx := context.Background()
	models := &Models{db: openTestDB(t)}

	preview := base64.StdEncoding.EncodeToString([]byte("face"))
	m, err := models.Create(ctx, Model{
		UserID: "alice",
		Name:   "Anna",
		Gender: "female",
		Photos: Photos{{Type: "side", Image: "eA=="}, {Type: PhotoPreview, Image: preview}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := models.Get(ctx, "alice", m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Anna" || len(got.Photos) != 2 {
		t.Errorf("Get = %+v", got)
	}
	if string(got.PreviewPhoto()) != "face" {
		t.Errorf("PreviewPhoto = %q", got.PreviewPhoto())
	}
	if _, err := models.Get(ctx, "bob", m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get by another user = %v, want ErrNotFound", err)
	}

	got.Description = "tall, short dark hair"
	updated, err := models.Update(ctx, got)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Description != "tall, short dark hair" || !updated.UpdatedAt.After(m.CreatedAt.Add(-time.Second)) {
		t.Errorf("Update = %+v", updated)
	}

	list, err := models.List(ctx, "alice")
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if list, _ := models.List(ctx, "bob"); len(list) != 0 {
		t.Errorf("bob sees %d models", len(list))
	}

	if err := models.Delete(ctx, "bob", m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete by another user = %v", err)
	}
	if err := models.Delete(ctx, "alice", m.ID); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestPreviewPhotoFallback(t *testing.T) {
	m := Model{Photos: Photos{{Type: "front", Image: base64.StdEncoding.EncodeToString([]byte("first"))}}}
	if string(m.PreviewPhoto()) != "first" {
		t.Errorf("PreviewPhoto = %q", m.PreviewPhoto())
	}
	if (Model{}).PreviewPhoto() != nil {
		t.Error("PreviewPhoto without photos")
	}
}

func TestGenerations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	models := &Models{db: db}
	gens := &Generations{db: db}

	m, err := models.Create(ctx, Model{UserID: "alice", Name: "Anna", Gender: "female"})
	if err != nil {
		t.Fatal(err)
	}

	first, err := gens.Insert(ctx, Generation{
		UserID:      "alice",
		ModelID:     lo.ToPtr(m.ID),
		ImageURL:    "https://cdn/alice/1_gen.png",
		Filename:    "alice/1_gen.png",
		MimeType:    "image/png",
		ProductType: "t-shirt",
		Parameters:  Parameters{"aspectRatio": "3:4"},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := gens.Insert(ctx, Generation{
		UserID:         "alice",
		ImageURL:       "https://cdn/alice/2_var_0.png",
		Filename:       "alice/2_var_0.png",
		MimeType:       "image/png",
		IsVariation:    true,
		VariationIndex: lo.ToPtr(0),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := gens.Insert(ctx, Generation{UserID: "bob", ImageURL: "u", Filename: "bob/1.png", MimeType: "image/png"}); err != nil {
		t.Fatal(err)
	}

	list, err := gens.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("List order = %v", lo.Map(list, func(g Generation, _ int) string { return g.Filename }))
	}
	if list[1].ModelName != "Anna" || list[1].Parameters["aspectRatio"] != "3:4" {
		t.Errorf("first generation = %+v", list[1])
	}
	if !list[0].IsVariation || list[0].VariationIndex == nil || *list[0].VariationIndex != 0 {
		t.Errorf("variation = %+v", list[0])
	}

	if g, err := gens.GetPublic(ctx, first.ID); err != nil || g.UserID != "alice" {
		t.Errorf("GetPublic = %+v, %v", g, err)
	}
	if _, err := gens.Delete(ctx, "bob", first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete by another user = %v", err)
	}
	deleted, err := gens.Delete(ctx, "alice", first.ID)
	if err != nil || deleted.Filename != "alice/1_gen.png" {
		t.Errorf("Delete = %+v, %v", deleted, err)
	}

	cleared, err := gens.Clear(ctx, "alice")
	if err != nil || len(cleared) != 1 {
		t.Errorf("Clear = %v, %v", cleared, err)
	}
	if list, _ := gens.List(ctx, "bob"); len(list) != 1 {
		t.Errorf("Clear touched another user: %d left", len(list))
	}
}

func TestDeletingModelKeepsGenerations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	models := &Models{db: db}
	gens := &Generations{db: db}

	m, _ := models.Create(ctx, Model{UserID: "alice", Name: "Anna", Gender: "female"})
	g, err := gens.Insert(ctx, Generation{UserID: "alice", ModelID: &m.ID, ImageURL: "u", Filename: "f", MimeType: "image/png"})
	if err != nil {
		t.Fatal(err)
	}
	if err := models.Delete(ctx, "alice", m.ID); err != nil {
		t.Fatal(err)
	}
	got, err := gens.Get(ctx, "alice", g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ModelID != nil {
		t.Errorf("ModelID = %v, want NULL after model delete", *got.ModelID)
	}
}
