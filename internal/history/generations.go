package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/google/uuid"
	"github.com/samber/do"
)

// Generation is one stored image.
type Generation struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"-"`
	ModelID        *string    `db:"model_id" json:"modelId,omitempty"`
	ModelName      string     `db:"model_name" json:"modelName,omitempty"`
	ImageURL       string     `db:"image_url" json:"image_url"`
	Filename       string     `db:"filename" json:"filename"`
	MimeType       string     `db:"mime_type" json:"mimeType"`
	ProductType    string     `db:"product_type" json:"productType"`
	Background     string     `db:"background" json:"background"`
	Pose           string     `db:"pose" json:"pose"`
	Gender         string     `db:"gender" json:"gender"`
	IsVariation    bool       `db:"is_variation" json:"isVariation"`
	VariationIndex *int       `db:"variation_index" json:"variationIndex,omitempty"`
	Parameters     Parameters `db:"parameters" json:"parameters"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

type Generations struct {
	db *DB
}

func NewGenerations(i *do.Injector) (*Generations, error) {
	return do.MustInvoke[*DB](i).Generations(), nil
}

func (db *DB) Generations() *Generations {
	return &Generations{db: db}
}

const selectGeneration = `
	SELECT g.*, COALESCE(m.name, '') AS model_name
	FROM generations g LEFT JOIN models m ON m.id = g.model_id`

func (s *Generations) Insert(ctx context.Context, g Generation) (Generation, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("generations").With("user", g.UserID, "filename", g.Filename)
	log.Info("recording generation")

	g.ID = uuid.NewString()
	g.CreatedAt = time.Now().UTC()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO generations (id, user_id, model_id, image_url, filename, mime_type, product_type, background,
			pose, gender, is_variation, variation_index, parameters, created_at)
		VALUES (:id, :user_id, :model_id, :image_url, :filename, :mime_type, :product_type, :background,
			:pose, :gender, :is_variation, :variation_index, :parameters, :created_at)`, g)
	if err != nil {
		return Generation{}, fmt.Errorf("inserting generation: %w", err)
	}
	return g, nil
}

func (s *Generations) Get(ctx context.Context, userID, id string) (Generation, error) {
	return s.get(ctx, selectGeneration+` WHERE g.id = ? AND g.user_id = ?`, id, userID)
}

// GetPublic looks a generation up by id alone, for share links.
func (s *Generations) GetPublic(ctx context.Context, id string) (Generation, error) {
	return s.get(ctx, selectGeneration+` WHERE g.id = ?`, id)
}

func (s *Generations) get(ctx context.Context, query string, args ...any) (Generation, error) {
	var g Generation
	err := s.db.GetContext(ctx, &g, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Generation{}, ErrNotFound
	}
	return g, err
}

// List returns a user's generations, newest first.
func (s *Generations) List(ctx context.Context, userID string) ([]Generation, error) {
	gens := []Generation{}
	err := s.db.SelectContext(ctx, &gens, selectGeneration+` WHERE g.user_id = ? ORDER BY g.created_at DESC`, userID)
	return gens, err
}

// Delete removes one generation and returns it so its file can be removed.
func (s *Generations) Delete(ctx context.Context, userID, id string) (Generation, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("generations").With("user", userID, "id", id)
	log.Info("deleting generation")

	g, err := s.Get(ctx, userID, id)
	if err != nil {
		return Generation{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM generations WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return Generation{}, fmt.Errorf("deleting generation: %w", err)
	}
	return g, nil
}

// Clear removes every generation of a user and returns what was removed.
func (s *Generations) Clear(ctx context.Context, userID string) ([]Generation, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("generations").With("user", userID)
	log.Info("clearing history")

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	gens := []Generation{}
	if err := tx.SelectContext(ctx, &gens, selectGeneration+` WHERE g.user_id = ?`, userID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM generations WHERE user_id = ?`, userID); err != nil {
		return nil, fmt.Errorf("clearing history: %w", err)
	}
	return gens, tx.Commit()
}
