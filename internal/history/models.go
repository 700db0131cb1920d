package history

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/lo"
)

// Model is a saved virtual model a user generates photos with.
type Model struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Gender      string    `db:"gender" json:"gender"`
	Photos      Photos    `db:"photos" json:"photos"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PreviewPhoto returns the decoded preview photo, falling back to the first
// photo, or nil when there is none.
func (m Model) PreviewPhoto() []byte {
	photo, ok := lo.Find(m.Photos, func(p Photo) bool { return p.Type == PhotoPreview })
	if !ok {
		if len(m.Photos) == 0 {
			return nil
		}
		photo = m.Photos[0]
	}
	data, err := base64.StdEncoding.DecodeString(photo.Image)
	if err != nil {
		return nil
	}
	return data
}

type Models struct {
	db *DB
}

func NewModels(i *do.Injector) (*Models, error) {
	return do.MustInvoke[*DB](i).Models(), nil
}

func (db *DB) Models() *Models {
	return &Models{db: db}
}

func (s *Models) Create(ctx context.Context, m Model) (Model, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("models").With("user", m.UserID, "name", m.Name)
	log.Info("creating model")

	now := time.Now().UTC()
	m.ID = uuid.NewString()
	m.CreatedAt, m.UpdatedAt = now, now
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO models (id, user_id, name, description, gender, photos, created_at, updated_at)
		VALUES (:id, :user_id, :name, :description, :gender, :photos, :created_at, :updated_at)`, m)
	if err != nil {
		return Model{}, fmt.Errorf("inserting model: %w", err)
	}
	return m, nil
}

func (s *Models) Get(ctx context.Context, userID, id string) (Model, error) {
	var m Model
	err := s.db.GetContext(ctx, &m, `SELECT * FROM models WHERE id = ? AND user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Model{}, ErrNotFound
	}
	return m, err
}

func (s *Models) List(ctx context.Context, userID string) ([]Model, error) {
	models := []Model{}
	err := s.db.SelectContext(ctx, &models, `SELECT * FROM models WHERE user_id = ? ORDER BY created_at DESC`, userID)
	return models, err
}

func (s *Models) Update(ctx context.Context, m Model) (Model, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("models").With("user", m.UserID, "id", m.ID)
	log.Info("updating model")

	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE models SET name = :name, description = :description, gender = :gender, photos = :photos, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id`, m)
	if err != nil {
		return Model{}, fmt.Errorf("updating model: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Model{}, ErrNotFound
	}
	return s.Get(ctx, m.UserID, m.ID)
}

func (s *Models) Delete(ctx context.Context, userID, id string) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("models").With("user", userID, "id", id)
	log.Info("deleting model")

	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting model: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
