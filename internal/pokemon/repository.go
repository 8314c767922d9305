package pokemon

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyExists is returned by Create when a row with the same id is already stored.
var ErrAlreadyExists = eris.New("pokemon already cached")

// Repository defines persistence operations for cached Pokémon.
type Repository interface {
	GetByID(ctx context.Context, id int) (*Pokemon, error)
	GetByName(ctx context.Context, name string) (*Pokemon, error)
	List(ctx context.Context, limit, offset int, search string) ([]Pokemon, error)
	ListByIDs(ctx context.Context, ids []int) ([]Pokemon, error)
	Create(ctx context.Context, pokemon *Pokemon) error
	HasAny(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// GormRepository persists Pokémon using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: db, logger: logger}, nil
}

var _ Repository = (*GormRepository)(nil)

// GetByID returns the Pokémon with the given id or nil when not cached.
func (r *GormRepository) GetByID(ctx context.Context, id int) (*Pokemon, error) {
	var pokemon Pokemon
	err := r.db.WithContext(ctx).First(&pokemon, "id = ?", id).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"pokemon_id": id}, err, "fetching pokemon by id")
		return nil, eris.Wrapf(err, "fetching pokemon by id: %d", id)
	}

	return &pokemon, nil
}

// GetByName returns the Pokémon with the given name or nil when not cached.
func (r *GormRepository) GetByName(ctx context.Context, name string) (*Pokemon, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, eris.New("name is required")
	}

	var pokemon Pokemon
	err := r.db.WithContext(ctx).First(&pokemon, "name = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"pokemon_name": trimmed}, err, "fetching pokemon by name")
		return nil, eris.Wrapf(err, "fetching pokemon by name: %s", trimmed)
	}

	return &pokemon, nil
}

// List returns a page of cached Pokémon in upstream display order, optionally
// restricted to names containing search.
func (r *GormRepository) List(ctx context.Context, limit, offset int, search string) ([]Pokemon, error) {
	query := r.db.WithContext(ctx).Model(&Pokemon{})

	if trimmed := strings.TrimSpace(search); trimmed != "" {
		query = query.Where("name LIKE ?", "%"+trimmed+"%")
	}

	query = query.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "order"}},
		{Column: clause.Column{Name: "id"}},
	}})

	pokemon := make([]Pokemon, 0)
	if err := query.Limit(limit).Offset(offset).Find(&pokemon).Error; err != nil {
		r.logError(logrus.Fields{"limit": limit, "offset": offset, "search": search}, err, "listing pokemon")
		return nil, eris.Wrap(err, "listing pokemon")
	}

	return pokemon, nil
}

// ListByIDs returns the cached rows among ids. Missing ids are skipped and order is unspecified.
func (r *GormRepository) ListByIDs(ctx context.Context, ids []int) ([]Pokemon, error) {
	pokemon := make([]Pokemon, 0, len(ids))
	if len(ids) == 0 {
		return pokemon, nil
	}

	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&pokemon).Error; err != nil {
		r.logError(logrus.Fields{"ids": ids}, err, "listing pokemon by ids")
		return nil, eris.Wrap(err, "listing pokemon by ids")
	}

	return pokemon, nil
}

// Create inserts a new row. An existing row with the same id yields ErrAlreadyExists.
func (r *GormRepository) Create(ctx context.Context, pokemon *Pokemon) error {
	if pokemon == nil {
		return eris.New("pokemon is nil")
	}
	if pokemon.ID <= 0 {
		return eris.Errorf("pokemon id must be positive, got %d", pokemon.ID)
	}

	err := r.db.WithContext(ctx).Create(pokemon).Error
	if err == nil {
		return nil
	}

	if eris.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return eris.Wrapf(ErrAlreadyExists, "creating pokemon %d", pokemon.ID)
	}

	r.logError(logrus.Fields{"pokemon_id": pokemon.ID}, err, "creating pokemon")
	return eris.Wrapf(err, "creating pokemon: %d", pokemon.ID)
}

// HasAny reports whether at least one Pokémon is cached.
func (r *GormRepository) HasAny(ctx context.Context) (bool, error) {
	var ids []int
	if err := r.db.WithContext(ctx).Model(&Pokemon{}).Limit(1).Pluck("id", &ids).Error; err != nil {
		r.logError(nil, err, "probing pokemon table")
		return false, eris.Wrap(err, "probing pokemon table")
	}

	return len(ids) > 0, nil
}

// Count returns the number of cached Pokémon.
func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Pokemon{}).Count(&count).Error; err != nil {
		r.logError(nil, err, "counting pokemon")
		return 0, eris.Wrap(err, "counting pokemon")
	}

	return count, nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("component", "pokemon.repository").WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
