package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/annel0/neonite-mod/internal/vec"
)

// PortalDataKey ключ свойства с координатами плит телепорта
const PortalDataKey = "stellar:portal_data"

// PlateRecord последние известные плиты в измерении (nil, если плита не найдена)
type PlateRecord struct {
	Blue   *vec.Vec3 `json:"blue"`
	Orange *vec.Vec3 `json:"orange"`
}

// Plates записи по идентификатору измерения
type Plates map[string]PlateRecord

// Clone глубокая копия
func (p Plates) Clone() Plates {
	out := make(Plates, len(p))
	for dim, rec := range p {
		var cp PlateRecord
		if rec.Blue != nil {
			b := *rec.Blue
			cp.Blue = &b
		}
		if rec.Orange != nil {
			o := *rec.Orange
			cp.Orange = &o
		}
		out[dim] = cp
	}
	return out
}

// PlateRepo сериализует плиты в JSON и хранит одним свойством
type PlateRepo struct {
	store PropertyStore
	key   string
}

// NewPlateRepo создаёт репозиторий поверх хранилища свойств
func NewPlateRepo(store PropertyStore) *PlateRepo {
	return &PlateRepo{store: store, key: PortalDataKey}
}

// Load читает записи. found=false, если свойство ещё не сохранялось.
func (r *PlateRepo) Load(ctx context.Context) (Plates, bool, error) {
	raw, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		return Plates{}, false, err
	}
	if !ok || raw == "" {
		return Plates{}, false, nil
	}
	plates := Plates{}
	if err := json.Unmarshal([]byte(raw), &plates); err != nil {
		return Plates{}, false, fmt.Errorf("повреждённые данные %s: %w", r.key, err)
	}
	return plates, true, nil
}

// Save перезаписывает свойство целиком
func (r *PlateRepo) Save(ctx context.Context, plates Plates) error {
	data, err := json.Marshal(plates)
	if err != nil {
		return fmt.Errorf("сериализация плит: %w", err)
	}
	return r.store.Set(ctx, r.key, string(data))
}
