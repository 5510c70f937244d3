package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormCityRepository implements the CityRepository interface
type GormCityRepository struct {
	db *gorm.DB
}

// NewGormCityRepository creates a new GORM city repository
func NewGormCityRepository(db *gorm.DB) repository.CityRepository {
	return &GormCityRepository{
		db: db,
	}
}

// Citylist GORM model for database mapping
type Citylist struct {
	gorm.Model
	ID        uint           `gorm:"primaryKey"`
	Name      string         `gorm:"column:name;unique"`
	Lng       float64        `gorm:"column:lng"`
	Lat       float64        `gorm:"column:lat"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Citylist) TableName() string {
	return "m_city_list"
}

// FindByName resolves a city to coordinates. The exact name is tried first,
// then the name with 市/省 suffixes stripped. A miss returns (nil, nil) so
// callers treat it as a soft absence, not an error.
func (r *GormCityRepository) FindByName(ctx context.Context, name string) (*entity.City, error) {
	candidates := []string{name}
	cleaned := strings.NewReplacer("市", "", "省", "").Replace(name)
	if cleaned != name && cleaned != "" {
		candidates = append(candidates, cleaned)
	}

	for _, candidate := range candidates {
		var city Citylist
		result := r.db.WithContext(ctx).Where("name = ?", candidate).First(&city)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, result.Error
		}
		return &entity.City{
			ID:        city.ID,
			Name:      city.Name,
			Lng:       city.Lng,
			Lat:       city.Lat,
			CreatedAt: city.CreatedAt,
			UpdatedAt: city.UpdatedAt,
			DeletedAt: city.DeletedAt,
		}, nil
	}
	return nil, nil
}

// SeedCities migrates the table and inserts any missing rows from the
// built-in coordinate map. Existing rows are left untouched.
func SeedCities(db *gorm.DB) error {
	if err := db.AutoMigrate(&Citylist{}); err != nil {
		return err
	}
	for name, coord := range cityCoordinates {
		row := Citylist{Name: name, Lng: coord[0], Lat: coord[1]}
		result := db.Where("name = ?", name).FirstOrCreate(&row)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}
