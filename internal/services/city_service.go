package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"cityideas/internal/models"
	"cityideas/internal/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	cityCachePrefix = "cities:"
	cityCacheTTL    = time.Minute
)

type CityService struct {
	db    *gorm.DB
	cache *utils.Cache
}

func NewCityService(db *gorm.DB, cache *utils.Cache) *CityService {
	return &CityService{db: db, cache: cache}
}

// CityInput is the admin form as submitted.
type CityInput struct {
	Name        string
	Description string
	Latitude    string
	Longitude   string
	Zoom        string
	IsActive    bool
}

func (in CityInput) parse() (*models.City, error) {
	var p problems
	city := &models.City{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Zoom:        models.DefaultZoom,
		IsActive:    in.IsActive,
	}
	if city.Name == "" {
		p.add("Название города обязательно")
	}

	lat, latErr := parseCoordinate(in.Latitude)
	lng, lngErr := parseCoordinate(in.Longitude)
	if latErr != nil || lngErr != nil {
		p.add("Координаты должны быть числами")
	} else if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		p.add("Координаты вне допустимого диапазона")
	}
	city.Latitude, city.Longitude = lat, lng

	if z := strings.TrimSpace(in.Zoom); z != "" {
		zoom, err := strconv.Atoi(z)
		if err != nil {
			p.add("Масштаб должен быть целым числом")
		} else {
			city.Zoom = zoom
		}
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	return city, nil
}

func (s *CityService) Create(ctx context.Context, admin Identity, in CityInput) (*models.City, error) {
	if !admin.HasAdminCapability() {
		return nil, errors.Wrap(ErrForbidden, "admin capability required")
	}
	city, err := in.parse()
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(city).Error; err != nil {
		return nil, cityWriteErr("create city", city.Name, err)
	}
	s.invalidate()
	log.Info().Uint("city_id", city.ID).Str("name", city.Name).Msg("city created")
	return city, nil
}

func (s *CityService) Update(ctx context.Context, admin Identity, id uint, in CityInput) (*models.City, error) {
	if !admin.HasAdminCapability() {
		return nil, errors.Wrap(ErrForbidden, "admin capability required")
	}
	city, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	parsed, err := in.parse()
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":        parsed.Name,
		"description": parsed.Description,
		"latitude":    parsed.Latitude,
		"longitude":   parsed.Longitude,
		"zoom":        parsed.Zoom,
		"is_active":   parsed.IsActive,
	}
	if err := s.db.WithContext(ctx).Model(city).Updates(updates).Error; err != nil {
		return nil, cityWriteErr("update city", parsed.Name, err)
	}
	s.invalidate()

	parsed.ID, parsed.CreatedAt = city.ID, city.CreatedAt
	return parsed, nil
}

// Delete removes a city. Ideas in that city keep existing without one.
func (s *CityService) Delete(ctx context.Context, admin Identity, id uint) error {
	if !admin.HasAdminCapability() {
		return errors.Wrap(ErrForbidden, "admin capability required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var city models.City
		if err := tx.Select("id").First(&city, id).Error; err != nil {
			return lookupErr("load city", err)
		}
		if err := tx.Model(&models.Idea{}).Where("city_id = ?", id).Update("city_id", nil).Error; err != nil {
			return storeErr("detach ideas", err)
		}
		if err := tx.Delete(&models.City{}, id).Error; err != nil {
			return storeErr("delete city", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate()
	log.Info().Uint("city_id", id).Msg("city deleted")
	return nil
}

func (s *CityService) Get(ctx context.Context, id uint) (*models.City, error) {
	var city models.City
	if err := s.db.WithContext(ctx).First(&city, id).Error; err != nil {
		return nil, lookupErr("load city", err)
	}
	return &city, nil
}

// List returns cities ordered by name. The active list is cached.
func (s *CityService) List(ctx context.Context, activeOnly bool) ([]models.City, error) {
	key := cityCachePrefix + "all"
	if activeOnly {
		key = cityCachePrefix + "active"
		if s.cache != nil {
			if cached, ok := s.cache.Get(key).([]models.City); ok {
				return cached, nil
			}
		}
	}

	query := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var cities []models.City
	if err := query.Find(&cities).Error; err != nil {
		return nil, storeErr("list cities", err)
	}

	if activeOnly && s.cache != nil {
		s.cache.Set(key, cities, cityCacheTTL)
	}
	return cities, nil
}

func (s *CityService) invalidate() {
	if s.cache == nil {
		return
	}
	s.cache.DeletePrefix(cityCachePrefix)
	s.cache.DeletePrefix(statsCachePrefix)
}

func cityWriteErr(op, name string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrapf(ErrConflict, "city %q already exists", name)
	}
	return storeErr(op, err)
}
