package gorm

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/server/store"
)

// Ensure RegionsStore implements store.RegionsStore
var _ store.RegionsStore = (*RegionsStore)(nil)

// RegionsStore implements store.RegionsStore using GORM
type RegionsStore struct {
	db *gorm.DB
}

// NewRegionsStore creates a new RegionsStore
func NewRegionsStore(db *gorm.DB) *RegionsStore {
	return &RegionsStore{db: db}
}

// List returns all known regions.
func (s *RegionsStore) List() ([]store.Region, error) {
	var records []model.Region
	if err := s.db.Order("region_name asc").Find(&records).Error; err != nil {
		return nil, err
	}

	regions := make([]store.Region, 0, len(records))
	for _, r := range records {
		regions = append(regions, store.Region{
			Name:        r.RegionName,
			Description: r.Description,
		})
	}
	return regions, nil
}

// Exists reports whether a region name is in the reference table.
func (s *RegionsStore) Exists(name string) (bool, error) {
	var count int64
	tx := s.db.Model(&model.Region{}).Where("region_name = ?", name).Count(&count)
	if tx.Error != nil {
		return false, tx.Error
	}
	return count > 0, nil
}

// Seed inserts regions, ignoring names already present.
func (s *RegionsStore) Seed(regions []store.Region) error {
	if len(regions) == 0 {
		return nil
	}

	records := make([]model.Region, 0, len(regions))
	for _, r := range regions {
		records = append(records, model.Region{
			RegionName:  r.Name,
			Description: r.Description,
		})
	}

	return s.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "region_name"}},
			DoNothing: true,
		}).
		Create(&records).Error
}
