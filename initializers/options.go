package initializers

import (
	"gorm.io/gorm/clause"

	"github.com/avand/docportal-backend/models"
)

// DBOptions is the database-backed durable key/value store. It backs the
// protected-directory cache so the resolved path survives across processes.
type DBOptions struct{}

func (DBOptions) Get(name string) string {
	var opt models.Option
	if err := DB.First(&opt, "name = ?", name).Error; err != nil {
		return ""
	}
	return opt.Value
}

func (DBOptions) Set(name, value string) error {
	opt := models.Option{Name: name, Value: value}
	return DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&opt).Error
}

func (DBOptions) Delete(name string) error {
	return DB.Delete(&models.Option{}, "name = ?", name).Error
}
