package migration_1

import (
	"fmt"

	"gorm.io/gorm"
)

type Turn struct {
	ImageCount   int `gorm:"default:0"`
	HistoryCount int `gorm:"default:0"`
}

func Migration(db *gorm.DB) error {
	for _, column := range []string{"image_count", "history_count"} {
		if err := db.Migrator().AddColumn(&Turn{}, column); err != nil {
			return fmt.Errorf("error adding %s column: %w", column, err)
		}

		if err := db.Model(&Turn{}).
			Where(column+" IS NULL").
			Update(column, 0).Error; err != nil {
			return fmt.Errorf("error setting default value for %s: %w", column, err)
		}
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	for _, column := range []string{"ImageCount", "HistoryCount"} {
		if err := db.Migrator().DropColumn(&Turn{}, column); err != nil {
			return fmt.Errorf("error dropping %s column: %w", column, err)
		}
	}

	return nil
}
