package seed

import (
	"fmt"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultGroups are created by every seed run and kept up to date by slug.
var DefaultGroups = []models.Group{
	{Title: "Cats", Slug: "cats", Description: "Photos and stories about cats."},
	{Title: "Books", Slug: "books", Description: "Reading lists, reviews and quotes."},
	{Title: "Travel", Slug: "travel", Description: "Trips, routes and places worth the detour."},
	{Title: "Kitchen", Slug: "kitchen", Description: "Recipes and cooking experiments."},
	{Title: "Code", Slug: "code", Description: "Programming notes and war stories."},
}

// Groups upserts DefaultGroups and returns them with IDs populated.
func Groups(db *gorm.DB) ([]*models.Group, error) {
	out := make([]*models.Group, 0, len(DefaultGroups))
	for _, item := range DefaultGroups {
		group := item
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description"}),
		}).Create(&group).Error
		if err != nil {
			return nil, fmt.Errorf("seed group %s: %w", item.Slug, err)
		}
		if group.ID == 0 {
			if err := db.Where("slug = ?", item.Slug).First(&group).Error; err != nil {
				return nil, fmt.Errorf("reload group %s: %w", item.Slug, err)
			}
		}
		out = append(out, &group)
	}
	return out, nil
}
