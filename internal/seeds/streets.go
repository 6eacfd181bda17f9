package seeds

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/portedaporte/tractage-backend/internal/db"
	"github.com/portedaporte/tractage-backend/internal/streets"
	"gorm.io/gorm"
)

func SeedStreets() error {
	var list []streets.Street

	file, err := os.ReadFile("internal/seeds/data/streets.json")
	if err != nil {
		return fmt.Errorf("could not read streets.json: %w", err)
	}

	if err := json.Unmarshal(file, &list); err != nil {
		return fmt.Errorf("failed to parse streets.json: %w", err)
	}

	for _, street := range list {
		var existing streets.Street
		err := db.DB.First(&existing, "id = ?", street.ID).Error

		if err == nil {
			log.Printf("⚠️ Street exists, skipping: %s", street.Name)
			continue
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("DB error on street %s: %w", street.Name, err)
		}

		for i := range street.Segments {
			if street.Segments[i].ID == uuid.Nil {
				street.Segments[i].ID = uuid.New()
			}
			street.Segments[i].StreetID = street.ID
		}

		if err := db.DB.Create(&street).Error; err != nil {
			return fmt.Errorf("failed to create street %s: %w", street.Name, err)
		}
	}

	log.Printf("✅ Seeded %d streets", len(list))
	return nil
}
