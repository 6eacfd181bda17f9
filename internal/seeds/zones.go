package seeds

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/portedaporte/tractage-backend/internal/db"
	"github.com/portedaporte/tractage-backend/internal/zones"
	"gorm.io/gorm"
)

func SeedZones() error {
	var list []zones.Zone

	file, err := os.ReadFile("internal/seeds/data/zones.json")
	if err != nil {
		return fmt.Errorf("could not read zones.json: %w", err)
	}

	if err := json.Unmarshal(file, &list); err != nil {
		return fmt.Errorf("failed to parse zones.json: %w", err)
	}

	for _, zone := range list {
		var existing zones.Zone
		err := db.DB.First(&existing, "id = ?", zone.ID).Error

		if err == nil {
			log.Printf("⚠️ Zone exists, skipping: %s", zone.Name)
			continue
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("DB error on zone %s: %w", zone.Name, err)
		}

		if err := db.DB.Create(&zone).Error; err != nil {
			return fmt.Errorf("failed to create zone %s: %w", zone.Name, err)
		}
	}

	log.Printf("✅ Seeded %d zones", len(list))
	return nil
}
