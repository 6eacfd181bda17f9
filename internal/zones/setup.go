package zones

import (
	"log"

	"github.com/portedaporte/tractage-backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "tractage"); err != nil {
		log.Fatal("Failed to create tractage schema: ", err)
	}

	if err := db.DB.AutoMigrate(&Zone{}, &Campaign{}, &CampaignSegment{}); err != nil {
		log.Fatal("Failed to auto-migrate zone tables: ", err)
	}
}
