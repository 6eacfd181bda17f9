package streets

import (
	"log"

	"github.com/portedaporte/tractage-backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "tractage"); err != nil {
		log.Fatal("Failed to create tractage schema: ", err)
	}

	if err := db.DB.AutoMigrate(&Street{}, &Segment{}); err != nil {
		log.Fatal("Failed to auto-migrate street tables: ", err)
	}
}
