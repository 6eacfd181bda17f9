package main

import (
	"log"

	"github.com/portedaporte/tractage-backend/internal/db"
	"github.com/portedaporte/tractage-backend/internal/seeds"
	"github.com/portedaporte/tractage-backend/internal/streets"
	"github.com/portedaporte/tractage-backend/internal/zones"
)

func main() {
	db.Connect()
	streets.Init()
	zones.Init()

	if err := seeds.SeedAll(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
