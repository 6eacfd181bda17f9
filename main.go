package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/portedaporte/tractage-backend/internal/config"
	"github.com/portedaporte/tractage-backend/internal/cutter"
	"github.com/portedaporte/tractage-backend/internal/db"
	"github.com/portedaporte/tractage-backend/internal/mapview"
	"github.com/portedaporte/tractage-backend/internal/middleware"
	"github.com/portedaporte/tractage-backend/internal/observability"
	"github.com/portedaporte/tractage-backend/internal/selection"
	"github.com/portedaporte/tractage-backend/internal/stream"
	"github.com/portedaporte/tractage-backend/internal/streets"
	"github.com/portedaporte/tractage-backend/internal/zones"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	streets.Init()
	zones.Init()

	style, err := config.LoadStyle(os.Getenv("MAP_STYLE_PATH"))
	if err != nil {
		log.Fatalf("[main] bad map style config: %v", err)
	}

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Fatalf("[main] metrics registration failed: %v", err)
	}

	events := stream.NewHub()
	cutHub := cutter.NewHub(cutter.GormStore{})
	view := mapview.NewView(mapview.NewEngine(style))

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.SessionMiddleware)
	r.Use(middleware.RateLimitMiddleware(20, 40))
	r.Use(middleware.MetricsMiddleware(collector))
	r.Get("/", RootHandler)

	r.Mount("/streets", streets.SetupRoutes(events))
	r.Mount("/zones", zones.SetupRoutes(events))
	r.Mount("/selection", selection.SetupRoutes(events, collector))
	r.Mount("/cutter", cutter.SetupRoutes(cutHub, events, collector))
	r.Mount("/mapview", mapview.SetupRoutes(view, cutHub, selection.SharedController(), collector))
	r.Get("/stream", events.ServeWS)
	r.Handle("/metrics", collector.Handler())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
