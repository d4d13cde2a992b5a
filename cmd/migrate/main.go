package main

import (
	"fmt"
	"log"
	"os"

	"skyrescue-backend/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if err := database.SeedUsers(db); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	// Query and display summary
	var result struct {
		Users      int `db:"users"`
		Detections int `db:"detections"`
		Drones     int `db:"drones"`
		Hazards    int `db:"hazards"`
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM detections) AS detections,
			(SELECT COUNT(*) FROM drone_status) AS drones,
			(SELECT COUNT(*) FROM hazards) AS hazards
	`

	if err := db.Get(&result, query); err != nil {
		log.Fatalf("Failed to query summary: %v", err)
	}

	fmt.Println("\n============================================================")
	fmt.Println("MIGRATION SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("Users:               %d\n", result.Users)
	fmt.Printf("Stored detections:   %d\n", result.Detections)
	fmt.Printf("Known drones:        %d\n", result.Drones)
	fmt.Printf("Recorded hazards:    %d\n", result.Hazards)
	fmt.Println("============================================================")
}
