package main

import (
	"flag"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	email := flag.String("email", "", "account email (required)")
	name := flag.String("name", "", "display name (required)")
	password := flag.String("password", "", "plaintext password (required)")
	role := flag.String("role", "operator", "account role: operator or admin")
	flag.Parse()

	if *email == "" || *name == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *role != "operator" && *role != "admin" {
		log.Fatalf("invalid role %q, must be operator or admin", *role)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("🔌 Connected to database")

	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", *email); err != nil {
		log.Fatalf("❌ Error checking for user %s: %v", *email, err)
	}
	if exists {
		log.Fatalf("⚠️  User already exists: %s", *email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := map[string]interface{}{
		"id":       uuid.New().String(),
		"email":    *email,
		"password": string(hash),
		"name":     *name,
		"role":     *role,
	}

	query := `
		INSERT INTO users (id, email, password, name, role)
		VALUES (:id, :email, :password, :name, :role)
	`
	if _, err := db.NamedExec(query, user); err != nil {
		log.Fatalf("❌ Failed to create user %s: %v", *email, err)
	}

	log.Printf("✅ Created %s user: %s", *role, *email)
}
