package main

import (
	"fmt"
	"log"
	"os"

	"iheartcare/common/database"
	"iheartcare/internal/config"
	"iheartcare/internal/migrations"
)

// Applies the embedded schema, or the SQL file given as the first argument.
func main() {
	sqlContent := migrations.Schema
	source := "embedded schema"
	if len(os.Args) > 1 {
		b, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to read migration file: %v", err)
		}
		sqlContent = string(b)
		source = os.Args[1]
	}

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s\n", cfg.Database.Database)
	fmt.Printf("Applying %s\n\n", source)

	statements := migrations.Statements(sqlContent)
	for i, stmt := range statements {
		fmt.Printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Failed to execute statement %d: %v\nStatement: %s", i+1, err, stmt[:min(100, len(stmt))])
		}
	}

	fmt.Println("Migration completed successfully")
}
