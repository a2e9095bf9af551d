package main

import (
	"log"
)

// setupDatabase creates tables for the -migrate command
func setupDatabase() error {
	db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	log.Println("Creating database schema...")
	if err := ensureSchema(db); err != nil {
		return err
	}
	log.Println("Schema created successfully")

	return nil
}
