package database

import "dajtovon/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Content{},
		&models.Comment{},
		&models.Reaction{},
		&models.Notification{},
	}
}
