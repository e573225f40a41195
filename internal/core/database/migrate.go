package database

import (
	"fmt"

	"gorm.io/gorm"

	"user-admin/internal/domain"
)

const emailIndex = "idx_users_email"

// Migrate creates the users table and the email uniqueness index. Where the
// dialect allows partial indexes only live rows take part, so a soft-deleted
// user does not block re-creating the same email. MySQL gets a plain index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("automigrate users: %w", err)
	}
	if db.Migrator().HasIndex(&domain.User{}, emailIndex) {
		return nil
	}
	stmt := "CREATE UNIQUE INDEX " + emailIndex + " ON users (email) WHERE deleted_at IS NULL"
	if db.Dialector.Name() == "mysql" {
		stmt = "CREATE UNIQUE INDEX " + emailIndex + " ON users (email)"
	}
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create %s: %w", emailIndex, err)
	}
	return nil
}
