package models

import "gorm.io/gorm"

func AutoMigrateAll(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Platform{},
		&PlatformUser{},
		&Client{},
		&Loan{},
		&Lawyer{},
		&LawyerSchedule{},
		&Conversation{},
		&Message{},
		&Notification{},
	)
	if err != nil {
		return err
	}
	return nil
}
