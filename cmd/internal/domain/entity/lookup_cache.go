package entity

import "gorm.io/datatypes"

// LookupCache keeps the raw provider envelope of a successful lookup so a
// resent receipt does not cost another paid query. Failures are never cached.
type LookupCache struct {
	AccessKey string         `gorm:"primaryKey;size:44"`
	Model     string         `gorm:"not null"`
	Payload   datatypes.JSON `gorm:"not null"`
	CachedAt  int64          `gorm:"not null;index;autoCreateTime:false"`
}
