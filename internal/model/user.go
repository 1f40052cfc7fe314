// Package model defines domain entities for the application.
package model

// User is the stored user document. ID is also the partition key.
type User struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Verified bool    `json:"verified"`
	Region   *string `json:"region,omitempty"`
}

// PartitionKey returns the value the document is partitioned by.
func (u *User) PartitionKey() string {
	return u.ID
}
