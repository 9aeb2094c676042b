// File: internal/model/user.go
package model

import "time"

type User struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DBStatus 是 /db-status 查詢的結果
type DBStatus struct {
	CurrentTime time.Time `json:"current_time"`
	DBVersion   string    `json:"db_version"`
}
