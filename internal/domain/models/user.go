package models

import "time"

// RoleAdmin — единственная роль в системе.
const RoleAdmin = "admin"

// User представляет учётную запись администратора
type User struct {
	ID        int64
	Email     string
	PassHash  []byte
	Role      string
	CreatedAt time.Time
}
