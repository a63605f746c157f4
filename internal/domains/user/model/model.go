package model

import (
	"messbook/permissions"
	"messbook/shared/model"
	"time"
)

const (
	TableName  = "users"
	EntityName = "user"

	FieldID        = "id"
	FieldName      = "name"
	FieldEmail     = "email"
	FieldMobile    = "mobile"
	FieldPassword  = "password"
	FieldRole      = "role"
	FieldIsActive  = "is_active"
	FieldLastLogin = "last_login"
)

type User struct {
	ID        string           `db:"id"`
	Name      string           `db:"name"`
	Email     string           `db:"email"`
	Mobile    string           `db:"mobile"`
	Password  string           `db:"password"`
	Role      permissions.Role `db:"role"`
	IsActive  bool             `db:"is_active"`
	LastLogin *time.Time       `db:"last_login"`
	model.Metadata
}
