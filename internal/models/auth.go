package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an employee.
// Sign-in verifies the employee number against the registered birth
// date, so no password is stored.
type LoginRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	BirthDate  string `json:"birth_date" validate:"required"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated employee in responses.
type UserInfo struct {
	ID         string       `json:"id"`
	EmployeeID string       `json:"employee_id"`
	Name       string       `json:"name"`
	Department string       `json:"department"`
	Role       EmployeeRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID     string       `json:"user_id"`
	EmployeeID string       `json:"employee_id"`
	Role       EmployeeRole `json:"role"`
	Department string       `json:"department"`
	Name       string       `json:"name"`
	jwt.RegisteredClaims
}
