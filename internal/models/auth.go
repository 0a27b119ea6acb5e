package models

import "github.com/golang-jwt/jwt/v5"

// AdminUser is the secretariat account allowed to change the roster.
type AdminUser struct {
	Person
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// LoginRequest holds credentials for authenticating the administrator.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and the administrator profile.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        Person `json:"user"`
}

// JWTClaims holds claims embedded in access tokens.
type JWTClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
