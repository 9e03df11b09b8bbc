package auth

import (
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID         uuid.UUID
	CustomerNumber string
	Role           enums.Role
	JTI            string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID         uuid.UUID  `json:"user_id"`
	CustomerNumber string     `json:"customer_number,omitempty"`
	Role           enums.Role `json:"role"`
	jwt.RegisteredClaims
}
