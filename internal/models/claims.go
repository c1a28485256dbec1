package models

import "github.com/golang-jwt/jwt/v5"

// Service roles accepted on the engine's API.
const (
	RoleDashboard = "dashboard"
	RoleAdmin     = "admin"
)

// ServiceClaims are the JWT claims carried by service tokens issued to the
// dashboard and operator tooling. The engine does not manage user sessions;
// callers authenticate as services.
type ServiceClaims struct {
	jwt.RegisteredClaims
	Service string `json:"service"`
	Role    string `json:"role"`
}
