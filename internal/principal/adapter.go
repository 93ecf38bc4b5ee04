package principal

import (
	authmw "audittrail/pkg/platform/middleware/auth"
)

// MiddlewareAdapter lets the auth middleware validate tokens without
// importing this package.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*authmw.PrincipalClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	return &authmw.PrincipalClaims{
		UserID: userID,
		Name:   claims.Name,
		Email:  claims.Email,
		SiteID: claims.SiteID,
	}, nil
}
