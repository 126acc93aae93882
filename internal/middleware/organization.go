package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderOrganizationID carries the caller's organization. Authentication is
	// done upstream; this service trusts the header.
	HeaderOrganizationID = "X-Organization-ID"
	// HeaderAdminToken carries the shared secret for maintenance routes.
	HeaderAdminToken = "X-Admin-Token"

	ContextKeyOrganizationID = "organization_id"
)

var errNoOrganization = errors.New("organization context missing")

// OrganizationContext parses X-Organization-ID into the request context and
// rejects requests without a valid one.
func OrganizationContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.GetHeader(HeaderOrganizationID))
		if err != nil || orgID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "valid " + HeaderOrganizationID + " header required"},
			})
			return
		}
		c.Set(ContextKeyOrganizationID, orgID)
		c.Next()
	}
}

// GetOrganizationID returns the organization set by OrganizationContext.
func GetOrganizationID(c *gin.Context) (uuid.UUID, error) {
	v, ok := c.Get(ContextKeyOrganizationID)
	if !ok {
		return uuid.Nil, errNoOrganization
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, errNoOrganization
	}
	return id, nil
}

// AdminToken admits requests whose X-Admin-Token matches token. An empty
// token rejects everything.
func AdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(HeaderAdminToken)
		if token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   gin.H{"code": "FORBIDDEN", "message": "admin token required"},
			})
			return
		}
		c.Next()
	}
}
