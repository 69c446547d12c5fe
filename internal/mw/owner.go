package mw

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Headers set by the authenticating proxy in front of the API.
const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
)

const ownerKey = "owner"

// Owner is the caller identity forwarded by the auth layer.
type Owner struct {
	UserID int64
	Admin  bool
}

// Identify reads the caller identity headers. Requests without them are
// treated as unauthenticated and left unrestricted.
func Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user id"})
			return
		}
		c.Set(ownerKey, Owner{
			UserID: id,
			Admin:  strings.EqualFold(c.GetHeader(UserRoleHeader), "admin"),
		})
		c.Next()
	}
}

// RequireAdmin rejects callers that identified as a non-admin user.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if o, ok := OwnerFrom(c); ok && !o.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// OwnerFrom returns the identity stored by Identify.
func OwnerFrom(c *gin.Context) (Owner, bool) {
	v, ok := c.Get(ownerKey)
	if !ok {
		return Owner{}, false
	}
	o, ok := v.(Owner)
	return o, ok
}

// OwnerScope returns the user id that reads and deletes are restricted to,
// or nil for admins and unauthenticated callers.
func OwnerScope(c *gin.Context) *int64 {
	o, ok := OwnerFrom(c)
	if !ok || o.Admin {
		return nil
	}
	id := o.UserID
	return &id
}
