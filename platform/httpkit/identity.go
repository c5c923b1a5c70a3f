package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the authenticated company behind a request. Companies are
// the tenants, so the subject and the tenant are the same id.
type Identity interface {
	CompanyID() uuid.UUID
	CompanyName() string
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	companyID     uuid.UUID
	companyName   string
	roles         []string
	authenticated bool
}

func (i *identity) CompanyID() uuid.UUID  { return i.companyID }
func (i *identity) CompanyName() string   { return i.companyName }
func (i *identity) Roles() []string       { return i.roles }
func (i *identity) IsAuthenticated() bool { return i.authenticated }

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

// GetIdentity reads the identity set by AuthRequired.
func GetIdentity(c *gin.Context) Identity {
	raw, ok := c.Get(ContextCompanyIDKey)
	if !ok {
		return &identity{}
	}
	companyID, ok := raw.(uuid.UUID)
	if !ok || companyID == uuid.Nil {
		return &identity{}
	}

	var roles []string
	if v, ok := c.Get(ContextRolesKey); ok {
		roles, _ = v.([]string)
	}
	name := c.GetString(ContextCompanyNameKey)

	return &identity{
		companyID:     companyID,
		companyName:   name,
		roles:         roles,
		authenticated: true,
	}
}

// MustGetIdentity aborts with 401 and returns nil when unauthenticated.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil
	}
	return id
}

// MustGetTenantID is the common shortcut for handlers scoped by company.
func MustGetTenantID(c *gin.Context) (uuid.UUID, bool) {
	id := MustGetIdentity(c)
	if id == nil {
		return uuid.Nil, false
	}
	return id.CompanyID(), true
}
