package domain

import (
	"fmt"
	"strings"
)

// Resource is a cloud entity the user can include in a report.
type Resource struct {
	ID       string
	Name     string
	Type     string // instance type or class, e.g. t3.micro, db.t3.medium
	Service  string // ec2, rds, azure
	Region   string
	Status   string
	Provider Provider
	Details  map[string]string // platform, engine and similar provider extras
}

// Ref returns the composite reference string used in report requests.
func (r Resource) Ref() string {
	return fmt.Sprintf("%s|%s|%s", r.Service, r.ID, r.Region)
}

// ResourceRef identifies a resource inside a report request without carrying
// the full enumeration record.
type ResourceRef struct {
	Service string
	ID      string
	Region  string
}

func ParseResourceRef(s string) (ResourceRef, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return ResourceRef{}, fmt.Errorf("malformed resource reference: %q", s)
	}
	return ResourceRef{Service: parts[0], ID: parts[1], Region: parts[2]}, nil
}

// CredentialCheck is the outcome of validating account credentials. Valid=false
// with a message means the credentials were rejected; resources are included on
// success so the wizard can move straight to selection.
type CredentialCheck struct {
	Valid     bool
	Message   string
	Resources []Resource
}
