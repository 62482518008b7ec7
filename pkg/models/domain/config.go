package domain

import "fmt"

// Profile is a stored account entry from the credentials file, referenced by
// name from the wizard's credentials step or the CLI.
type Profile struct {
	Name     string
	Provider Provider
}

func (p Profile) String() string {
	return fmt.Sprintf("%s:%s", p.Provider, p.Name)
}
