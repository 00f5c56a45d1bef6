// Package catalog holds the strategy set mapperd ships with.
package catalog

import "time"

// Account is the source record for the account views.
type Account struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Active    bool      `json:"active"`
	Created   time.Time `json:"created"`
}

// AccountView is the public projection of an Account.
type AccountView struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Status      string `json:"status"`
}

// ProfileView is an Account rendered for a profile page. RenderedAt is shared
// by every ProfileView produced in the same scope.
type ProfileView struct {
	DisplayName string    `json:"displayName"`
	Initials    string    `json:"initials"`
	MemberDays  int       `json:"memberDays"`
	RenderedAt  time.Time `json:"renderedAt"`
}

// Source and Destination are the minimal pair: Destination copies Name.
type Source struct {
	Name string `json:"name"`
}

type Destination struct {
	Name string `json:"name"`
}
