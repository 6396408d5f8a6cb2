package models

import "time"

// FilterOptions lists the values a client can pick for the pricing filters.
type FilterOptions struct {
	Categories  []string  `json:"categories"`
	Brands      []string  `json:"brands"`
	Stores      []string  `json:"stores"`
	Periods     []string  `json:"periods"`
	RefreshedAt time.Time `json:"refreshedAt"`
}
