package estimate

import (
	"time"

	"github.com/goliatone/go-formguard/pkg/domain"
)

// Attribute is one factor that contributed to an estimation.
type Attribute struct {
	Name        string  `json:"name"`
	Value       string  `json:"value"`
	Description string  `json:"description"`
	PriceFactor float64 `json:"priceFactor"`
	GradeFactor float64 `json:"gradeFactor"`
}

// Result is the outcome of Service.Estimate.
type Result struct {
	ID              string      `json:"id"`
	Domain          string      `json:"domain"`
	Price           float64     `json:"price"`
	Grade           float64     `json:"grade"`
	BaseAttributes  []Attribute `json:"baseAttributes"`
	OtherAttributes []Attribute `json:"otherAttributes"`
	Info            domain.Info `json:"info"`
	Signals         Signals     `json:"signals"`
	EstimatedAt     time.Time   `json:"estimationDate"`
}

// Signals are the externally observed figures for a domain. Zero values mean
// "not observed".
type Signals struct {
	Rank         int             `json:"rank,omitempty"`
	SearchVolume int             `json:"searchVolume,omitempty"`
	ForumPosts   int             `json:"forumPosts,omitempty"`
	Listings     int             `json:"listings,omitempty"`
	Related      map[string]bool `json:"related,omitempty"`
	Registrar    string          `json:"registrar,omitempty"`
	RegisteredAt time.Time       `json:"registeredAt"`
	ExpiresAt    time.Time       `json:"expiresAt"`
}

// Empty reports whether no signal was observed.
func (s Signals) Empty() bool {
	return s.Rank == 0 &&
		s.SearchVolume == 0 &&
		s.ForumPosts == 0 &&
		s.Listings == 0 &&
		len(s.Related) == 0 &&
		s.Registrar == "" &&
		s.RegisteredAt.IsZero() &&
		s.ExpiresAt.IsZero()
}

// Merge overlays the observed fields of other onto s.
func (s Signals) Merge(other Signals) Signals {
	if other.Rank != 0 {
		s.Rank = other.Rank
	}
	if other.SearchVolume != 0 {
		s.SearchVolume = other.SearchVolume
	}
	if other.ForumPosts != 0 {
		s.ForumPosts = other.ForumPosts
	}
	if other.Listings != 0 {
		s.Listings = other.Listings
	}
	if len(other.Related) > 0 {
		related := make(map[string]bool, len(s.Related)+len(other.Related))
		for tld, registered := range s.Related {
			related[tld] = registered
		}
		for tld, registered := range other.Related {
			related[tld] = registered
		}
		s.Related = related
	}
	if other.Registrar != "" {
		s.Registrar = other.Registrar
	}
	if !other.RegisteredAt.IsZero() {
		s.RegisteredAt = other.RegisteredAt
	}
	if !other.ExpiresAt.IsZero() {
		s.ExpiresAt = other.ExpiresAt
	}
	return s
}
