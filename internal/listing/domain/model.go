package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type ListingKind string

const (
	KindSale     ListingKind = "sale"
	KindExchange ListingKind = "exchange"
	KindBoth     ListingKind = "both"
)

func (k ListingKind) IsValid() bool {
	switch k {
	case KindSale, KindExchange, KindBoth:
		return true
	}
	return false
}

// RequiresPrice reports whether listings of this kind must carry a price.
func (k ListingKind) RequiresPrice() bool {
	return k == KindSale || k == KindBoth
}

type Listing struct {
	ID            string      `json:"id"`
	OwnerID       string      `json:"owner_id"`
	CategoryID    string      `json:"category_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Kind          ListingKind `json:"kind"`
	Price         *float64    `json:"price,omitempty"`
	PreviousPrice *float64    `json:"previous_price,omitempty"`
	Location      string      `json:"location"`
	Images        []string    `json:"images"`
	Active        bool        `json:"active"`
	Deleted       bool        `json:"deleted"`
	Views         int64       `json:"views"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ListingInput carries the owner-editable fields for create.
type ListingInput struct {
	CategoryID  string      `json:"category_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Kind        ListingKind `json:"kind"`
	Price       *float64    `json:"price,omitempty"`
	Location    string      `json:"location"`
	Images      []string    `json:"images,omitempty"`
}

// ListingPatch carries optional edits; nil fields are left unchanged.
// ClearPrice removes the price, which is only valid for exchange listings.
type ListingPatch struct {
	CategoryID  *string      `json:"category_id,omitempty"`
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Kind        *ListingKind `json:"kind,omitempty"`
	Price       *float64     `json:"price,omitempty"`
	ClearPrice  bool         `json:"clear_price,omitempty"`
	Location    *string      `json:"location,omitempty"`
	Images      []string     `json:"images,omitempty"`
}

// NewListing builds an active listing owned by ownerID. CreatedAt is left to the store.
func NewListing(ownerID string, in ListingInput) (*Listing, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	l := &Listing{
		OwnerID:     ownerID,
		CategoryID:  strings.TrimSpace(in.CategoryID),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Kind:        in.Kind,
		Price:       in.Price,
		Location:    strings.TrimSpace(in.Location),
		Images:      append([]string{}, in.Images...),
		Active:      true,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks the invariants that must hold before any write.
func (l *Listing) Validate() error {
	if l.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if l.CategoryID == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if !l.Kind.IsValid() {
		return fmt.Errorf("%w: unknown listing kind %q", ErrInvalidInput, l.Kind)
	}
	if l.Kind.RequiresPrice() && l.Price == nil {
		return fmt.Errorf("%w: price is required for %s listings", ErrInvalidInput, l.Kind)
	}
	if l.Price != nil && *l.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if l.Deleted && l.Active {
		return fmt.Errorf("%w: deleted listing cannot be active", ErrInvalidInput)
	}
	return nil
}

// SetPrice applies the one-slot price history: a drop remembers the old
// price, a rise or removal forgets it, an unchanged price leaves it alone.
// It reports whether the price dropped.
func (l *Listing) SetPrice(price *float64) bool {
	old := l.Price
	switch {
	case price == nil:
		l.PreviousPrice = nil
	case old == nil:
	case *price < *old:
		prev := *old
		l.PreviousPrice = &prev
	case *price > *old:
		l.PreviousPrice = nil
	}
	if price != nil {
		p := *price
		l.Price = &p
	} else {
		l.Price = nil
	}
	return old != nil && price != nil && *price < *old
}

// Validate rejects a patch that both sets and clears the price.
func (p ListingPatch) Validate() error {
	if p.ClearPrice && p.Price != nil {
		return fmt.Errorf("%w: price and clear_price are mutually exclusive", ErrInvalidInput)
	}
	return nil
}

// Apply merges a patch into the listing and reports whether the price dropped.
// The result still has to pass Validate.
func (l *Listing) Apply(p ListingPatch) bool {
	if p.CategoryID != nil {
		l.CategoryID = strings.TrimSpace(*p.CategoryID)
	}
	if p.Title != nil {
		l.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Kind != nil {
		l.Kind = *p.Kind
	}
	if p.Location != nil {
		l.Location = strings.TrimSpace(*p.Location)
	}
	if p.Images != nil {
		l.Images = append([]string{}, p.Images...)
	}
	switch {
	case p.ClearPrice:
		l.SetPrice(nil)
	case p.Price != nil:
		return l.SetPrice(p.Price)
	}
	return false
}

// SoftDelete marks the listing deleted; a deleted listing is never active.
func (l *Listing) SoftDelete() {
	l.Deleted = true
	l.Active = false
}

// IsLive reports whether the listing may appear on read paths.
func (l *Listing) IsLive() bool {
	return l.Active && !l.Deleted
}

type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Icon     string `json:"icon,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	if !slugPattern.MatchString(c.Slug) {
		return fmt.Errorf("%w: invalid category slug %q", ErrInvalidInput, c.Slug)
	}
	return nil
}

type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ListingID string    `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingEvent is published on listing lifecycle changes.
type ListingEvent struct {
	ListingID  string    `json:"listing_id"`
	OwnerID    string    `json:"owner_id"`
	CategoryID string    `json:"category_id"`
	OldPrice   *float64  `json:"old_price,omitempty"`
	NewPrice   *float64  `json:"new_price,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	SubjectListingCreated      = "listing.created"
	SubjectListingUpdated      = "listing.updated"
	SubjectListingDeleted      = "listing.deleted"
	SubjectListingPriceDropped = "listing.price_dropped"
)
