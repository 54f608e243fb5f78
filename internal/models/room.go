package models

import (
	"time"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

// FamilyStatus restricts which occupant profiles a landlord accepts.
type FamilyStatus string

const (
	FamilyStatusAny       FamilyStatus = "any"
	FamilyStatusBachelors FamilyStatus = "bachelors"
	FamilyStatusFamily    FamilyStatus = "family"
)

// AllowedGender restricts which genders a landlord accepts for non-family lets.
type AllowedGender string

const (
	GenderAny    AllowedGender = "any"
	GenderMale   AllowedGender = "male"
	GenderFemale AllowedGender = "female"
)

// TenantPreferences is the landlord-declared tenant filter on a room.
// Eligibility of a draft application is decided solely from these two fields
// combined with the applicant's occupant composition.
type TenantPreferences struct {
	FamilyStatus  FamilyStatus  `bson:"family_status" json:"family_status"`
	AllowedGender AllowedGender `bson:"allowed_gender" json:"allowed_gender"`
}

// Money is a display amount with its currency.
type Money struct {
	Value        float64 `bson:"value" json:"value"`
	CurrencyCode string  `bson:"currency_code" json:"currency_code"`
}

// GeoJSON is a GeoJSON geometry, used for room coordinates.
type GeoJSON struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [lon, lat]
}

// Room is a rentable room listing.
type Room struct {
	ID            utils.SixID       `bson:"_id,omitempty" json:"id,omitempty"`
	LandlordID    utils.SixID       `bson:"landlord_id" json:"landlord_id"`
	Title         string            `bson:"title" json:"title"`
	Description   string            `bson:"description" json:"description"`
	City          string            `bson:"city" json:"city"`
	CountryCode   string            `bson:"country_code" json:"country_code"`
	Location      *GeoJSON          `bson:"location,omitempty" json:"location,omitempty"`
	MonthlyRent   Money             `bson:"monthly_rent" json:"monthly_rent"`
	MinimumStay   int               `bson:"minimum_stay_months" json:"minimum_stay_months"`
	Preferences   TenantPreferences `bson:"preferences" json:"preferences"`
	Photos        []string          `bson:"photos" json:"photos"` // S3 keys
	IsDraft       bool              `bson:"is_draft" json:"is_draft"`
	PublishedAt   *time.Time        `bson:"published_at,omitempty" json:"published_at,omitempty"`
	Hidden        bool              `bson:"hidden" json:"hidden"`
	SuspensionID  *utils.SixID      `bson:"suspension,omitempty" json:"suspension,omitempty"`
	ReviewCount   int               `bson:"review_count" json:"review_count"`
	AverageRating float64           `bson:"average_rating" json:"average_rating"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at" json:"updated_at"`
	Deleted       bool              `bson:"deleted" json:"-"`
}

// RoomSuspension records an admin suspension of a room listing.
type RoomSuspension struct {
	ID          utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
	RoomID      utils.SixID `bson:"room_id" json:"room_id"`
	AdminUserID utils.SixID `bson:"admin_user_id" json:"admin_user_id"`
	Reason      string      `bson:"reason" json:"reason"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
	LiftedAt    *time.Time  `bson:"lifted_at,omitempty" json:"lifted_at,omitempty"`
	Deleted     bool        `bson:"deleted" json:"-"`
}
