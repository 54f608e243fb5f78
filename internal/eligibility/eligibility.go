// Package eligibility decides whether a draft booking application satisfies a
// room's tenant preferences. All functions are pure: no I/O, no mutation,
// safe to call on every form edit.
package eligibility

import (
	"errors"
	"fmt"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/models"
)

// Eligibility errors. The message is the user-visible rejection reason.
var (
	ErrFamilyOnly          = errors.New("this property is available for families only")
	ErrBachelorsOnly       = errors.New("this property is available for bachelors only")
	ErrCompositionMismatch = errors.New("total males and females must equal adults")
	ErrNoFemalesAllowed    = errors.New("this property is available for male tenants only")
	ErrNoMalesAllowed      = errors.New("this property is available for female tenants only")
)

// Submission precondition errors, checked at submit time regardless of the
// eligibility outcome.
var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidDateRange = errors.New("check-out date must be after check-in date")
)

// MissingFieldError names the field absent from a submission. It matches
// ErrMissingField under errors.Is.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Validate checks a draft occupant composition against a room's tenant
// preferences and returns nil or a single rejection reason.
//
// Rule ordering matters: family-status conflicts take precedence over
// composition and gender checks, so a family-status rejection is reported
// even when the composition is also invalid. Family drafts skip the
// composition and gender checks entirely.
func Validate(prefs models.TenantPreferences, draft models.OccupantComposition) error {
	isFamily := draft.ProfileType == models.ProfileFamily

	if prefs.FamilyStatus == models.FamilyStatusFamily && !isFamily {
		return ErrFamilyOnly
	}
	if prefs.FamilyStatus == models.FamilyStatusBachelors && isFamily {
		return ErrBachelorsOnly
	}

	if isFamily {
		return nil
	}

	if draft.Males+draft.Females != draft.Adults {
		return ErrCompositionMismatch
	}
	if prefs.AllowedGender == models.GenderMale && draft.Females > 0 {
		return ErrNoFemalesAllowed
	}
	if prefs.AllowedGender == models.GenderFemale && draft.Males > 0 {
		return ErrNoMalesAllowed
	}
	return nil
}

// ValidateSubmission checks the unconditional submit-time preconditions of a
// booking request: required fields present, a sane occupant count, and a
// positive stay duration. It does not consult tenant preferences; callers run
// Validate separately so eligibility failures keep their own reasons.
func ValidateSubmission(draft models.ApplicationDraft) error {
	if draft.FullName == "" {
		return &MissingFieldError{Field: "full_name"}
	}
	if draft.Mobile == "" {
		return &MissingFieldError{Field: "mobile"}
	}
	if draft.CheckIn.IsZero() {
		return &MissingFieldError{Field: "check_in"}
	}
	if draft.CheckOut.IsZero() {
		return &MissingFieldError{Field: "check_out"}
	}
	if !draft.CheckOut.After(draft.CheckIn) {
		return ErrInvalidDateRange
	}
	if draft.Occupants.Adults < 1 {
		return &MissingFieldError{Field: "occupants.adults"}
	}
	if draft.Occupants.Children < 0 || draft.Occupants.Males < 0 || draft.Occupants.Females < 0 {
		return ErrCompositionMismatch
	}
	return nil
}

// Code maps an eligibility or precondition error to a stable machine-readable
// reason code for API responses. Unknown errors map to "invalid".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrFamilyOnly):
		return "family_only"
	case errors.Is(err, ErrBachelorsOnly):
		return "bachelors_only"
	case errors.Is(err, ErrCompositionMismatch):
		return "composition_mismatch"
	case errors.Is(err, ErrNoFemalesAllowed):
		return "no_females_allowed"
	case errors.Is(err, ErrNoMalesAllowed):
		return "no_males_allowed"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrInvalidDateRange):
		return "invalid_date_range"
	default:
		return "invalid"
	}
}
