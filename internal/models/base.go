package models

import (
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

// Base carries the ID shared by all persisted documents.
type Base struct {
	ID utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
}

// GenIDIfEmpty assigns a fresh ID when none is set yet.
func (m *Base) GenIDIfEmpty() {
	if m.ID.IsZero() {
		m.GenID()
	}
}

// GenID assigns a fresh random ID, replacing any existing one.
func (m *Base) GenID() {
	m.ID = utils.NewSixID()
}

func NewBase() Base {
	return Base{ID: utils.NewSixID()}
}
