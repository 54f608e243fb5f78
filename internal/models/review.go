package models

import (
	"time"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

// Review is a student's rating of a room after a confirmed stay.
// One review per application, enforced by a unique index on application_id.
type Review struct {
	ID            utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
	RoomID        utils.SixID `bson:"room_id" json:"room_id"`
	ApplicationID utils.SixID `bson:"application_id" json:"application_id"`
	AuthorID      utils.SixID `bson:"author_id" json:"author_id"`
	Rating        int         `bson:"rating" json:"rating"` // 1..5
	Comment       string      `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt     time.Time   `bson:"created_at" json:"created_at"`
	Deleted       bool        `bson:"deleted" json:"-"`
}
