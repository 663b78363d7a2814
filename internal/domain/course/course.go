package course

import (
	"strings"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/shared/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the MongoDB collection courses live in
const Collection = "courses"

const (
	MinCredits     = 1
	MaxCredits     = 30
	DefaultCredits = 3
)

// Course is a course offering document
type Course struct {
	ID         primitive.ObjectID  `bson:"_id" json:"_id"`
	Title      string              `bson:"title" json:"title"`
	Code       string              `bson:"code" json:"code"`
	Credits    int                 `bson:"credits" json:"credits"`
	Faculty    *primitive.ObjectID `bson:"faculty,omitempty" json:"faculty,omitempty"`
	Instructor string              `bson:"instructor,omitempty" json:"instructor,omitempty"`
	Capacity   int                 `bson:"capacity" json:"capacity"`
	IsActive   bool                `bson:"isActive" json:"isActive"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Input carries the client supplied fields. Nil means "not supplied".
type Input struct {
	Title      *string `json:"title" yaml:"title"`
	Code       *string `json:"code" yaml:"code"`
	Credits    *int    `json:"credits" yaml:"credits"`
	Faculty    *string `json:"faculty" yaml:"faculty"`
	Instructor *string `json:"instructor" yaml:"instructor"`
	Capacity   *int    `json:"capacity" yaml:"capacity"`
	IsActive   *bool   `json:"isActive" yaml:"isActive"`
}

// New builds a course from input, filling defaults for absent fields
func New(in Input, now time.Time) (*Course, error) {
	now = now.UTC()
	c := &Course{
		ID:        primitive.NewObjectID(),
		Credits:   DefaultCredits,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	v := &utils.ValidationErrors{Entity: "Course"}

	if in.Title != nil {
		c.Title = utils.Sanitize(*in.Title)
	}
	if in.Code != nil {
		c.Code = normalizeCode(*in.Code)
	}
	if in.Credits != nil {
		c.Credits = *in.Credits
	}
	if in.Faculty != nil {
		ref, err := utils.ParseOptionalObjectID(*in.Faculty, "faculty")
		v.Add(err)
		c.Faculty = ref
	}
	if in.Instructor != nil {
		c.Instructor = utils.Sanitize(*in.Instructor)
	}
	if in.Capacity != nil {
		c.Capacity = *in.Capacity
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	c.validate(v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every field of a complete document
func (c *Course) Validate() error {
	v := &utils.ValidationErrors{Entity: "Course"}
	c.validate(v)
	return v.Err()
}

func (c *Course) validate(v *utils.ValidationErrors) {
	v.Add(utils.ValidateString(c.Title, "title", 1, utils.MaxTitleLength, true))
	v.Add(utils.ValidateCode(c.Code, true))
	v.Add(utils.ValidateRange(c.Credits, MinCredits, MaxCredits, "credits"))
	v.Add(utils.ValidateString(c.Instructor, "instructor", 0, utils.MaxNameLength, false))
	v.Add(utils.ValidateNonNegative(c.Capacity, "capacity"))
}

// Changes validates the supplied fields and returns them as a $set document
func (in Input) Changes() (bson.M, error) {
	v := &utils.ValidationErrors{Entity: "Course"}
	set := bson.M{}

	if in.Title != nil {
		title := utils.Sanitize(*in.Title)
		v.Add(utils.ValidateString(title, "title", 1, utils.MaxTitleLength, true))
		set["title"] = title
	}
	if in.Code != nil {
		code := normalizeCode(*in.Code)
		v.Add(utils.ValidateCode(code, true))
		set["code"] = code
	}
	if in.Credits != nil {
		v.Add(utils.ValidateRange(*in.Credits, MinCredits, MaxCredits, "credits"))
		set["credits"] = *in.Credits
	}
	if in.Faculty != nil {
		ref, err := utils.ParseOptionalObjectID(*in.Faculty, "faculty")
		v.Add(err)
		set["faculty"] = ref
	}
	if in.Instructor != nil {
		instructor := utils.Sanitize(*in.Instructor)
		v.Add(utils.ValidateString(instructor, "instructor", 0, utils.MaxNameLength, false))
		set["instructor"] = instructor
	}
	if in.Capacity != nil {
		v.Add(utils.ValidateNonNegative(*in.Capacity, "capacity"))
		set["capacity"] = *in.Capacity
	}
	if in.IsActive != nil {
		set["isActive"] = *in.IsActive
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(utils.Sanitize(code))
}
