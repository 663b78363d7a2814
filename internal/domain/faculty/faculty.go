package faculty

import (
	"strings"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/shared/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the MongoDB collection faculties live in
const Collection = "faculties"

// DefaultName is used when a faculty is created without a name
const DefaultName = "New Faculty"

// Faculty is an academic faculty document
type Faculty struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	Name           string             `bson:"name" json:"name"`
	Code           string             `bson:"code,omitempty" json:"code,omitempty"`
	Dean           string             `bson:"dean,omitempty" json:"dean,omitempty"`
	Budget         float64            `bson:"budget" json:"budget"`
	NumDepartments int                `bson:"numDepartments" json:"numDepartments"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Input carries the client supplied fields. Nil means "not supplied".
type Input struct {
	Name           *string  `json:"name" yaml:"name"`
	Code           *string  `json:"code" yaml:"code"`
	Dean           *string  `json:"dean" yaml:"dean"`
	Budget         *float64 `json:"budget" yaml:"budget"`
	NumDepartments *int     `json:"numDepartments" yaml:"numDepartments"`
	IsActive       *bool    `json:"isActive" yaml:"isActive"`
}

// New builds a faculty from input, filling defaults for absent fields
func New(in Input, now time.Time) (*Faculty, error) {
	now = now.UTC()
	f := &Faculty{
		ID:        primitive.NewObjectID(),
		Name:      DefaultName,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if in.Name != nil {
		if name := utils.Sanitize(*in.Name); name != "" {
			f.Name = name
		}
	}
	if in.Code != nil {
		f.Code = normalizeCode(*in.Code)
	}
	if in.Dean != nil {
		f.Dean = utils.Sanitize(*in.Dean)
	}
	if in.Budget != nil {
		f.Budget = *in.Budget
	}
	if in.NumDepartments != nil {
		f.NumDepartments = *in.NumDepartments
	}
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks every field of a complete document
func (f *Faculty) Validate() error {
	v := &utils.ValidationErrors{Entity: "Faculty"}
	v.Add(utils.ValidateName(f.Name, "name"))
	v.Add(utils.ValidateCode(f.Code, false))
	v.Add(utils.ValidateString(f.Dean, "dean", 0, utils.MaxNameLength, false))
	v.Add(utils.ValidateNonNegative(f.Budget, "budget"))
	v.Add(utils.ValidateNonNegative(f.NumDepartments, "numDepartments"))
	return v.Err()
}

// Changes validates the supplied fields and returns them as a $set document
func (in Input) Changes() (bson.M, error) {
	v := &utils.ValidationErrors{Entity: "Faculty"}
	set := bson.M{}

	if in.Name != nil {
		name := utils.Sanitize(*in.Name)
		v.Add(utils.ValidateName(name, "name"))
		set["name"] = name
	}
	if in.Code != nil {
		code := normalizeCode(*in.Code)
		v.Add(utils.ValidateCode(code, false))
		set["code"] = code
	}
	if in.Dean != nil {
		dean := utils.Sanitize(*in.Dean)
		v.Add(utils.ValidateString(dean, "dean", 0, utils.MaxNameLength, false))
		set["dean"] = dean
	}
	if in.Budget != nil {
		v.Add(utils.ValidateNonNegative(*in.Budget, "budget"))
		set["budget"] = *in.Budget
	}
	if in.NumDepartments != nil {
		v.Add(utils.ValidateNonNegative(*in.NumDepartments, "numDepartments"))
		set["numDepartments"] = *in.NumDepartments
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
