package student

import (
	"strings"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/shared/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the MongoDB collection students live in
const Collection = "students"

const (
	MinYear     = 1
	MaxYear     = 8
	DefaultYear = 1
	MinGPA      = 0.0
	MaxGPA      = 4.0
)

// Student is an enrolled student document
type Student struct {
	ID              primitive.ObjectID   `bson:"_id" json:"_id"`
	FirstName       string               `bson:"firstName" json:"firstName"`
	LastName        string               `bson:"lastName" json:"lastName"`
	Email           string               `bson:"email" json:"email"`
	StudentNumber   string               `bson:"studentNumber,omitempty" json:"studentNumber,omitempty"`
	Faculty         *primitive.ObjectID  `bson:"faculty,omitempty" json:"faculty,omitempty"`
	Year            int                  `bson:"year" json:"year"`
	GPA             *float64             `bson:"gpa,omitempty" json:"gpa,omitempty"`
	EnrolledCourses []primitive.ObjectID `bson:"enrolledCourses" json:"enrolledCourses"`
	IsActive        bool                 `bson:"isActive" json:"isActive"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins first and last name
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Input carries the client supplied fields. Nil means "not supplied".
// References are hex ids; an empty faculty clears the reference.
type Input struct {
	FirstName       *string   `json:"firstName" yaml:"firstName"`
	LastName        *string   `json:"lastName" yaml:"lastName"`
	Email           *string   `json:"email" yaml:"email"`
	StudentNumber   *string   `json:"studentNumber" yaml:"studentNumber"`
	Faculty         *string   `json:"faculty" yaml:"faculty"`
	Year            *int      `json:"year" yaml:"year"`
	GPA             *float64  `json:"gpa" yaml:"gpa"`
	EnrolledCourses *[]string `json:"enrolledCourses" yaml:"enrolledCourses"`
	IsActive        *bool     `json:"isActive" yaml:"isActive"`
}

// New builds a student from input, filling defaults for absent fields
func New(in Input, now time.Time) (*Student, error) {
	now = now.UTC()
	s := &Student{
		ID:              primitive.NewObjectID(),
		Year:            DefaultYear,
		EnrolledCourses: []primitive.ObjectID{},
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	v := &utils.ValidationErrors{Entity: "Student"}

	if in.FirstName != nil {
		s.FirstName = utils.Sanitize(*in.FirstName)
	}
	if in.LastName != nil {
		s.LastName = utils.Sanitize(*in.LastName)
	}
	if in.Email != nil {
		s.Email = normalizeEmail(*in.Email)
	}
	if in.StudentNumber != nil {
		s.StudentNumber = utils.Sanitize(*in.StudentNumber)
	}
	if in.Faculty != nil {
		ref, err := utils.ParseOptionalObjectID(*in.Faculty, "faculty")
		v.Add(err)
		s.Faculty = ref
	}
	if in.Year != nil {
		s.Year = *in.Year
	}
	if in.GPA != nil {
		gpa := *in.GPA
		s.GPA = &gpa
	}
	if in.EnrolledCourses != nil {
		ids, err := utils.ParseObjectIDs(*in.EnrolledCourses, "enrolledCourses")
		v.Add(err)
		if ids != nil {
			s.EnrolledCourses = ids
		}
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}

	s.validate(v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks every field of a complete document
func (s *Student) Validate() error {
	v := &utils.ValidationErrors{Entity: "Student"}
	s.validate(v)
	return v.Err()
}

func (s *Student) validate(v *utils.ValidationErrors) {
	v.Add(utils.ValidateName(s.FirstName, "firstName"))
	v.Add(utils.ValidateName(s.LastName, "lastName"))
	v.Add(utils.ValidateEmail(s.Email, true))
	v.Add(validateStudentNumber(s.StudentNumber))
	v.Add(utils.ValidateRange(s.Year, MinYear, MaxYear, "year"))
	if s.GPA != nil {
		v.Add(utils.ValidateRange(*s.GPA, MinGPA, MaxGPA, "gpa"))
	}
}

// Changes validates the supplied fields and returns them as a $set document
func (in Input) Changes() (bson.M, error) {
	v := &utils.ValidationErrors{Entity: "Student"}
	set := bson.M{}

	if in.FirstName != nil {
		name := utils.Sanitize(*in.FirstName)
		v.Add(utils.ValidateName(name, "firstName"))
		set["firstName"] = name
	}
	if in.LastName != nil {
		name := utils.Sanitize(*in.LastName)
		v.Add(utils.ValidateName(name, "lastName"))
		set["lastName"] = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		v.Add(utils.ValidateEmail(email, true))
		set["email"] = email
	}
	if in.StudentNumber != nil {
		number := utils.Sanitize(*in.StudentNumber)
		v.Add(validateStudentNumber(number))
		set["studentNumber"] = number
	}
	if in.Faculty != nil {
		ref, err := utils.ParseOptionalObjectID(*in.Faculty, "faculty")
		v.Add(err)
		set["faculty"] = ref
	}
	if in.Year != nil {
		v.Add(utils.ValidateRange(*in.Year, MinYear, MaxYear, "year"))
		set["year"] = *in.Year
	}
	if in.GPA != nil {
		v.Add(utils.ValidateRange(*in.GPA, MinGPA, MaxGPA, "gpa"))
		set["gpa"] = *in.GPA
	}
	if in.EnrolledCourses != nil {
		ids, err := utils.ParseObjectIDs(*in.EnrolledCourses, "enrolledCourses")
		v.Add(err)
		set["enrolledCourses"] = ids
	}
	if in.IsActive != nil {
		set["isActive"] = *in.IsActive
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(utils.Sanitize(email))
}

func validateStudentNumber(number string) *utils.FieldError {
	if err := utils.ValidateString(number, "studentNumber", 1, utils.MaxStudentNumberLength, false); err != nil {
		return err
	}
	if number != "" && !utils.StudentNumberPattern.MatchString(number) {
		return utils.Invalid("studentNumber", "must contain only letters, digits and hyphens")
	}
	return nil
}
