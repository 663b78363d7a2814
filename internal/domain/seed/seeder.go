package seed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/course"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/faculty"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/student"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/logging"
	"github.com/goccy/go-yaml"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// File is the layout of a seed document. Faculty and course references may
// use either a hex id or the code of a record in the same file.
type File struct {
	Faculties []faculty.Input `yaml:"faculties"`
	Courses   []course.Input  `yaml:"courses"`
	Students  []student.Input `yaml:"students"`
}

// Parse decodes a seed document, rejecting unknown keys
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses a seed document from disk
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Inserter stores documents in bulk. *store.Collection satisfies it.
type Inserter[T any] interface {
	InsertMany(ctx context.Context, docs []*T) (int, error)
}

// Result counts what a seeding run did
type Result struct {
	Faculties int
	Courses   int
	Students  int
	Failed    int
}

// Seeder loads seed documents into the store
type Seeder struct {
	faculties Inserter[faculty.Faculty]
	courses   Inserter[course.Course]
	students  Inserter[student.Student]
	logger    *logging.Logger
	now       func() time.Time
}

// NewSeeder creates a new seeder
func NewSeeder(
	faculties Inserter[faculty.Faculty],
	courses Inserter[course.Course],
	students Inserter[student.Student],
	logger *logging.Logger,
) *Seeder {
	return &Seeder{
		faculties: faculties,
		courses:   courses,
		students:  students,
		logger:    logging.OrNop(logger).Named("seed"),
		now:       time.Now,
	}
}

// Seed builds every record, skipping the ones that fail validation, and
// inserts faculties, then courses, then students.
func (s *Seeder) Seed(ctx context.Context, file *File) (Result, error) {
	var res Result
	now := s.now()

	facultyCodes := make(map[string]string)
	faculties := make([]*faculty.Faculty, 0, len(file.Faculties))
	for i, in := range file.Faculties {
		f, err := faculty.New(in, now)
		if err != nil {
			s.logger.Warn("Skipping faculty", zap.Int("index", i), zap.Error(err))
			res.Failed++
			continue
		}
		if f.Code != "" {
			facultyCodes[f.Code] = f.ID.Hex()
		}
		faculties = append(faculties, f)
	}

	courseCodes := make(map[string]string)
	courses := make([]*course.Course, 0, len(file.Courses))
	for i, in := range file.Courses {
		in.Faculty = resolve(in.Faculty, facultyCodes)
		c, err := course.New(in, now)
		if err != nil {
			s.logger.Warn("Skipping course", zap.Int("index", i), zap.Error(err))
			res.Failed++
			continue
		}
		courseCodes[c.Code] = c.ID.Hex()
		courses = append(courses, c)
	}

	students := make([]*student.Student, 0, len(file.Students))
	for i, in := range file.Students {
		in.Faculty = resolve(in.Faculty, facultyCodes)
		if in.EnrolledCourses != nil {
			refs := make([]string, len(*in.EnrolledCourses))
			for j, ref := range *in.EnrolledCourses {
				refs[j] = *resolve(&ref, courseCodes)
			}
			in.EnrolledCourses = &refs
		}
		st, err := student.New(in, now)
		if err != nil {
			s.logger.Warn("Skipping student", zap.Int("index", i), zap.Error(err))
			res.Failed++
			continue
		}
		students = append(students, st)
	}

	var err error
	if res.Faculties, err = s.faculties.InsertMany(ctx, faculties); err != nil {
		return res, fmt.Errorf("seed faculties: %w", err)
	}
	if res.Courses, err = s.courses.InsertMany(ctx, courses); err != nil {
		return res, fmt.Errorf("seed courses: %w", err)
	}
	if res.Students, err = s.students.InsertMany(ctx, students); err != nil {
		return res, fmt.Errorf("seed students: %w", err)
	}

	s.logger.Info("Seeding complete",
		zap.Int("faculties", res.Faculties),
		zap.Int("courses", res.Courses),
		zap.Int("students", res.Students),
		zap.Int("failed", res.Failed))
	return res, nil
}

// resolve swaps a code for the id it was assigned in this run. Values that
// are already ids, or unknown codes, are passed through for validation.
func resolve(ref *string, codes map[string]string) *string {
	if ref == nil || *ref == "" || primitive.IsValidObjectID(*ref) {
		return ref
	}
	if id, ok := codes[strings.ToUpper(*ref)]; ok {
		return &id
	}
	return ref
}
