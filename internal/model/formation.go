package model

import "time"

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

type PublicationStatus string

const (
	StatusDraft     PublicationStatus = "draft"
	StatusPublished PublicationStatus = "published"
	StatusArchived  PublicationStatus = "archived"
)

// PublicationStatuses lists the states formations, courses and blog posts move through.
var PublicationStatuses = []string{string(StatusDraft), string(StatusPublished), string(StatusArchived)}

// Formation is a training program as the catalog pages present it.
type Formation struct {
	ID            string            `json:"id,omitempty"`
	Title         string            `json:"title" validate:"required"`
	Description   string            `json:"description,omitempty"`
	Category      string            `json:"category,omitempty"`
	Trainer       string            `json:"trainer,omitempty"`
	CenterID      string            `json:"centerId,omitempty"`
	DurationHours int               `json:"durationHours,omitempty" validate:"gte=0"`
	Price         float64           `json:"price,omitempty" validate:"gte=0"`
	Level         Level             `json:"level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Capacity      int               `json:"capacity,omitempty" validate:"gte=0"`
	Status        PublicationStatus `json:"status,omitempty"`
	StartDate     *time.Time        `json:"startDate,omitempty"`
	EndDate       *time.Time        `json:"endDate,omitempty"`
	CreatedAt     time.Time         `json:"createdAt,omitzero"`
	UpdatedAt     time.Time         `json:"updatedAt,omitzero"`
}

func (f Formation) EntityID() string { return f.ID }

func (f Formation) Timestamps() (time.Time, time.Time) { return f.CreatedAt, f.UpdatedAt }

// Course is the backend's shape for the same training program.
type Course struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name" validate:"required"`
	Summary     string            `json:"summary,omitempty"`
	Domain      string            `json:"domain,omitempty"`
	Instructor  string            `json:"instructor,omitempty"`
	Center      string            `json:"center,omitempty"`
	Duration    int               `json:"duration,omitempty" validate:"gte=0"`
	Cost        float64           `json:"cost,omitempty" validate:"gte=0"`
	Difficulty  string            `json:"difficulty,omitempty"`
	MaxStudents int               `json:"maxStudents,omitempty" validate:"gte=0"`
	State       PublicationStatus `json:"status,omitempty"`
	StartsAt    *time.Time        `json:"startsAt,omitempty"`
	EndsAt      *time.Time        `json:"endsAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt,omitzero"`
	UpdatedAt   time.Time         `json:"updatedAt,omitzero"`
}

func (c Course) EntityID() string { return c.ID }

func (c Course) Timestamps() (time.Time, time.Time) { return c.CreatedAt, c.UpdatedAt }

// CourseFromFormation renames formation fields to their course counterparts.
func CourseFromFormation(f Formation) Course {
	return Course{
		ID:          f.ID,
		Name:        f.Title,
		Summary:     f.Description,
		Domain:      f.Category,
		Instructor:  f.Trainer,
		Center:      f.CenterID,
		Duration:    f.DurationHours,
		Cost:        f.Price,
		Difficulty:  string(f.Level),
		MaxStudents: f.Capacity,
		State:       f.Status,
		StartsAt:    f.StartDate,
		EndsAt:      f.EndDate,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// FormationFromCourse is the inverse of CourseFromFormation.
func FormationFromCourse(c Course) Formation {
	return Formation{
		ID:            c.ID,
		Title:         c.Name,
		Description:   c.Summary,
		Category:      c.Domain,
		Trainer:       c.Instructor,
		CenterID:      c.Center,
		DurationHours: c.Duration,
		Price:         c.Cost,
		Level:         Level(c.Difficulty),
		Capacity:      c.MaxStudents,
		Status:        c.State,
		StartDate:     c.StartsAt,
		EndDate:       c.EndsAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
