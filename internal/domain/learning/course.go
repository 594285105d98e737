package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

func (l Level) Valid() bool {
	return l == "" || l == LevelBeginner || l == LevelIntermediate || l == LevelAdvanced
}

// LessonLayout records, once at write time, how a course arranges its
// lessons: a flat ordered list or named curriculum sections.
type LessonLayout string

const (
	LayoutFlat       LessonLayout = "flat"
	LayoutCurriculum LessonLayout = "curriculum"
)

// InstructorInfo is the denormalized instructor card shown on a course. It
// is display data only; ownership lives in CourseInstructor.
type InstructorInfo struct {
	Name       string  `json:"name,omitempty"`
	Title      string  `json:"title,omitempty"`
	Bio        string  `json:"bio,omitempty"`
	Image      string  `json:"image,omitempty"`
	Rating     float64 `json:"rating,omitempty"`
	Students   int     `json:"students,omitempty"`
	Courses    int     `json:"courses,omitempty"`
	Experience string  `json:"experience,omitempty"`
}

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`

	InstructorInfo datatypes.JSONType[InstructorInfo] `gorm:"column:instructor_info" json:"instructor_info"`

	Price         float64 `gorm:"column:price;not null;default:0" json:"price"`
	OriginalPrice float64 `gorm:"column:original_price;not null;default:0" json:"original_price"`
	Image         string  `gorm:"column:image" json:"image,omitempty"`
	Thumbnail     string  `gorm:"column:thumbnail" json:"thumbnail,omitempty"`
	Category      string  `gorm:"column:category;index" json:"category"`
	Level         Level   `gorm:"column:level;index" json:"level"`
	Duration      string  `gorm:"column:duration" json:"duration,omitempty"`
	Language      string  `gorm:"column:language;not null;default:English" json:"language"`

	Tags         datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	Learning     datatypes.JSONSlice[string] `gorm:"column:learning" json:"learning"`
	Requirements datatypes.JSONSlice[string] `gorm:"column:requirements" json:"requirements"`
	Features     datatypes.JSONSlice[string] `gorm:"column:features" json:"features"`
	Subtitles    datatypes.JSONSlice[string] `gorm:"column:subtitles" json:"subtitles"`

	IsPublished         bool `gorm:"column:is_published;not null;default:false;index" json:"is_published"`
	IsFeatured          bool `gorm:"column:is_featured;not null;default:false;index" json:"is_featured"`
	CertificateIncluded bool `gorm:"column:certificate_included;not null" json:"certificate_included"`
	LifetimeAccess      bool `gorm:"column:lifetime_access;not null" json:"lifetime_access"`

	Rating        float64      `gorm:"column:rating;not null;default:0" json:"rating"`
	StudentsCount int64        `gorm:"column:students_count;not null;default:0" json:"students_count"`
	LessonLayout  LessonLayout `gorm:"column:lesson_layout;not null;default:flat" json:"lesson_layout"`

	Instructors []CourseInstructor `gorm:"foreignKey:CourseID;references:ID" json:"-"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.LessonLayout == "" {
		c.LessonLayout = LayoutFlat
	}
	return nil
}

// InstructorIDs returns the owning instructor ids loaded on the course.
func (c *Course) InstructorIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(c.Instructors))
	for _, ci := range c.Instructors {
		out = append(out, ci.UserID)
	}
	return out
}

// CourseInstructor lists the users allowed to edit a course.
type CourseInstructor struct {
	CourseID  uuid.UUID `gorm:"type:uuid;primaryKey;column:course_id" json:"course_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id;index" json:"user_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CourseInstructor) TableName() string { return "course_instructor" }

type CurriculumSection struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"course_id"`
	Title     string           `gorm:"column:title;not null" json:"title"`
	Order     int              `gorm:"column:position;not null" json:"order"`
	Items     []CurriculumItem `gorm:"foreignKey:SectionID;references:ID" json:"items,omitempty"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
}

func (CurriculumSection) TableName() string { return "curriculum_section" }

func (s *CurriculumSection) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// CurriculumItem places a lesson in a section. A non-zero Order overrides
// the lesson's own order.
type CurriculumItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_curriculum_item_section_lesson,priority:1" json:"section_id"`
	LessonID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_curriculum_item_section_lesson,priority:2" json:"lesson_id"`
	Order     int       `gorm:"column:position;not null;default:0" json:"order"`
}

func (CurriculumItem) TableName() string { return "curriculum_item" }

func (i *CurriculumItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type CourseReview struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_review_course_user,priority:1" json:"course_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_review_course_user,priority:2" json:"user_id"`
	Name      string    `gorm:"column:name" json:"name"`
	Avatar    string    `gorm:"column:avatar" json:"avatar,omitempty"`
	Rating    int       `gorm:"column:rating;not null" json:"rating"`
	Comment   string    `gorm:"column:comment;type:text" json:"comment"`
	CreatedAt time.Time `gorm:"not null" json:"date"`
}

func (CourseReview) TableName() string { return "course_review" }

func (r *CourseReview) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

const MaxReviewComment = 1000
