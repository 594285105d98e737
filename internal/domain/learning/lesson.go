package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LessonType string

const (
	LessonVideo      LessonType = "video"
	LessonText       LessonType = "text"
	LessonQuiz       LessonType = "quiz"
	LessonAssignment LessonType = "assignment"
	LessonMixed      LessonType = "mixed"
	LessonCode       LessonType = "code"
	LessonExercise   LessonType = "exercise"
	LessonResources  LessonType = "resources"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonVideo, LessonText, LessonQuiz, LessonAssignment,
		LessonMixed, LessonCode, LessonExercise, LessonResources:
		return true
	default:
		return false
	}
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type CodeBlock struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

type Resource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

type LessonMetadata struct {
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Required   bool       `json:"required"`
	Points     int        `json:"points"`
}

type Lesson struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_course_order,priority:1" json:"course_id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Description string     `gorm:"column:description;type:text" json:"description,omitempty"`
	Duration    string     `gorm:"column:duration" json:"duration,omitempty"`
	Order       int        `gorm:"column:position;not null;uniqueIndex:idx_lesson_course_order,priority:2" json:"order"`
	Type        LessonType `gorm:"column:type;not null;default:video" json:"type"`

	VideoURL  string                            `gorm:"column:video_url" json:"video_url,omitempty"`
	Thumbnail string                            `gorm:"column:thumbnail" json:"thumbnail,omitempty"`
	Content   string                            `gorm:"column:content;type:text" json:"content,omitempty"`
	Code      datatypes.JSONSlice[CodeBlock]    `gorm:"column:code" json:"code,omitempty"`
	Quiz      datatypes.JSONSlice[QuizQuestion] `gorm:"column:quiz" json:"quiz,omitempty"`
	Resources datatypes.JSONSlice[Resource]     `gorm:"column:resources" json:"resources,omitempty"`
	Metadata  datatypes.JSONType[LessonMetadata] `gorm:"column:metadata" json:"metadata"`

	IsPublished bool      `gorm:"column:is_published;not null" json:"is_published"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Type == "" {
		l.Type = LessonVideo
	}
	return nil
}

// Points awarded for completing the lesson.
func (l *Lesson) Points() int { return l.Metadata.Data().Points }
