package activity

import "time"

// Generated content contract, v2: a staged lesson plan plus the activity
// set, always both present. The v1 flat-activities shape is gone; clients
// never branch on field presence.

type MultipleChoiceQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

type Activities struct {
	Summary        string                   `json:"summary"`
	Objectives     []string                 `json:"objectives"`
	Exercises      []string                 `json:"exercises"`
	MultipleChoice []MultipleChoiceQuestion `json:"multiple_choice"`
	EssayQuestions []string                 `json:"essay_questions"`
}

type LessonStage struct {
	Stage       string   `json:"stage"`
	Duration    string   `json:"duration"`
	Description string   `json:"description"`
	Resources   []string `json:"resources"`
}

type LessonPlan struct {
	DurationTotal     string        `json:"duration_total"`
	Stages            []LessonStage `json:"stages"`
	RequiredMaterials []string      `json:"required_materials"`
	AssessmentMethods []string      `json:"assessment_methods"`
	TeacherTips       []string      `json:"teacher_tips"`
}

type Content struct {
	LessonPlan LessonPlan `json:"lesson_plan"`
	Activities Activities `json:"activities"`
}

type Metadata struct {
	ContentLength     int       `json:"contentLength"`
	ExtractedFromFile bool      `json:"extractedFromFile"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// MaterialRef is the summary of the source material echoed back with the
// generated content.
type MaterialRef struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Discipline string `json:"discipline"`
	Grade      string `json:"grade"`
}

// Generation is one AI generation result; ephemeral, displayed until the
// next regeneration overwrites it.
type Generation struct {
	Material MaterialRef `json:"material"`
	Content  Content     `json:"content"`
	Metadata Metadata    `json:"metadata"`
}
