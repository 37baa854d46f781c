package material

import "time"

// Type and Difficulty mirror the backend enums.
type (
	Type       string
	Difficulty string
)

const (
	TypeLessonPlan   Type = "LESSON_PLAN"
	TypeExercise     Type = "EXERCISE"
	TypePresentation Type = "PRESENTATION"
	TypeVideo        Type = "VIDEO"
	TypeDocument     Type = "DOCUMENT"
	TypeWorksheet    Type = "WORKSHEET"
	TypeQuiz         Type = "QUIZ"
	TypeProject      Type = "PROJECT"
	TypeGame         Type = "GAME"
	TypeOther        Type = "OTHER"

	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Display labels (pt-BR), keyed by enum value.
var (
	TypeLabels = map[Type]string{
		TypeLessonPlan:   "Plano de Aula",
		TypeExercise:     "Exercício",
		TypePresentation: "Apresentação",
		TypeVideo:        "Vídeo",
		TypeDocument:     "Documento",
		TypeWorksheet:    "Folha de Atividades",
		TypeQuiz:         "Quiz/Questionário",
		TypeProject:      "Projeto",
		TypeGame:         "Jogo Educativo",
		TypeOther:        "Outros",
	}

	DifficultyLabels = map[Difficulty]string{
		DifficultyEasy:   "Fácil",
		DifficultyMedium: "Médio",
		DifficultyHard:   "Difícil",
	}

	// Subjects and GradeLevels are the option lists offered by forms.
	Subjects = []string{
		"Matemática", "Português", "Ciências", "História", "Geografia",
		"Inglês", "Educação Física", "Artes", "Filosofia", "Sociologia",
		"Física", "Química", "Biologia",
	}

	GradeLevels = []string{
		"1º Ano", "2º Ano", "3º Ano", "4º Ano", "5º Ano", "6º Ano",
		"7º Ano", "8º Ano", "9º Ano",
		"1ª Série - Ensino Médio", "2ª Série - Ensino Médio", "3ª Série - Ensino Médio",
	}
)

// Author is the nested user summary carried on a Material.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	School string `json:"school,omitempty"`
}

// Material is an uploaded educational resource record, server-authoritative:
// ratings and download counts only change here after cache invalidation.
type Material struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Discipline        string     `json:"discipline"`
	Grade             string     `json:"grade"`
	MaterialType      Type       `json:"materialType"`
	Difficulty        Difficulty `json:"difficulty"`
	SubTopic          string     `json:"subTopic,omitempty"`
	EstimatedDuration int        `json:"estimatedDuration,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	FileURL           string     `json:"fileUrl,omitempty"`
	FileName          string     `json:"fileName,omitempty"`
	AvgRating         float64    `json:"avgRating"`
	TotalRatings      int        `json:"totalRatings"`
	DownloadCount     int        `json:"downloadCount"`
	CreatedAt         time.Time  `json:"createdAt"`
	Author            Author     `json:"author"`
}

// Pagination is the page metadata returned alongside a material listing.
type Pagination struct {
	Current int  `json:"current"`
	Total   int  `json:"total"`
	Count   int  `json:"count"`
	Limit   int  `json:"limit"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// Stats are the aggregate numbers shown above a listing.
type Stats struct {
	TotalMaterials int     `json:"totalMaterials"`
	AvgRating      float64 `json:"avgRating"`
	AvgDownloads   float64 `json:"avgDownloads"`
	MaxRating      float64 `json:"maxRating,omitempty"`
	MaxDownloads   int     `json:"maxDownloads,omitempty"`
}

// QueryResult is one page of materials plus its metadata.
type QueryResult struct {
	Materials  []Material `json:"materials"`
	Pagination Pagination `json:"pagination"`
	Stats      Stats      `json:"stats"`
}

// DownloadInfo is what the backend hands back for an authorized download;
// the URL itself points at the external CDN.
type DownloadInfo struct {
	DownloadURL string `json:"downloadUrl"`
	FileName    string `json:"fileName"`
}

// GlobalStats is the /materials/stats payload.
type GlobalStats struct {
	Overview struct {
		TotalMaterials  int     `json:"totalMaterials"`
		TotalDownloads  int     `json:"totalDownloads"`
		TotalRatings    int     `json:"totalRatings"`
		AvgRating       float64 `json:"avgRating"`
		RecentMaterials int     `json:"recentMaterials"`
	} `json:"overview"`
	Distribution struct {
		ByType       []TypeCount       `json:"byType"`
		ByDifficulty []DifficultyCount `json:"byDifficulty"`
		ByGrade      []GradeCount      `json:"byGrade"`
	} `json:"distribution"`
	TopAuthors       []TopAuthor       `json:"topAuthors"`
	PopularMaterials []PopularMaterial `json:"popularMaterials"`
}

type TypeCount struct {
	Type  Type `json:"type"`
	Count int  `json:"count"`
}

type DifficultyCount struct {
	Difficulty Difficulty `json:"difficulty"`
	Count      int        `json:"count"`
}

type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

type TopAuthor struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	School         string  `json:"school,omitempty"`
	MaterialsCount int     `json:"materialsCount"`
	TotalDownloads int     `json:"totalDownloads"`
	AvgRating      float64 `json:"avgRating"`
}

type PopularMaterial struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	DownloadCount int     `json:"downloadCount"`
	AvgRating     float64 `json:"avgRating"`
	TotalRatings  int     `json:"totalRatings"`
	Author        struct {
		Name string `json:"name"`
	} `json:"author"`
}
