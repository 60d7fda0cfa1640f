package curriculum

// LessonDTO is a lesson document as decoded by ParseLesson.
type LessonDTO struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags,omitempty"`
	Sections    []SectionDTO  `json:"sections"`
	Questions   []QuestionDTO `json:"questions"`
}

// SectionDTO is one titled markdown block of a lesson.
type SectionDTO struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// QuestionDTO is one entry of the questions block.
type QuestionDTO struct {
	ID                 string   `json:"id"`
	Type               string   `json:"type"`
	Proficiency        string   `json:"proficiency"`
	Question           string   `json:"question"`
	Answers            []string `json:"answers"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

// ModuleDTO is a module tree decoded from YAML. ID is derived from Title.
type ModuleDTO struct {
	ID          string      `yaml:"-"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	SubModules  []ModuleDTO `yaml:"subModules"`
	Lessons     []string    `yaml:"lessons"`
}

// lessonMetadata is the JSON object between the metadata delimiters.
type lessonMetadata struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
