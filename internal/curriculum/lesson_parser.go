package curriculum

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Block delimiters of the lesson document format.
const (
	MetadataStart  = "=== Metadata ==="
	MetadataEnd    = "=== EndMetadata ==="
	QuestionsStart = "=== Questions ==="
	QuestionsEnd   = "=== EndQuestions ==="

	QuestionTypeMultipleChoice = "multiple_choice"
)

var (
	metadataPattern  = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(MetadataStart) + `(.*?)` + regexp.QuoteMeta(MetadataEnd))
	questionsPattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(QuestionsStart) + `(.*?)` + regexp.QuoteMeta(QuestionsEnd))
	sectionOpen      = regexp.MustCompile(`=== Section: (.+?) ===`)
)

const metadataSchemaJSON = `{
  "type": "object",
  "required": ["id", "title", "description"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "description": {"type": "string"},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

const questionsSchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "type", "proficiency", "question", "answers", "correctAnswerIndex", "explanation"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "type": {"enum": ["multiple_choice"]},
      "proficiency": {"enum": ["basic", "intermediate", "advanced"]},
      "question": {"type": "string"},
      "answers": {"type": "array", "minItems": 1, "items": {"type": "string"}},
      "correctAnswerIndex": {"type": "integer", "minimum": 0},
      "explanation": {"type": "string"}
    }
  }
}`

var (
	metadataSchema  = mustSchema(metadataSchemaJSON)
	questionsSchema = mustSchema(questionsSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compiling schema: %v", err))
	}
	return s
}

// ParseLesson extracts the metadata, sections and questions blocks of a
// lesson document. Zero sections is valid.
func ParseLesson(doc string) (LessonDTO, error) {
	meta, err := parseMetadata(doc)
	if err != nil {
		return LessonDTO{}, err
	}

	sections, err := parseSections(doc)
	if err != nil {
		return LessonDTO{}, err
	}

	questions, err := parseQuestions(doc)
	if err != nil {
		return LessonDTO{}, err
	}

	return LessonDTO{
		ID:          meta.ID,
		Title:       meta.Title,
		Description: meta.Description,
		Tags:        meta.Tags,
		Sections:    sections,
		Questions:   questions,
	}, nil
}

func parseMetadata(doc string) (lessonMetadata, error) {
	m := metadataPattern.FindStringSubmatch(doc)
	if m == nil {
		return lessonMetadata{}, &ParsingError{Kind: MetadataParsingFailed, Detail: "metadata block not found"}
	}
	raw := []byte(strings.TrimSpace(m[1]))

	if err := validate(metadataSchema, raw); err != nil {
		return lessonMetadata{}, &ParsingError{Kind: MetadataParsingFailed, Err: err}
	}

	var meta lessonMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return lessonMetadata{}, &ParsingError{Kind: MetadataParsingFailed, Err: err}
	}
	return meta, nil
}

// parseSections pairs every "=== Section: T ===" with the first following
// "=== EndSection: T ===" carrying the identical title. An opener without a
// matching closer is skipped and scanning resumes after it.
func parseSections(doc string) ([]SectionDTO, error) {
	sections := []SectionDTO{}
	pos := 0
	for pos < len(doc) {
		loc := sectionOpen.FindStringSubmatchIndex(doc[pos:])
		if loc == nil {
			break
		}
		openStart, openEnd := pos+loc[0], pos+loc[1]
		rawTitle := doc[pos+loc[2] : pos+loc[3]]

		closer := "=== EndSection: " + rawTitle + " ==="
		idx := strings.Index(doc[openEnd:], closer)
		if idx < 0 {
			pos = openStart + 1
			continue
		}

		title := strings.TrimSpace(rawTitle)
		if title == "" {
			return nil, &ParsingError{Kind: InvalidSection, Detail: fmt.Sprintf("empty section title at offset %d", openStart)}
		}
		sections = append(sections, SectionDTO{
			Title:   title,
			Content: strings.TrimSpace(doc[openEnd : openEnd+idx]),
		})
		pos = openEnd + idx + len(closer)
	}
	return sections, nil
}

func parseQuestions(doc string) ([]QuestionDTO, error) {
	m := questionsPattern.FindStringSubmatch(doc)
	if m == nil {
		return nil, &ParsingError{Kind: QuestionsParsingFailed, Detail: "questions block not found"}
	}
	raw := []byte(strings.TrimSpace(m[1]))

	if err := validate(questionsSchema, raw); err != nil {
		return nil, &ParsingError{Kind: QuestionsParsingFailed, Err: err}
	}

	var questions []QuestionDTO
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, &ParsingError{Kind: QuestionsParsingFailed, Err: err}
	}

	for _, q := range questions {
		if q.CorrectAnswerIndex >= len(q.Answers) {
			return nil, &ParsingError{
				Kind:   QuestionsParsingFailed,
				Detail: fmt.Sprintf("question %s: correctAnswerIndex %d out of range for %d answers", q.ID, q.CorrectAnswerIndex, len(q.Answers)),
			}
		}
	}
	return questions, nil
}

func validate(schema *gojsonschema.Schema, raw []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
}
