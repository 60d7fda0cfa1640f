package curriculum

import (
	"errors"
	"fmt"
)

// ParsingErrorKind classifies lesson document failures.
type ParsingErrorKind int

const (
	MetadataParsingFailed ParsingErrorKind = iota
	InvalidSection
	QuestionsParsingFailed
)

func (k ParsingErrorKind) String() string {
	switch k {
	case MetadataParsingFailed:
		return "metadata_parsing_failed"
	case InvalidSection:
		return "invalid_section"
	case QuestionsParsingFailed:
		return "questions_parsing_failed"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is against a *ParsingError.
var (
	ErrMetadataParsing  = &ParsingError{Kind: MetadataParsingFailed}
	ErrInvalidSection   = &ParsingError{Kind: InvalidSection}
	ErrQuestionsParsing = &ParsingError{Kind: QuestionsParsingFailed}
)

// ParsingError is returned by ParseLesson.
type ParsingError struct {
	Kind   ParsingErrorKind
	Detail string
	Err    error
}

func (e *ParsingError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParsingError) Unwrap() error { return e.Err }

// Is matches any ParsingError of the same kind.
func (e *ParsingError) Is(target error) bool {
	t, ok := target.(*ParsingError)
	return ok && t.Kind == e.Kind
}

// ModuleErrorKind classifies module document failures.
type ModuleErrorKind int

const (
	FileNotFound ModuleErrorKind = iota
	InvalidContent
	YAMLDecodingFailed
)

func (k ModuleErrorKind) String() string {
	switch k {
	case FileNotFound:
		return "file_not_found"
	case InvalidContent:
		return "invalid_content"
	case YAMLDecodingFailed:
		return "yaml_decoding_failed"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is against a *ModuleParsingError.
var (
	ErrFileNotFound   = &ModuleParsingError{Kind: FileNotFound}
	ErrInvalidContent = &ModuleParsingError{Kind: InvalidContent}
	ErrYAMLDecoding   = &ModuleParsingError{Kind: YAMLDecodingFailed}
)

// ModuleParsingError is returned by ParseModule and ParseModuleFile.
type ModuleParsingError struct {
	Kind ModuleErrorKind
	Path string
	Err  error
}

func (e *ModuleParsingError) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModuleParsingError) Unwrap() error { return e.Err }

func (e *ModuleParsingError) Is(target error) bool {
	t, ok := target.(*ModuleParsingError)
	return ok && t.Kind == e.Kind
}

// ErrNotFound is returned by a Source for an unknown document ID.
var ErrNotFound = errors.New("document not found")
