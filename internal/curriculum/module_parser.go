package curriculum

import (
	"bytes"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ParseModule decodes a YAML module tree. subModules and lessons may be
// omitted at any depth.
func ParseModule(data []byte) (ModuleDTO, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return ModuleDTO{}, &ModuleParsingError{Kind: InvalidContent}
	}

	var m ModuleDTO
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ModuleDTO{}, &ModuleParsingError{Kind: YAMLDecodingFailed, Err: err}
	}

	if err := finishModule(&m); err != nil {
		return ModuleDTO{}, err
	}
	return m, nil
}

// ParseModuleFile reads and decodes a YAML module file.
func ParseModuleFile(path string) (ModuleDTO, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModuleDTO{}, &ModuleParsingError{Kind: FileNotFound, Path: path, Err: err}
	}

	m, err := ParseModule(data)
	if err != nil {
		if mpe, ok := err.(*ModuleParsingError); ok {
			mpe.Path = path
		}
		return ModuleDTO{}, err
	}
	return m, nil
}

// ModuleID derives a module ID from its title: lowercased, spaces replaced
// with underscores.
func ModuleID(title string) string {
	return strings.ReplaceAll(cases.Lower(language.Und).String(title), " ", "_")
}

func finishModule(m *ModuleDTO) error {
	if strings.TrimSpace(m.Title) == "" {
		return &ModuleParsingError{Kind: InvalidContent}
	}
	m.ID = ModuleID(m.Title)
	if m.Lessons == nil {
		m.Lessons = []string{}
	}
	if m.SubModules == nil {
		m.SubModules = []ModuleDTO{}
	}
	for i := range m.SubModules {
		if err := finishModule(&m.SubModules[i]); err != nil {
			return err
		}
	}
	return nil
}
