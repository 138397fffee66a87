package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/models"
	"gopkg.in/yaml.v3"
)

// Service resolves media type templates. Built-in defaults are always
// available; TOML or YAML files in the configured directory override or add
// templates by name.
type Service struct {
	templates map[string]*models.MediaTemplate
	logger    arbor.ILogger
}

// NewService creates a template service, loading file overrides when a
// templates directory is configured
func NewService(config *common.TemplatesConfig, logger arbor.ILogger) (*Service, error) {
	svc := &Service{
		templates: defaultTemplates(),
		logger:    logger,
	}

	if config != nil && config.Dir != "" {
		if err := svc.loadDir(config.Dir); err != nil {
			return nil, err
		}
	}

	return svc, nil
}

// loadDir reads every *.toml, *.yaml and *.yml file in dir as one template
func (s *Service) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return common.NewConfigurationError("templates.dir", fmt.Sprintf("cannot read %s: %v", dir, err))
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".toml" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return common.NewConfigurationError("templates.dir", fmt.Sprintf("cannot read %s: %v", path, err))
		}

		var tmpl models.MediaTemplate
		if ext == ".toml" {
			err = toml.Unmarshal(data, &tmpl)
		} else {
			err = yaml.Unmarshal(data, &tmpl)
		}
		if err != nil {
			return common.NewConfigurationError("templates.dir", fmt.Sprintf("cannot parse %s: %v", path, err))
		}

		if tmpl.Name == "" {
			return common.NewConfigurationError("templates.dir", fmt.Sprintf("%s is missing the template name", path))
		}
		if len(tmpl.Sections) == 0 {
			return common.NewConfigurationError("templates.dir", fmt.Sprintf("%s defines no sections", path))
		}

		s.templates[tmpl.Name] = &tmpl
		loaded++
	}

	if loaded > 0 {
		s.logger.Info().Int("count", loaded).Str("dir", dir).Msg("Loaded template overrides")
	}

	return nil
}

// Get returns the template for mediaType, or a ConfigurationError naming the
// available types
func (s *Service) Get(mediaType string) (*models.MediaTemplate, error) {
	if tmpl, ok := s.templates[mediaType]; ok {
		return tmpl, nil
	}
	return nil, common.NewConfigurationError("article.media_type",
		fmt.Sprintf("unknown media type %q, available: %s", mediaType, strings.Join(s.Names(), ", ")))
}

// Names returns the known media type names, sorted
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
