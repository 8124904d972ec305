package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/scholar-cli/internal/model"
)

// questionFile is the on-disk shape of the question spec.
type questionFile struct {
	Questions []model.Question `yaml:"questions"`
}

// LoadQuestions reads and validates the classification question spec.
// Question order is preserved; field names must be unique.
func LoadQuestions(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read question spec %s", path)
	}

	var file questionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "registry: parse question spec %s", path)
	}
	if len(file.Questions) == 0 {
		return nil, eris.Errorf("registry: question spec %s declares no questions", path)
	}

	seen := make(map[string]bool, len(file.Questions))
	for i, q := range file.Questions {
		if err := q.Validate(); err != nil {
			return nil, eris.Wrapf(err, "registry: question spec %s entry %d", path, i+1)
		}
		if seen[q.Field] {
			return nil, eris.Errorf("registry: question spec %s: duplicate field %q", path, q.Field)
		}
		seen[q.Field] = true
	}

	zap.L().Info("registry: loaded question spec",
		zap.String("path", path),
		zap.Int("questions", len(file.Questions)),
	)
	return file.Questions, nil
}
