package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scholar-cli/internal/source"
)

// LoadRawResults reads per-source result files from dir. Each file is
// named `<source>.json` after its source tag and holds either a bare
// JSON array of raw records or an object with a `results` array.
// Files that do not match a registered source tag are skipped with a
// warning, so foreign files in the input directory are harmless.
func LoadRawResults(dir string) (map[string][]map[string]any, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read input dir %s", dir)
	}

	raw := make(map[string][]map[string]any)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		tag := strings.TrimSuffix(entry.Name(), ".json")
		if !source.Known(tag) {
			zap.L().Warn("pipeline: skipping unrecognized result file",
				zap.String("file", entry.Name()),
			)
			continue
		}

		items, err := readResultFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		raw[tag] = items
		zap.L().Info("pipeline: loaded raw results",
			zap.String("source", tag),
			zap.Int("items", len(items)),
		)
	}

	if len(raw) == 0 {
		return nil, eris.Errorf("pipeline: no recognized result files in %s", dir)
	}
	return raw, nil
}

func readResultFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read %s", path)
	}

	var items []map[string]any
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse %s", path)
	}
	return wrapped.Results, nil
}
