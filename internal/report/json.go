package report

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/solscout/scout-cli/internal/model"
)

// WriteJSON writes the report as indented JSON to path.
func WriteJSON(r *model.Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return eris.Wrap(err, "report: marshal json")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}

// WriteMarkdown writes the markdown rendering to path.
func WriteMarkdown(r *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(Markdown(r)), 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}
