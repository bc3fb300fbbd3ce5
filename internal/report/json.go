package report

import (
	"encoding/json"
	"io"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

// JSON emits the scan result as indented JSON. Findings are always
// present as an array so consumers never branch on null.
type JSON struct{}

func (JSON) Render(w io.Writer, res *model.ScanResult) error {
	out := *res
	if out.Findings == nil {
		out.Findings = []model.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&out)
}
