package reports

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// validID reports whether id is safe to use as a storage key segment.
func validID(id string) bool {
	return idPattern.MatchString(id)
}

func encodeReport(r Report) ([]byte, error) {
	return json.Marshal(r)
}

func decodeReport(raw []byte) (Report, error) {
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	if r.ID == "" || len(r.Analysis) == 0 {
		return Report{}, fmt.Errorf("decode report: missing id or analysis")
	}
	return r, nil
}
