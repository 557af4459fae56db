package refresh

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const formKeyPrefix = "form_"

// Snapshot holds the field values of every form, keyed "form_<index>" then by field name.
type Snapshot map[string]map[string]string

// CaptureSnapshot reads the current values of all forms.
func CaptureSnapshot(forms Forms) Snapshot {
	values := forms.FormValues()
	snap := make(Snapshot, len(values))
	for i, fields := range values {
		cp := make(map[string]string, len(fields))
		for name, val := range fields {
			if name != "" {
				cp[name] = val
			}
		}
		snap[formKeyPrefix+strconv.Itoa(i)] = cp
	}
	return snap
}

// Empty reports whether no form holds a named field.
func (s Snapshot) Empty() bool {
	for _, fields := range s {
		if len(fields) > 0 {
			return false
		}
	}
	return true
}

func (s Snapshot) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", errors.Wrap(err, "encoding form snapshot")
	}
	return string(data), nil
}

func DecodeSnapshot(raw string) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, errors.Wrap(err, "decoding form snapshot")
	}
	return snap, nil
}

// Apply writes the saved values back. Unknown keys, forms and fields are skipped.
// It returns the number of fields restored.
func (s Snapshot) Apply(forms Forms) int {
	var n int
	for key, fields := range s {
		if !strings.HasPrefix(key, formKeyPrefix) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(key, formKeyPrefix))
		if err != nil || idx < 0 {
			continue
		}
		for name, val := range fields {
			if forms.SetField(idx, name, val) {
				n++
			}
		}
	}
	return n
}
