package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"splitpay/native/params"
)

// Reader exposes the minimal parameter store capabilities required to inspect pause toggles.
type Reader interface {
	ParamStoreGet(name string) ([]byte, bool, error)
}

// Writer extends Reader with the ability to persist pause toggles.
type Writer interface {
	Reader
	ParamStoreSet(name string, value []byte) error
}

func loadPauses(reader Reader) (map[string]bool, error) {
	if reader == nil {
		return nil, fmt.Errorf("params: reader not configured")
	}
	raw, ok, err := reader.ParamStoreGet(params.ParamsKeyPauses)
	if err != nil {
		return nil, fmt.Errorf("params: load pauses: %w", err)
	}
	pauses := make(map[string]bool)
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return pauses, nil
	}
	if err := json.Unmarshal(raw, &pauses); err != nil {
		return nil, fmt.Errorf("params: decode pauses: %w", err)
	}
	return pauses, nil
}

// ModulePaused reports whether the pause toggle for module is enabled.
func ModulePaused(reader Reader, module string) (bool, error) {
	pauses, err := loadPauses(reader)
	if err != nil {
		return false, err
	}
	return pauses[normalizeModule(module)], nil
}

// SetModulePaused updates the pause toggle for module, leaving other modules
// untouched.
func SetModulePaused(writer Writer, module string, paused bool) error {
	name := normalizeModule(module)
	if name == "" {
		return fmt.Errorf("params: module name required")
	}
	pauses, err := loadPauses(writer)
	if err != nil {
		return err
	}
	if paused {
		pauses[name] = true
	} else {
		delete(pauses, name)
	}
	encoded, err := json.Marshal(pauses)
	if err != nil {
		return fmt.Errorf("params: encode pauses: %w", err)
	}
	return writer.ParamStoreSet(params.ParamsKeyPauses, encoded)
}

func normalizeModule(module string) string {
	return strings.ToLower(strings.TrimSpace(module))
}
