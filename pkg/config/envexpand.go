package config

import "os"

// ExpandEnv expands ${VAR} and $VAR references in raw YAML bytes before
// parsing, so secrets (API keys, tracker tokens) never need to appear in
// the file itself. Missing variables expand to empty string; validation
// is responsible for catching the fields that then come up blank.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
