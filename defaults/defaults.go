// Package defaults provides the embedded default configuration.
package defaults

import _ "embed"

//go:embed config.toml
var ConfigTOML []byte
