// Package cli is the materialmgr command tree. It resolves configuration from
// flags, the environment and an optional TOML file, opens the document through
// the app and maps each command onto one material engine operation. Usage
// errors are reported as *ExitError with exit code 2.
package cli
