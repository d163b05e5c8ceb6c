// Package paths provides centralized path handling for bonsetup.
// It implements XDG Base Directory specification compliance for the
// config, cache and state directories and resolves the Bonsai source
// checkout the installers work from.
package paths
