// Package runner is the process boundary of bonsetup. Every external tool
// (rustup, cargo, mvn, curl, the bonsai compiler) is started through a Runner
// from an argument vector; nothing is ever handed to a shell as a string.
//
// The outcome of a spawn is reduced to a closed set of kinds by Classify:
//
//	Success       the process ran and exited zero
//	ToolNotFound  the executable could not be located
//	SpawnFailed   the executable exists but could not be started
//	NonZeroExit   the process ran and reported failure
//
// Only ToolNotFound is ever eligible for a fallback bootstrap; callers never
// inspect platform error numbers themselves.
package runner
