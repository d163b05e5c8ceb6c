package bonsetup

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Set up a Bonsai development environment"
	MsgInstallShort    = "Install everything a profile needs"
	MsgCheckShort      = "Report which parts of a profile are present"
	MsgProfilesShort   = "List the installation profiles"
	MsgHostShort       = "Show the detected host profile"
	MsgHistoryShort    = "Show recent installation runs"
	MsgGuideShort      = "Display a built-in guide"
	MsgConfigShort     = "Print the effective configuration"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate man pages"

	// Status messages
	MsgFallbackWarning = "Warning: no Bonsai checkout found, using the current directory %s\n"
	MsgMissingFormat   = "%d of %d components missing"
	MsgGuideList       = "Available guides: %s\n"
	MsgManWritten      = "Man pages written to %s\n"

	// Error messages
	MsgErrInitPaths   = "failed to initialize paths"
	MsgErrLoadConfig  = "failed to load configuration"
	MsgErrLoadProfile = "failed to load profiles"
	MsgErrJournal     = "failed to open the run journal"

	// Flag descriptions
	MsgFlagVerbose      = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun       = "Check and report, but install nothing"
	MsgFlagYes          = "Answer every yes/no question with its default"
	MsgFlagProfile      = "Profile to install (v1, v2, v3 or latest)"
	MsgFlagFormat       = "Output format: auto, term, text or json"
	MsgFlagSourceRoot   = "Bonsai checkout directory"
	MsgFlagRemoteScript = "Bootstrap rustup by running its installer script"
	MsgFlagLimit        = "Number of runs to show"
	MsgFlagTemplate     = "Print a commented configuration template"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/install-long.txt
	msgInstallLongRaw string
	MsgInstallLong    = strings.TrimSpace(msgInstallLongRaw)

	//go:embed msgs/install-example.txt
	msgInstallExampleRaw string
	MsgInstallExample    = strings.TrimRight(msgInstallExampleRaw, "\n")

	//go:embed msgs/check-long.txt
	msgCheckLongRaw string
	MsgCheckLong    = strings.TrimSpace(msgCheckLongRaw)

	//go:embed msgs/config-long.txt
	msgConfigLongRaw string
	MsgConfigLong    = strings.TrimSpace(msgConfigLongRaw)
)
