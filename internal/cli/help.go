package cli

const (
	// HelpText is the main help text for the CLI
	HelpText = `Loom - Declarative Synthetic Data Generator

Usage:
  loom [command]

Commands:
  generate    Generate a synthetic dataset from a namespace of schema documents
  validate    Statically validate a namespace of schema documents
  help        Show help for any command

Examples:
  # Generate 1000 records total, distributed across collections, to stdout
  loom generate ./schemas -n 1000

  # Generate with an explicit per-collection size and a sqlite3 sink
  loom generate ./schemas --collection users=500 --collection orders=2000 --to out.db

  # Validate a namespace without generating anything
  loom validate ./schemas

For more information, see the project README.`

	// GenerateHelpText is the help text for the generate command
	GenerateHelpText = `Generate a synthetic dataset from a namespace of schema documents

Usage:
  loom generate [flags] <namespace-path>

Flags:
  -n, --size int          Total record count, distributed across collections; when omitted, each collection's declared length is used
  -o, --to string          Sink destination: '-' for stdout, a .json path, or a .db/.sqlite path (default "-")
      --seed int           Deterministic root seed
      --random             Use a randomly chosen root seed instead of --seed
      --collection strings Explicit per-collection size override, as 'name=count' (repeatable)
      --concurrency int    Number of independent reference subgraphs to generate in parallel (default 1)
      --monitor string     If set, serve live progress as JSON at http://<addr>/status
  -h, --help               Show help for command

Examples:
  # Generate example data to stdout
  loom generate ./schemas

  # Generate to a sqlite3 database with a fixed seed
  loom generate ./schemas --seed 42 --to dataset.db`

	// ValidateHelpText is the help text for the validate command
	ValidateHelpText = `Statically validate a namespace of schema documents

Usage:
  loom validate [flags] <namespace-path>

Flags:
  -h, --help    Show help for command

Examples:
  # Validate a namespace directory
  loom validate ./schemas`
)

// GetCommandHelp returns the help text for a specific command
func GetCommandHelp(command string) string {
	switch command {
	case "generate":
		return GenerateHelpText
	case "validate":
		return ValidateHelpText
	default:
		return HelpText
	}
}
