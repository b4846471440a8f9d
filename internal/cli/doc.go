// Package cli implements the termdash command-line interface.
//
// Every command follows the same shape: load and validate config, start a
// session that owns the probe, the snapshot facade and the optional metrics
// endpoint, then hand the facade to a renderer.
//
// # Command Structure
//
//	termdash                   - Live dashboard (falls back to snapshot when stdout is not a TTY)
//	termdash snapshot [--json] - Print one reading and exit
//	termdash config init       - Create .termdash.yaml
//	termdash config show       - Print the effective config
//	termdash config set k v    - Change one key in the config file
//	termdash config path       - Show which config file is used
//	termdash doctor            - Diagnose missing readings
//	termdash version           - Print build information
//
// # Flag Handling
//
// Global flags (--config, --interval, --top, --no-color, --metrics-listen)
// live on the root command. A flag only overrides the config file when it
// was set explicitly on the command line.
package cli
