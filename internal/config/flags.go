package config

import (
	"flag"
)

// parses server CLI flags. flags win over environment variables.
func ParseServerFlags(args []string) Flags {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	port := fs.String("port", "", "HTTP port (overrides PORT)")
	runtime := fs.String("runtime", "", "sandbox runtime: local or docker (overrides SANDBOX_RUNTIME)")
	root := fs.String("sandbox-root", "", "directory holding workspace file trees (overrides SANDBOX_ROOT)")
	validate := fs.Bool("validate", false, "load configuration, print it and exit")
	fs.Parse(args) //nolint:errcheck,gosec // G104: ExitOnError flag set handles errors

	return Flags{Port: *port, Runtime: *runtime, Root: *root, Validate: *validate}
}

// applies non-empty flag values on top of the loaded config
func (f Flags) Apply(cfg *Config) {
	if f.Port != "" {
		cfg.Port = f.Port
	}

	if f.Runtime != "" {
		cfg.Sandbox.Runtime = f.Runtime
	}

	if f.Root != "" {
		cfg.Sandbox.Root = f.Root
	}
}
