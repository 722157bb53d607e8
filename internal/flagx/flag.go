// Package flagx picks selected flags out of os.Args so that independent
// components can each parse only what they own.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps only the arguments in args that belong to allowedFlags,
// together with their values. Both "-k key" and "-k=key" forms are
// recognised. The server config keeps its flags (-a, -e, -d, -k, ...)
// this way while ConfigFile independently picks out -c/-config.
//
// A value is taken from the next argument only when it does not start with
// "-"; the result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// -flag=value
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			if name, _, _ := strings.Cut(arg, "="); isAllowed(allowed, name) {
				filtered = append(filtered, arg)
			}
			continue
		}

		// -flag value
		if isAllowed(allowed, arg) {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

func isAllowed(allowed map[string]struct{}, name string) bool {
	_, ok := allowed[name]
	return ok
}

// ConfigFileEnv names the environment variable consulted when no config
// flag is given.
const ConfigFileEnv = "KITEKEEPER_CONFIG"

// ConfigFile returns the path of the JSON config file. The -c and -config
// flags win over the KITEKEEPER_CONFIG environment variable; when neither is
// present an empty string is returned.
//
// Only these flags are parsed; other arguments are ignored, so the server and
// CLI can parse their own flags independently.
func ConfigFile() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config", "--config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	if config == "" {
		config = os.Getenv(ConfigFileEnv)
	}

	return config
}
