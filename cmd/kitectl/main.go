package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/dmitrijs2005/kitekeeper/internal/ctl"
	"github.com/dmitrijs2005/kitekeeper/internal/flagx"
	"github.com/google/subcommands"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "c", os.Getenv(flagx.ConfigFileEnv), "path to JSON config file")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	env := &ctl.Env{
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		ConfigPath: &configPath,
		Open:       ctl.OpenServices,
	}
	for _, c := range ctl.Commands(env) {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
