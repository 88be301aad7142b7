package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/stemsi/assessment-pipeline/internal/config"
	"github.com/stemsi/assessment-pipeline/internal/logger"
)

type command struct {
	usage string
	nargs int
	run   func(m *migrate.Migrate, args []string) (string, error)
}

var commands = map[string]command{
	"up": {usage: "up", run: func(m *migrate.Migrate, _ []string) (string, error) {
		return "schema is up to date", ignoreNoChange(m.Up())
	}},
	"down": {usage: "down", run: func(m *migrate.Migrate, _ []string) (string, error) {
		return "all migrations reverted", ignoreNoChange(m.Down())
	}},
	"steps": {usage: "steps <n>", nargs: 1, run: func(m *migrate.Migrate, args []string) (string, error) {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("invalid step count %q", args[0])
		}
		return fmt.Sprintf("applied %d step(s)", n), ignoreNoChange(m.Steps(n))
	}},
	"version": {usage: "version", run: func(m *migrate.Migrate, _ []string) (string, error) {
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return "no migration applied", nil
		}
		return fmt.Sprintf("version %d (dirty=%t)", v, dirty), err
	}},
	"force": {usage: "force <version>", nargs: 1, run: func(m *migrate.Migrate, args []string) (string, error) {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("invalid version %q", args[0])
		}
		return fmt.Sprintf("forced version %d", v), m.Force(v)
	}},
}

func main() {
	dir := flag.String("path", "migrations", "Directory holding the SQL migrations")
	flag.Usage = usage
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok || len(args)-1 < cmd.nargs {
		usage()
		os.Exit(2)
	}

	m, err := migrate.New("file://"+*dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dir).Msg("Cannot initialize migrations")
	}

	msg, err := cmd.run(m, args[1:])
	m.Close()
	if err != nil {
		log.Error().Err(err).Str("command", args[0]).Msg("Migration failed")
		os.Exit(1)
	}
	log.Info().Str("command", args[0]).Msg(msg)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-path dir] <command>")
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, name := range []string{"up", "down", "steps", "version", "force"} {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
	flag.PrintDefaults()
}
