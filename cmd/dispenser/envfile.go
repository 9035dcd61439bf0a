package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile = "/etc/dispenser.env"
	envPrefix      = "DISPENSER_"
)

// applyEnvFile sets flags from a KEY=value file. DISPENSER_DOSE_UNIT maps to
// -dose-unit, and so on. Flags given on the command line win. A missing file
// is only an error when the path was chosen explicitly.
func applyEnvFile(set *flag.FlagSet, path string, explicit bool) error {
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	given := map[string]bool{}
	set.Visit(func(f *flag.Flag) { given[f.Name] = true })

	for key, value := range values {
		name, ok := flagName(key)
		if !ok {
			return fmt.Errorf("%s: unexpected key %q (want %s...)", path, key, envPrefix)
		}
		if set.Lookup(name) == nil {
			return fmt.Errorf("%s: unknown setting %q", path, key)
		}
		if given[name] {
			continue
		}
		if err := set.Set(name, value); err != nil {
			return fmt.Errorf("%s: %s: %w", path, key, err)
		}
	}
	return nil
}

func flagName(key string) (string, bool) {
	if !strings.HasPrefix(key, envPrefix) {
		return "", false
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, envPrefix), "_", "-")), true
}
