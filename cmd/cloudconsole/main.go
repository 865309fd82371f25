package main

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"cloudconsole/internal/cli"
	"cloudconsole/internal/model"

	"github.com/joho/godotenv"
)

func rewriteDirectLookupArgs(argv []string) []string {
	// `cloudconsole <id>` works like `cloudconsole <kinds> show <id>`. Cobra
	// treats the first non-flag token as a subcommand, so argv is rewritten
	// before parsing. Persistent flags may come first.
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--endpoint":  true,
		"--format":    true,
		"--log-file":  true,
		"--log-level": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	rewrite := func(i int) []string {
		k, ok := model.KindOfID(argv[i])
		if !ok {
			return argv
		}
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, k.Plural(), "show")
		out = append(out, argv[i:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				return rewrite(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		return rewrite(i)
	}
	return argv
}

func main() {
	// A missing .env is fine; a broken one is not silently ignored.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("error: .env: " + err.Error() + "\n")
		os.Exit(1)
	}

	os.Args = rewriteDirectLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
