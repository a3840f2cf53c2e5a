package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/sensor/dirwatch"
	"github.com/google/uuid"
)

const usage = `usage: markerctl [-dir DIR] <command> [args]

commands:
  add [-id UUID] CONTENT   report a detected marker (prints its id)
  update UUID              report that a marker is still visible
  remove UUID              report that a marker left the view
`

func main() {
	dir := flag.String("dir", config.LoadOrDefault().Sensor.Dir, "Directory watched by the server")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if err := run(dirwatch.NewWriter(*dir), flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "markerctl: %v\n", err)
		os.Exit(1)
	}
}

func run(w *dirwatch.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		idFlag := fs.String("id", "", "Marker id (random when empty)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("add takes exactly one CONTENT argument")
		}

		id := uuid.New()
		if *idFlag != "" {
			parsed, err := uuid.Parse(*idFlag)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", *idFlag, err)
			}
			id = parsed
		}
		if err := w.Added(id, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Println(id)
		return nil

	case "update", "remove":
		if len(args) != 2 {
			return fmt.Errorf("%s takes exactly one UUID argument", args[0])
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[1], err)
		}
		if args[0] == "update" {
			return w.Updated(id)
		}
		return w.Removed(id)

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}
