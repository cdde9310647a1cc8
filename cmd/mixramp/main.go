package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dlk3/mixramp/media"
	"github.com/dlk3/mixramp/mixramp"
)

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version information"`
	File    string           `arg:"" type:"existingfile" help:"Audio file to analyze (wav, aiff, mp3, ogg vorbis)"`
}

func main() {
	cli := &CLI{}
	kong.Parse(cli,
		kong.Name("mixramp"),
		kong.Description("Compute MIXRAMP crossfade tags for an audio track"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := run(cli.File); err != nil {
		fmt.Fprintf(os.Stderr, "mixramp: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	src, err := media.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	analysis, err := mixramp.Scan(src)
	if err != nil {
		return err
	}

	// Nothing is printed until the whole track analyzed cleanly.
	_, err = analysis.WriteTo(os.Stdout)
	return err
}
