package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kindred-lang/kindred/internal/diag"
	"github.com/kindred-lang/kindred/internal/driver"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kindred <command> [options]\n")
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  make <file.kin>   Compile a Kindred source file\n")
		fmt.Fprintf(os.Stderr, "  clean             Remove the build output directory\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "make":
		os.Exit(runMake(args))
	case "clean":
		os.Exit(runClean(args))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMake(args []string) int {
	fs := flag.NewFlagSet("make", flag.ExitOnError)
	mode := fs.String("mode", "Release", "build mode: Debug or Release")
	outDir := fs.String("out", driver.DefaultOutputDir, "output directory")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kindred make [options] <file.kin>\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		return 1
	}

	m, err := driver.ParseMode(*mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kindred: %v\n", err)
		return 1
	}

	source := fs.Arg(0)
	exePath, diags, err := driver.Compile(context.Background(), driver.Options{
		SourcePath: source,
		OutputDir:  *outDir,
		Mode:       m,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "kindred: %v\n", err)
		return 1
	}

	if len(diags) > 0 {
		f := diag.NewFormatterTo(os.Stderr)
		f.LoadSource(source)
		f.FormatAll(diags)
	}
	if diag.HasErrors(diags) {
		return 1
	}

	fmt.Printf("built %s\n", exePath)
	return 0
}

func runClean(args []string) int {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	outDir := fs.String("out", driver.DefaultOutputDir, "output directory")
	fs.Parse(args)

	if err := driver.Clean(*outDir); err != nil {
		fmt.Fprintf(os.Stderr, "kindred: %v\n", err)
		return 1
	}
	return 0
}
