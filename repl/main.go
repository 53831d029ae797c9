// Command remark comments and uncomments Python and shell files.
//
// Usage:
//
//	remark                          # interactive shell on the terminal
//	remark strip [-w] FILE          # print FILE without comments
//	remark generate [-w] FILE       # print FILE with generated comments
//	remark -report log.toml         # append a TOML entry per action
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	remark "github.com/Paranoid-AF/remark"
	"github.com/Paranoid-AF/remark/generate"
	"github.com/Paranoid-AF/remark/session"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const prompt = "remark> "

// logLevel is shared by the stderr and console log handlers.
var logLevel = new(slog.LevelVar)

const (
	actionStrip    = remark.ActionStrip
	actionGenerate = remark.ActionGenerate
	actionPush     = "push"
)

type options struct {
	command string
	file    string
	lang    string
	report  string
	write   bool
	verbose bool
	version bool
}

// parseArgs accepts flags both before and after the subcommand.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("remark", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.lang, "lang", "", "force language: python or shell")
	fs.StringVar(&opts.report, "report", "", "append a TOML entry per action to `file`")
	fs.BoolVar(&opts.write, "w", false, "overwrite FILE instead of printing")
	fs.BoolVar(&opts.verbose, "verbose", false, "debug logging on stderr")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return opts, nil
	}

	opts.command = rest[0]
	if err := fs.Parse(rest[1:]); err != nil {
		return nil, err
	}
	rest = fs.Args()

	switch opts.command {
	case actionStrip, actionGenerate:
		if len(rest) != 1 {
			return nil, fmt.Errorf("usage: remark %s [-w] [-lang L] FILE", opts.command)
		}
		opts.file = rest[0]
	default:
		return nil, fmt.Errorf("unknown command %q", opts.command)
	}
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(2)
	}
	if opts.version {
		fmt.Println("remark", Version)
		os.Exit(0)
	}

	if opts.verbose {
		logLevel.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if cwd, err := os.Getwd(); err == nil {
		if err := remark.LoadDotenv(cwd); err != nil {
			slog.Warn("failed to load .env", "error", err)
		}
	}

	report, err := OpenReport(opts.report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer report.Close()

	engine := generate.NewEngine()
	defer engine.Close()

	sess := session.New(engine)
	if err := sess.SetLanguage(opts.lang); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.command == "" {
		err = interactive(ctx, sess, report)
	} else {
		err = runOnce(ctx, sess, opts, os.Stdout, report)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runOnce applies one subcommand to opts.file.
func runOnce(ctx context.Context, sess *session.Session, opts *options, out io.Writer, report *Report) error {
	if err := sess.Browse(opts.file); err != nil {
		return err
	}
	sh := &shell{sess: sess, out: out, report: report}

	in := sess.Original()
	var err error
	if opts.command == actionGenerate {
		err = sess.Generate(ctx)
	} else {
		err = sess.Strip()
	}
	sh.record(opts.command, in, err)
	if err != nil {
		return err
	}

	if !opts.write {
		_, err := io.WriteString(out, sess.Edited())
		return err
	}

	edited := sess.Edited()
	err = sess.Push()
	sh.record(actionPush, edited, err)
	if err != nil {
		return err
	}
	slog.Info("File successfully overwritten!", "path", sess.Path())
	return nil
}

func interactive(ctx context.Context, sess *session.Session, report *Report) error {
	console, err := NewConsole(prompt)
	if err != nil {
		return err
	}
	defer console.Close()

	out := console.Writer()

	// Raw mode: logs must go through the terminal to get \r\n and keep the prompt intact.
	prev := slog.Default()
	slog.SetDefault(consoleLogger(out))
	defer slog.SetDefault(prev)

	fmt.Fprintf(out, "remark %s\n", Version)
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out)

	sh := &shell{sess: sess, out: out, report: report}
	for {
		line, err := console.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if sh.exec(ctx, line) {
			return nil
		}
	}
}

// consoleLogger writes logs through the line editor's writer.
func consoleLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
