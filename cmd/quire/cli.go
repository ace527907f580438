package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/n2code/quire"
	"github.com/n2code/quire/cmd/quire/flags"
	"github.com/n2code/quire/internal/logging"
)

const defaultManifestFileName = `Book.txt`

type CliRequest struct {
	verbose   bool
	quiet     bool
	thorough  bool
	directory string
	fancy     bool
	stdout    io.Writer
	stderr    io.Writer
	newLogger func(logging.Level) (*zap.Logger, error)
	logger    *zap.Logger
}

// usageError marks a malformed invocation as opposed to a failed action.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usage(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func newRequest(stdout io.Writer, stderr io.Writer) *CliRequest {
	return &CliRequest{
		stdout:    stdout,
		stderr:    stderr,
		newLogger: logging.New,
	}
}

func (rq *CliRequest) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "quire [-v|-q] [-t] [-C DIR] <ACTION>",
		Short: "Assemble a manuscript from the fragments listed in its manifest",
		Long: `quire concatenates text fragments in the order given by a manifest.

The manifest declares the sections frontmatter, mainmatter and backmatter.
Each indented line below a section names a fragment by its path relative to
the project root. Deeper indentation nests entries, "#" disables an entry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError{fmt.Errorf("unknown action %q", args[0])}
			}
			return nil
		},
		RunE: func(*cobra.Command, []string) error {
			return usageError{errors.New("no action given")}
		},
		PersistentPreRunE: rq.setup,
	}
	root.SetOut(rq.stdout)
	root.SetErr(rq.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	persistent := root.PersistentFlags()
	persistent.BoolVarP(&rq.verbose, flags.Verbose, flags.VerboseShort, false, "output more details on what is done (verbose mode)")
	persistent.BoolVarP(&rq.quiet, flags.Quiet, flags.QuietShort, false, "output as little as possible, i.e. only requested information (quiet mode)")
	persistent.BoolVarP(&rq.thorough, flags.Thorough, flags.ThoroughShort, false, "do not apply optimizations (thorough mode), e.g. rebuild even if nothing changed")
	persistent.StringVarP(&rq.directory, flags.Directory, flags.DirectoryShort, ".", "run as if quire was started in `DIR`")

	root.AddCommand(
		rq.initCommand(),
		rq.buildCommand(),
		rq.statusCommand(),
		rq.treeCommand(),
		rq.sequenceCommand(),
		rq.watchCommand(),
	)
	return root
}

func (rq *CliRequest) setup(*cobra.Command, []string) error {
	if rq.verbose && rq.quiet {
		return usageError{errors.New("quiet mode and verbose mode are mutually exclusive")}
	}
	level := logging.Default
	switch {
	case rq.verbose:
		level = logging.Verbose
	case rq.quiet:
		level = logging.Quiet
	}
	logger, err := rq.newLogger(level)
	if err != nil {
		return err
	}
	rq.logger = logger
	return nil
}

func (rq *CliRequest) createConfig() quire.CreateConfig {
	config := quire.CreateConfig{
		Logger:        rq.logger,
		FancyTerminal: rq.fancy,
		Stdout:        rq.stdout,
		Stderr:        rq.stderr,
	}
	if rq.verbose {
		config.Verbosity = quire.VerboseMode
	}
	if rq.quiet {
		config.Verbosity = quire.QuietMode
	}
	if rq.thorough {
		config.Optimization = quire.ThoroughMode
	}
	return config
}

func (rq *CliRequest) open() (quire.Quire, error) {
	return quire.Open(rq.directory, rq.createConfig())
}

func (rq *CliRequest) initCommand() *cobra.Command {
	var manifestName string
	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Create a project in DIR (default: current directory)",
		Long: `Create a project in DIR: a commented quire.yaml and, unless it exists,
an empty manifest declaring all three sections. Everything below DIR can be
referenced as a fragment. An existing quire.yaml is never overwritten.`,
		Args: usage(cobra.MaximumNArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			root := rq.directory
			if len(args) == 1 {
				root = args[0]
				if !filepath.IsAbs(root) {
					root = filepath.Join(rq.directory, root)
				}
			}
			_, err := quire.Init(root, manifestName, rq.createConfig())
			return err
		},
	}
	cmd.Flags().StringVar(&manifestName, flags.InitManifest, defaultManifestFileName, "manifest file name, relative to DIR")
	return cmd
}

func (rq *CliRequest) buildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Assemble the manuscript and write it to the configured output",
		Long: `Assemble the manuscript and write it to the configured output. If any
enabled fragment is missing nothing is written. Unless in thorough mode an
output matching the last recorded build is left alone.`,
		Args: usage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := rq.open()
			if err != nil {
				return err
			}
			_, err = q.Build(cmd.Context())
			return err
		},
	}
}

func (rq *CliRequest) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Compare manifest and fragments to the last build",
		Args:  usage(cobra.NoArgs),
		RunE: func(*cobra.Command, []string) error {
			q, err := rq.open()
			if err != nil {
				return err
			}
			return q.PrintStatus()
		},
	}
}

func (rq *CliRequest) treeCommand() *cobra.Command {
	var onlyEnabled bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Display the manifest as a tree, followed by unreferenced fragments",
		Args:  usage(cobra.NoArgs),
		RunE: func(*cobra.Command, []string) error {
			q, err := rq.open()
			if err != nil {
				return err
			}
			return q.PrintTree(onlyEnabled)
		},
	}
	cmd.Flags().BoolVar(&onlyEnabled, flags.TreeOnlyEnabled, false, "show only what the next build includes")
	return cmd
}

func (rq *CliRequest) sequenceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sequence",
		Short: "List the enabled fragment paths in output order",
		Args:  usage(cobra.NoArgs),
		RunE: func(*cobra.Command, []string) error {
			q, err := rq.open()
			if err != nil {
				return err
			}
			return q.PrintSequence()
		},
	}
}

func (rq *CliRequest) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild whenever the manifest or a fragment changes",
		Long: `Build, then rebuild whenever the manifest or a fragment changes. Failed
builds are reported and watching continues. Stop with Ctrl+C.`,
		Args: usage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := rq.open()
			if err != nil {
				return err
			}
			return q.Watch(cmd.Context(), func(_ *quire.BuildResult, err error) {
				if err != nil {
					fmt.Fprintln(rq.stderr, err)
				}
			})
		},
	}
}

// execute runs the command line and maps the outcome to the process exit code.
func (rq *CliRequest) execute(ctx context.Context, args []string) (exitCode int) {
	root := rq.rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if rq.logger != nil {
		_ = rq.logger.Sync()
	}

	var malformed usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &malformed):
		fmt.Fprintf(rq.stderr, "%s\nUsage help: quire --help\n", err)
		return 2
	default:
		fmt.Fprintln(rq.stderr, err)
		return 1
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rq := newRequest(os.Stdout, os.Stderr)
	rq.fancy = stdoutIsTerminal()
	rc := rq.execute(ctx, os.Args[1:])
	stop()
	os.Exit(rc)
}
