package quire

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/n2code/quire/internal/assembly"
	"github.com/n2code/quire/internal/config"
	"github.com/n2code/quire/internal/fragment"
	"github.com/n2code/quire/internal/output"
)

type VerbosityLevel int
type OptimizationLevel int

// CreateConfig holds a set of common configuration switches that concern all calls to the quire API.
// The zero value is a sensible default.
type CreateConfig struct {
	Verbosity     VerbosityLevel
	Optimization  OptimizationLevel
	Logger        *zap.Logger //diagnostics, discarded if nil
	FancyTerminal bool        //allow escape sequences in printed output
	Stdout        io.Writer   //defaults to os.Stdout
	Stderr        io.Writer   //defaults to os.Stderr
}

const (
	DefaultVerbosity VerbosityLevel = iota //normal level of information, all noteworthy facts without too much noise
	VerboseMode                            //exhaustive information about what is happening, repeating context
	QuietMode                              //only output errors and information that was explicitly requested (-> Print* functions)
)

const (
	DefaultOptimizations OptimizationLevel = iota //trust the build record, e.g. do not rewrite an output whose fingerprint is recorded
	ThoroughMode                                  //sacrifices performance to avoid any possible oversights
)

const storeRetryDelay = 50 * time.Millisecond

type quire struct {
	config    *config.Config
	store     *fragment.DirStore
	assembler *assembly.Assembler
	logger    *zap.Logger
	printer   output.Printer
	thorough  bool
	debounce  time.Duration //quiet period before Watch rebuilds
}

// Init creates a new project in the given root directory: a commented quire.yaml and, unless present, an empty manifest.
func Init(root string, manifestName string, config CreateConfig) (Quire, error) {
	handle, err := createProject(mustAbsFilepath(root), manifestName, config)
	if err != nil {
		return nil, fmt.Errorf("project create error: %w", err)
	}
	return handle, nil
}

// Open loads the project containing the given directory. (It does not need to be the project root directory.)
func Open(directory string, config CreateConfig) (Quire, error) {
	handle, err := loadProject(mustAbsFilepath(directory), config)
	if err != nil {
		return nil, fmt.Errorf("project load error: %w", err)
	}
	return handle, nil
}

func makeQuire(projectConfig *config.Config, createConfig CreateConfig) (instance *quire) {
	logger := createConfig.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	classes := []output.Class{output.Required, output.Error}
	switch createConfig.Verbosity {
	case VerboseMode:
		classes = append(classes, output.Verbose)
		fallthrough
	case DefaultVerbosity:
		classes = append(classes, output.Normal)
	}

	project := projectConfig.Project
	instance = &quire{
		config:   projectConfig,
		logger:   logger,
		printer:  output.NewPrinter(classes, createConfig.FancyTerminal, createConfig.Stdout, createConfig.Stderr),
		thorough: createConfig.Optimization == ThoroughMode,
		debounce: 250 * time.Millisecond,
	}

	var hidden []string
	for _, generated := range []string{project.Manifest, project.Output, project.Record} {
		if rel, inside := projectConfig.RelToFragments(generated); inside {
			hidden = append(hidden, rel)
		}
	}
	instance.store = fragment.NewDirStore(project.Fragments.Root,
		fragment.WithExtensions(project.Fragments.Extensions...),
		fragment.WithExcluded(hidden...),
		fragment.WithRetries(project.Assembly.ReadRetries, storeRetryDelay),
		fragment.WithLogger(logger.Named("store")))
	instance.assembler = assembly.New(
		assembly.WithSeparator(project.Assembly.Separator),
		assembly.WithSectionMarker(project.Assembly.SectionMarker),
		assembly.WithDuplicatePolicy(projectConfig.DuplicatePolicy()),
		assembly.WithParallelism(project.Assembly.ParallelReads),
		assembly.WithLogger(logger.Named("assembly")))
	return
}

// Print forwards to the printer of the handle.
func (q *quire) Print(class output.Class, format string, values ...interface{}) {
	q.printer.Out(class, format, values...)
}
