// Package cmd implements the xmod command line.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/xmod/internal/cancel"
	"github.com/Iron-Ham/xmod/internal/config"
	"github.com/Iron-Ham/xmod/internal/errors"
	"github.com/Iron-Ham/xmod/internal/logging"
	"github.com/Iron-Ham/xmod/internal/mode"
	"github.com/Iron-Ham/xmod/internal/procnode"
	"github.com/Iron-Ham/xmod/internal/styles"
	"github.com/Iron-Ham/xmod/internal/walk"
)

var (
	cfgFile   string
	verbosity walk.Verbosity
	recursive bool

	// signalSource is installed by Execute before any flag parsing so that a
	// status query reaching a freshly spawned worker finds a handler.
	signalSource cancel.Source

	// newSignalSource is replaced in tests.
	newSignalSource = func(leader bool) cancel.Source { return cancel.NewOSSource(leader) }
)

var rootCmd = &cobra.Command{
	Use:   "xmod [OPTIONS] MODE FILE/DIR",
	Short: "Change file mode bits, one process per directory",
	Long: `xmod changes the mode bits of a file or directory.

With -R every subdirectory is handled by a worker process of its own. All
workers share the caller's process group: an interrupt sent to the group
leader pauses every worker, prints one status line per process and asks
before terminating the whole tree.

MODE is either an octal mode with a leading zero (0755) or one symbolic
clause: u, g, o or a, then +, - or =, then up to three of r, w and x.

Environment:
  LOG_FILENAME, XMOD_LOG_FILENAME  event log path (truncated by the root)
  BASE_TIME, XMOD_BASE_TIME        starting value of the root's clock, in ms`,
	Example: `  xmod -R u+x ./scripts
  xmod -c o-w notes.txt
  xmod -v 0644 notes.txt`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runXmod,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/xmod/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	flags := rootCmd.Flags()
	// -v and -c share one setting; the one given last wins.
	flags.VarPF(&verbosityFlag{target: &verbosity, level: walk.All}, "verbose", "v",
		"output a diagnostic for every file processed").NoOptDefVal = "true"
	flags.VarPF(&verbosityFlag{target: &verbosity, level: walk.Changes}, "changes", "c",
		"like verbose but report only when a change is made").NoOptDefVal = "true"
	flags.BoolVarP(&recursive, "recursive", "R", false, "change files and directories recursively")
	// Options must precede MODE so that FILE/DIR is always the last argument,
	// the one a worker's argv replaces.
	flags.SetInterspersed(false)

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.NewConfigError(err.Error(), errors.ErrInvalidArguments)
	})
}

func initConfig() {
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.ConfigDir())
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "xmod"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	config.BindEnv()

	// A missing config file is fine; defaults and the environment apply.
	_ = viper.ReadInConfig()
}

// Execute runs the root command. The returned error carries the exit status
// through errors.ExitCode and has already been reported on stderr.
func Execute() error {
	id := procnode.CurrentIdentity()
	signalSource = newSignalSource(id.IsLeader())
	defer signalSource.Stop()

	err := rootCmd.Execute()
	if err == nil {
		return nil
	}

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	// Flag and configuration errors happen before the process has a node.
	printError(rootCmd.ErrOrStderr(), err)
	return &errors.ExitError{Code: errors.ExitCode(err), Err: err}
}

func runXmod(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.NewConfigError("invalid configuration", err)
	}

	diag, err := logging.NewLogger(cfg.Diagnostics.File, cfg.Diagnostics.Level)
	if err != nil {
		return errors.NewConfigError("unable to open diagnostics file", err)
	}
	defer func() { _ = diag.Close() }()

	var rootPath string
	if len(args) > 0 {
		rootPath = args[len(args)-1]
	}
	node, err := procnode.Bootstrap(procnode.Options{
		LogFilename: cfg.Log.Filename,
		BaseOffset:  cfg.Clock.Base(),
		RootPath:    rootPath,
		Diag:        diag,
	})
	if err != nil {
		return err
	}
	node.Created(os.Args)

	err = run(cmd, node, cfg, args)
	code := errors.ExitCode(err)
	if err != nil && shouldReport(err) {
		printError(cmd.ErrOrStderr(), err)
	}
	node.Finish(code)

	if err != nil {
		return &errors.ExitError{Code: code, Err: err}
	}
	return nil
}

func run(cmd *cobra.Command, node *procnode.Node, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return cmd.Usage()
	}
	if len(args) != 2 {
		return errors.NewConfigError(fmt.Sprintf("expected MODE and FILE/DIR, got %d argument(s)", len(args)), errors.ErrInvalidArguments)
	}

	spec, err := mode.Parse(args[0])
	if err != nil {
		return err
	}
	path := args[1]

	diag := node.Diag.WithProcess(node.PID, path)

	var confirmer cancel.Confirmer
	if node.IsLeader() {
		tc, err := cancel.OpenTerminalConfirmer(cancel.Input(cfg.Signals.ConfirmInput), os.Stdin, cmd.OutOrStdout())
		if err != nil {
			return errors.NewConfigError("unable to set up the confirmation prompt", err)
		}
		defer func() { _ = tc.Close() }()
		confirmer = tc
	}

	var spawner walk.Spawner
	if recursive {
		ps, err := procnode.NewSpawner(node, os.Args, len(os.Args)-1)
		if err != nil {
			return err
		}
		spawner = processSpawner{ps}
	}

	source := signalSource
	if source == nil {
		source = newSignalSource(node.IsLeader())
		defer source.Stop()
	}

	var sched *walk.Scheduler
	ctl := cancel.New(cancel.Config{
		Leader:         node.IsLeader(),
		Source:         source,
		Broadcaster:    cancel.NewGroupBroadcaster(node.PGID),
		Confirmer:      confirmer,
		Status:         func() cancel.Status { return sched.Status(node.PID) },
		Log:            node.Log,
		Out:            cmd.OutOrStdout(),
		Exit:           node.Exit,
		SettleDelay:    cfg.Signals.Settle(),
		TerminateGrace: cfg.Signals.TerminateGrace(),
		Workers:        func() []int { return sched.Workers() },
		Diag:           diag,
	})

	sched = walk.New(walk.Options{
		Mode:      spec,
		Verbosity: verbosity,
		Recursive: recursive,
		Out:       cmd.OutOrStdout(),
		Err:       cmd.ErrOrStderr(),
		Log:       node.Log,
		Gate:      ctl,
		Spawner:   spawner,
		Diag:      diag,
		Pause:     throttle(cfg.Walk.Throttle()),
	})

	diag.Debug("starting traversal", "recursive", recursive, "verbosity", verbosity.String())
	return sched.Run(path)
}

// verbosityFlag is a boolean flag that selects one verbosity level.
type verbosityFlag struct {
	target *walk.Verbosity
	level  walk.Verbosity
}

var _ pflag.Value = (*verbosityFlag)(nil)

func (f *verbosityFlag) String() string {
	if f.target == nil {
		return "false"
	}
	return strconv.FormatBool(*f.target == f.level)
}

func (f *verbosityFlag) Set(value string) error {
	on, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	switch {
	case on:
		*f.target = f.level
	case *f.target == f.level:
		*f.target = walk.Quiet
	}
	return nil
}

func (f *verbosityFlag) Type() string { return "bool" }

// processSpawner adapts procnode.Spawner to walk.Spawner.
type processSpawner struct {
	*procnode.Spawner
}

func (p processSpawner) Spawn(path string) (walk.Worker, error) {
	w, err := p.Spawner.Spawn(path)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func throttle(d time.Duration) func() {
	if d <= 0 {
		return nil
	}
	return func() { time.Sleep(d) }
}

// shouldReport is false for errors the scheduler has already printed and
// for an abort, which ends silently.
func shouldReport(err error) bool {
	if errors.Is(err, errors.ErrAborted) {
		return false
	}
	return errors.ClassOf(err) != errors.ClassSpawn
}

func printError(w io.Writer, err error) {
	r := styles.NewRenderer(w)
	fmt.Fprintln(w, r.Error("xmod: "+err.Error()))
}
