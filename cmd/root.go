package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ponto/internal/config"
	"github.com/Tiliavir/ponto/internal/integrity"
	"github.com/Tiliavir/ponto/internal/machineid"
	"github.com/Tiliavir/ponto/internal/punch"
	"github.com/Tiliavir/ponto/internal/storage"
)

// Exit codes returned by Execute.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitIntegrity = 3
)

// app is the state shared by every command once startup checks have passed.
type app struct {
	// now is the clock handed to the punch service; nil means time.Now.
	now func() time.Time
	// newCode generates confirmation codes; nil means proof.Generate.
	newCode func() string

	logFile       string
	machineIDFile string
	timezone      string

	cfg   config.Config
	log   *slog.Logger
	guard *integrity.Guard
	store *storage.Store
	svc   *punch.Service
	lines *lineReader
}

// newRootCmd builds the ponto command tree around a.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ponto",
		Short: "Personal time clock with a tamper-evident log",
		Long: `ponto records clock-in (ENTRADA) and clock-out (SAIDA) events in an
append-only text log, checks the log against its SHA-256 digest on every start
and reports the worked time per day for this machine.

Run without a subcommand for the interactive menu.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.bootstrap,
		RunE:              a.runMenu,
	}

	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Record log file (default from config: "+config.DefaultLogFile+")")
	root.PersistentFlags().StringVar(&a.machineIDFile, "machine-id-file", "", "Machine id cache file (default from config: "+config.DefaultMachineIDFile+")")
	root.PersistentFlags().StringVar(&a.timezone, "timezone", "", "IANA timezone for timestamps (default from config: "+config.DefaultTimezone+")")

	root.AddCommand(
		newInCmd(a),
		newOutCmd(a),
		newListCmd(a),
		newReportCmd(a),
		newStatusCmd(a),
		newVerifyCmd(a),
		newExportCmd(a),
	)
	return root
}

// bootstrap loads configuration, resolves the machine id, loads the log and
// refuses to go on when the log does not match its digest.
// Help and shell completion need none of that and run on a broken log.
func (a *app) bootstrap(cmd *cobra.Command, args []string) error {
	if isBuiltin(cmd) {
		return nil
	}

	cfg, cfgErr := config.Load()
	if a.logFile != "" {
		cfg.LogFile = a.logFile
	}
	if a.machineIDFile != "" {
		cfg.MachineIDFile = a.machineIDFile
	}
	if a.timezone != "" {
		cfg.Timezone = a.timezone
	}
	a.cfg = cfg

	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if cfgErr != nil {
		a.log.Warn("using default configuration", "err", cfgErr)
	}

	loc, err := cfg.Location()
	if err != nil {
		a.log.Warn("falling back to local timezone", "err", err)
	}

	id := machineid.New(cfg.MachineIDFile, a.log).Resolve()

	a.guard = integrity.NewGuard(cfg.LogFile)
	a.store = storage.Open(cfg.LogFile, a.guard, loc, a.log)
	if err := a.store.Load(); err != nil {
		a.log.Error("could not load records", "err", err)
	}
	if err := a.guard.Check(); err != nil {
		return fmt.Errorf("log integrity compromised, refusing to start: %w", err)
	}

	opts := []punch.Option{punch.WithLogger(a.log)}
	if a.now != nil {
		opts = append(opts, punch.WithClock(a.now))
	}
	a.svc = punch.New(a.store, id, opts...)
	a.lines = newLineReader(cmd.InOrStdin())
	return nil
}

// isBuiltin reports whether cmd is cobra's help or completion command or one
// of their children.
func isBuiltin(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

// Execute is the entry point called from main. It returns the process exit code.
func Execute() int {
	return execute(&app{}, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func execute(a *app, args []string, in io.Reader, out, errOut io.Writer) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.Execute()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintln(errOut, "Error:", err)
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, integrity.ErrTampered), errors.Is(err, integrity.ErrUnverifiable):
		return ExitIntegrity
	default:
		return ExitError
	}
}

// lineReader reads newline-terminated input. One reader is shared by the menu
// and the confirmation prompt so neither loses buffered bytes.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(in io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(in)}
}

// ReadLine returns the next line without its terminator. A final line without
// a newline is returned before io.EOF.
func (l *lineReader) ReadLine() (string, error) {
	s, err := l.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}
