package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/cli/account"
	"github.com/julianstephens/hydratemate/internal/cli/backups"
	"github.com/julianstephens/hydratemate/internal/cli/intake"
	"github.com/julianstephens/hydratemate/internal/cli/settings"
	"github.com/julianstephens/hydratemate/internal/cli/system"
	"github.com/julianstephens/hydratemate/internal/config"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/errors"
	"github.com/julianstephens/hydratemate/internal/logger"
	"github.com/julianstephens/hydratemate/internal/storage"
	"github.com/julianstephens/hydratemate/internal/storage/backends"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"string" default:"~/.config/hydratemate/config.yaml"`
	Storage string `help:"Storage location: a SQLite path, a .json path, memory://, keyring:// or a PostgreSQL connection string without a password. Overrides the config file." type:"string"`
	Debug   bool   `help:"Log debug output to stderr."`

	Status  intake.StatusCmd  `cmd:"" help:"Show today's progress." default:"1"`
	Add     intake.AddCmd     `cmd:"" help:"Log a drink."`
	Remove  intake.RemoveCmd  `cmd:"" help:"Remove an entry logged today."`
	List    intake.ListCmd    `cmd:"" help:"List today's entries."`
	History intake.HistoryCmd `cmd:"" help:"Show recent days."`
	Reset   intake.ResetCmd   `cmd:"" help:"Clear today's intake."`

	Goal      settings.GoalCmd  `cmd:"" help:"Show or set the daily goal."`
	Units     settings.UnitsCmd `cmd:"" help:"Show or set display units."`
	Reminders struct {
		Show settings.RemindersShowCmd `cmd:"" help:"Show reminder settings and the next reminder." default:"1"`
		Set  settings.RemindersSetCmd  `cmd:"" help:"Update reminder settings."`
		On   settings.RemindersOnCmd   `cmd:"" help:"Enable reminders."`
		Off  settings.RemindersOffCmd  `cmd:"" help:"Disable reminders."`
		Test settings.RemindersTestCmd `cmd:"" help:"Send a reminder now."`
	} `cmd:"" help:"Manage hydration reminders."`

	Setup      account.SetupCmd `cmd:"" help:"Set your goal, units and reminders."`
	Onboarding struct {
		Status account.OnboardingStatusCmd `cmd:"" help:"Show whether setup was completed." default:"1"`
		Reset  account.OnboardingResetCmd  `cmd:"" help:"Run setup again next time."`
	} `cmd:"" help:"Manage first-launch setup."`
	Account struct {
		Signup  account.SignUpCmd  `cmd:"" help:"Create an account."`
		Signin  account.SignInCmd  `cmd:"" help:"Sign in."`
		Signout account.SignOutCmd `cmd:"" help:"Sign out."`
		Whoami  account.WhoamiCmd  `cmd:"" help:"Show the signed-in account." default:"1"`
	} `cmd:"" help:"Manage your account."`

	Backup struct {
		Create  backups.CreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.ListCmd    `cmd:"" help:"List available backups."`
		Restore backups.RestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage storage backups."`

	Init    system.InitCmd    `cmd:"" help:"Initialize storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run storage migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Inspect system.DebugCmd   `cmd:"" name:"debug" help:"Inspect raw storage."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability." default:"1"`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
	Daemon struct {
		Run    system.DaemonRunCmd    `cmd:"" help:"Run the reminder daemon in the foreground."`
		Status system.DaemonStatusCmd `cmd:"" help:"Show whether the daemon is running." default:"1"`
		Stop   system.DaemonStopCmd   `cmd:"" help:"Stop a running daemon."`
	} `cmd:"" help:"Deliver reminders in the background."`
}

// loadMode says how much of the storage a command needs before it runs
type loadMode int

const (
	// loadState loads the backend and the hydration state
	loadState loadMode = iota
	// loadNone leaves the backend untouched; the command loads it itself
	loadNone
	// noStorage replaces the backend with an in-memory one
	noStorage
)

func modeFor(command string) loadMode {
	switch {
	case strings.HasPrefix(command, "keyring"),
		command == "daemon status", command == "daemon stop":
		return noStorage
	case command == "init", command == "migrate", command == "doctor",
		command == "daemon run", strings.HasPrefix(command, "backup"),
		strings.HasPrefix(command, "debug"):
		return loadNone
	default:
		return loadState
	}
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Track your water intake and get reminded to drink."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)
	command := commandPath(kctx.Command())

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Storage != "" {
		cfg.Storage = CLI.Storage
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug || cfg.Log.Debug,
		ConfigDir: cfg.Dir(),
		Level:     cfg.Log.Level,
		Stderr:    command == "daemon run",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	mode := modeFor(command)
	var kv storage.Provider
	if mode == noStorage {
		kv = storage.NewMemoryStore()
	} else {
		kv, err = backends.Open(config.ExpandHome(cfg.Storage))
		if err != nil {
			errors.Fatal(err)
		}
	}

	appCtx := cli.NewContext(cfg, kv)
	bg := context.Background()

	if mode == loadState {
		if err := openStorage(kv); err != nil {
			errors.Fatal(err)
		}
		appCtx.Open(bg)
		if command == "status" && !appCtx.Onboarding.Completed(bg) {
			fmt.Fprintln(os.Stderr, "Welcome! Run 'hydratemate setup' to choose your goal and reminders.")
		}
	}

	runErr := kctx.Run(appCtx)
	if err := appCtx.Close(bg); err != nil {
		logger.Warn("Failed to close storage", "error", err)
	}
	errors.Fatal(runErr)
}

// commandPath drops positional placeholders: "add <amount>" becomes "add"
func commandPath(selected string) string {
	var words []string
	for _, w := range strings.Fields(selected) {
		if !strings.HasPrefix(w, "<") {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// openStorage loads the backend, creating local storage on first use
func openStorage(kv storage.Provider) error {
	err := kv.Load()
	if !stderrors.Is(err, storage.ErrNotInitialized) {
		return err
	}
	logger.Info("Creating storage on first use", "path", kv.GetConfigPath())
	return kv.Init()
}
