package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/libreria-pagine/turni/backend/internal/config"
	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/libreria-pagine/turni/backend/internal/planner"
	"github.com/libreria-pagine/turni/backend/internal/repository"
	"github.com/libreria-pagine/turni/backend/internal/scheduler"
	"github.com/spf13/cobra"

	_ "github.com/mattn/go-sqlite3"
)

// RootCmd 构建 turni 的命令树
func RootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "turni",
		Short: "Gestione dei turni mensili della libreria",
		Long: `turni calcola, salva ed esporta i turni mensili del personale.
Legge la connessione al database da DATABASE_DRIVER e DATABASE_DSN,
e l'organico da PLANNER_ROSTER_FILE (vuoto = organico predefinito).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelInfo
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mostra i log")

	rootCmd.AddCommand(PreviewCmd())
	rootCmd.AddCommand(GenerateCmd())
	rootCmd.AddCommand(StatsCmd())
	rootCmd.AddCommand(ExportCmd())
	rootCmd.AddCommand(ImportCmd())
	rootCmd.AddCommand(DeleteCmd())
	rootCmd.AddCommand(SeedStaffCmd())

	return rootCmd
}

// env 包含命令执行需要的依赖
type env struct {
	cfg     *config.Config
	db      *sql.DB
	repo    *repository.Repository
	planner *planner.Planner
	roster  domain.Roster
}

func (e *env) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func loadScheduler(cfg *config.Config) (*scheduler.Scheduler, error) {
	roster, err := scheduler.LoadRoster(cfg.Planner.RosterFile)
	if err != nil {
		return nil, err
	}

	return scheduler.New(roster)
}

func openEnv() (*env, error) {
	cfg, err := config.LoadCLIConfig()
	if err != nil {
		return nil, err
	}

	s, err := loadScheduler(cfg)
	if err != nil {
		return nil, err
	}

	db, err := repository.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connessione al database fallita: %w", err)
	}

	repo := repository.NewRepository(cfg, db)
	if err := repo.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return &env{
		cfg:     cfg,
		db:      db,
		repo:    repo,
		planner: planner.New(s, repo, cfg.Planner.RangeParallelism),
		roster:  s.Roster(),
	}, nil
}

func monthFlag(cmd *cobra.Command, name string) (domain.Month, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return domain.Month{}, err
	}
	if value == "" {
		return domain.Month{}, fmt.Errorf("--%s è obbligatorio (AAAA-MM)", name)
	}
	return domain.ParseMonth(value)
}
