package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/roomie/internal/chore"
	"github.com/dukerupert/roomie/internal/config"
	"github.com/dukerupert/roomie/internal/database"
	"github.com/dukerupert/roomie/internal/logging"
	"github.com/dukerupert/roomie/internal/model"
	"github.com/dukerupert/roomie/internal/service"
	"github.com/dukerupert/roomie/internal/store"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd builds the roomie command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "roomie",
		Short: "Roomie - shared household chore scheduling",
		Long: `Roomie tracks recurring chores for shared rooms: who is on duty,
what is overdue, and what falls due next.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(migrateCmd(opts))
	rootCmd.AddCommand(backupCmd(opts))

	// Reports
	rootCmd.AddCommand(choresCmd(opts))
	rootCmd.AddCommand(calendarCmd(opts))
	rootCmd.AddCommand(statsCmd(opts))
	rootCmd.AddCommand(rosterCmd(opts))

	return rootCmd
}

func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, logging.Setup(cfg.LogLevel, cfg.LogFormat), nil
}

// reportEnv is what the report commands need to read a room offline.
type reportEnv struct {
	db     *sql.DB
	room   *model.Room
	chores *service.ChoreService
	rooms  *service.RoomService

	lookahead int
}

func (e *reportEnv) Close() error {
	return e.db.Close()
}

// memberNames maps the room's member IDs to display names.
func (e *reportEnv) memberNames(ctx context.Context) (map[int64]string, error) {
	members, err := e.rooms.Members(ctx, e.room.ID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.Name
	}
	return names, nil
}

// openReport opens the database for roomID. A non-empty date pins "today".
func (o *rootOptions) openReport(roomID int64, date string) (*reportEnv, error) {
	if roomID <= 0 {
		return nil, fmt.Errorf("--room is required")
	}

	var clock chore.Clock = chore.SystemClock{}
	if date != "" {
		d, err := chore.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
		}
		clock = chore.FixedClock(d)
	}

	cfg, logger, err := o.load()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	roomStore := store.NewRoomStore(db)
	room, err := roomStore.GetByID(roomID)
	if err != nil {
		db.Close()
		return nil, err
	}
	if room == nil {
		db.Close()
		return nil, fmt.Errorf("room %d not found", roomID)
	}

	return &reportEnv{
		db:     db,
		room:   room,
		chores: service.NewChoreService(store.NewChoreStore(db), roomStore, nil, clock, logger, service.ChoreOptions{
			LookaheadDays:   cfg.CalendarLookaheadDays,
			StatsWindowDays: cfg.StatsWindowDays,
		}),
		rooms:     service.NewRoomService(roomStore, logger),
		lookahead: cfg.CalendarLookaheadDays,
	}, nil
}
