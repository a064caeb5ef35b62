package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	historymodels "statecraft/internal/history/models"
	"statecraft/internal/warclock"
	"statecraft/internal/wars/models"
	"statecraft/pkg/app"
	"statecraft/pkg/module"

	"github.com/spf13/pflag"
)

// invocation is a parsed command ready to run against the application
type invocation struct {
	validate func() error
	run      func(ctx context.Context, a *app.AppContext, out io.Writer) error
}

type command struct {
	name    string
	summary string
	setup   func(fs *pflag.FlagSet) *invocation
	// longRunning commands run until interrupted instead of under a timeout
	longRunning bool
}

// historyReader is implemented by history sinks that can be queried
type historyReader interface {
	ListForState(ctx context.Context, stateID string, limit int64) ([]historymodels.Event, error)
}

var commands = []command{
	{name: "grant-admin", summary: "Grant platform administrator privilege", setup: grantAdmin},
	{name: "revoke-admin", summary: "Revoke platform administrator privilege", setup: revokeAdmin},
	{name: "list-admins", summary: "List platform administrators", setup: listAdmins},
	{name: "schedule-war", summary: "Schedule an ACCEPTED war", setup: scheduleWar},
	{name: "start-war", summary: "Start a SCHEDULED war", setup: startWar},
	{name: "finish-war", summary: "End a war and record its result", setup: finishWar},
	{name: "cancel-war", summary: "Cancel a war that has not started", setup: cancelWar},
	{name: "battle-status", summary: "Set the status of a battle", setup: battleStatus},
	{name: "history", summary: "Show recent history events of a state", setup: stateHistory},
	{name: "health", summary: "Check stores and modules", setup: health},
	{name: "watch", summary: "Report scheduled wars that are due to start", setup: watch, longRunning: true},
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// required fails with the names of the flags that were left empty
func required(values map[string]string) error {
	var missing []string
	for name, value := range values {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
}

// parseTimestamp accepts RFC 3339 and returns milliseconds since epoch
func parseTimestamp(value string) (int64, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q, expected RFC 3339 such as 2026-11-01T18:00:00Z", value)
	}
	return t.UnixMilli(), nil
}

func grantAdmin(fs *pflag.FlagSet) *invocation {
	player := fs.String("player", "", "player id to grant")
	return &invocation{
		validate: func() error { return required(map[string]string{"player": *player}) },
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			if err := a.Admins.Grant(ctx, *player); err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ %s is now a platform administrator\n", *player)
			return nil
		},
	}
}

func revokeAdmin(fs *pflag.FlagSet) *invocation {
	player := fs.String("player", "", "player id to revoke")
	return &invocation{
		validate: func() error { return required(map[string]string{"player": *player}) },
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			if err := a.Admins.Revoke(ctx, *player); err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ %s is no longer a platform administrator\n", *player)
			return nil
		},
	}
}

func listAdmins(fs *pflag.FlagSet) *invocation {
	return &invocation{
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			admins, err := a.Admins.Admins()
			if err != nil {
				return err
			}
			if len(admins) == 0 {
				fmt.Fprintln(out, "No platform administrators")
				return nil
			}
			for _, id := range admins {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}

// warFlags registers the flags shared by every war transition
func warFlags(fs *pflag.FlagSet) (war, admin *string) {
	war = fs.String("war", "", "war id")
	admin = fs.String("admin", "", "acting administrator player id")
	return war, admin
}

func scheduleWar(fs *pflag.FlagSet) *invocation {
	war, admin := warFlags(fs)
	at := fs.String("at", "", "scheduled start, RFC 3339")
	var scheduledFor int64
	return &invocation{
		validate: func() error {
			if err := required(map[string]string{"war": *war, "admin": *admin, "at": *at}); err != nil {
				return err
			}
			var err error
			scheduledFor, err = parseTimestamp(*at)
			return err
		},
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			if err := a.Engine.Wars.ScheduleWar(ctx, *war, *admin, scheduledFor); err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ War %s scheduled for %s\n", *war, *at)
			return nil
		},
	}
}

func startWar(fs *pflag.FlagSet) *invocation {
	war, admin := warFlags(fs)
	return &invocation{
		validate: func() error { return required(map[string]string{"war": *war, "admin": *admin}) },
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			if err := a.Engine.Wars.StartWar(ctx, *war, *admin); err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ War %s started\n", *war)
			return nil
		},
	}
}

func finishWar(fs *pflag.FlagSet) *invocation {
	war, admin := warFlags(fs)
	result := fs.String("result", "", "outcome, e.g. ATTACKER_VICTORY")
	action := fs.String("action", "", "consequence applied to the loser")
	return &invocation{
		validate: func() error {
			return required(map[string]string{"war": *war, "admin": *admin, "result": *result})
		},
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			if err := a.Engine.Wars.FinishWar(ctx, *war, *admin, *result, *action); err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ War %s ended: %s\n", *war, *result)
			return nil
		},
	}
}

func cancelWar(fs *pflag.FlagSet) *invocation {
	war, admin := warFlags(fs)
	return &invocation{
		validate: func() error { return required(map[string]string{"war": *war, "admin": *admin}) },
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			if err := a.Engine.Wars.CancelWar(ctx, *war, *admin); err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ War %s cancelled\n", *war)
			return nil
		},
	}
}

func battleStatus(fs *pflag.FlagSet) *invocation {
	battle := fs.String("battle", "", "battle id")
	admin := fs.String("admin", "", "acting administrator player id")
	status := fs.String("status", "", "new status, e.g. ONGOING or ENDED")
	result := fs.String("result", "", "optional battle result")
	end := fs.String("end", "", "optional end date, RFC 3339")

	var resultPtr *string
	var endPtr *int64
	return &invocation{
		validate: func() error {
			if err := required(map[string]string{"battle": *battle, "admin": *admin, "status": *status}); err != nil {
				return err
			}
			if !models.Status(strings.ToUpper(*status)).Valid() {
				return fmt.Errorf("unknown status %q", *status)
			}
			if *result != "" {
				resultPtr = result
			}
			if *end != "" {
				ms, err := parseTimestamp(*end)
				if err != nil {
					return err
				}
				endPtr = &ms
			}
			return nil
		},
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			to := models.Status(strings.ToUpper(*status))
			if err := a.Engine.Wars.UpdateBattleStatus(ctx, *battle, to, *admin, resultPtr, endPtr); err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ Battle %s is now %s\n", *battle, to)
			return nil
		},
	}
}

func stateHistory(fs *pflag.FlagSet) *invocation {
	state := fs.String("state", "", "state id")
	limit := fs.Int64("limit", 20, "number of events to show")
	return &invocation{
		validate: func() error {
			if err := required(map[string]string{"state": *state}); err != nil {
				return err
			}
			if *limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return nil
		},
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			reader, ok := a.History.(historyReader)
			if !ok {
				return fmt.Errorf("history backend %q cannot be queried from warden", a.Config.HistoryBackend)
			}
			events, err := reader.ListForState(ctx, *state, *limit)
			if err != nil {
				return err
			}
			for _, e := range events {
				fmt.Fprintf(out, "%s  %-24s %s\n", time.UnixMilli(e.Created).UTC().Format(time.RFC3339), e.Type, e.Description)
			}
			return nil
		},
	}
}

func health(fs *pflag.FlagSet) *invocation {
	asJSON := fs.Bool("json", false, "print statuses as JSON")
	return &invocation{
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			statuses := a.Engine.Health(ctx)
			if *asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(statuses)
			}

			unhealthy := 0
			for _, s := range statuses {
				fmt.Fprintf(out, "%-12s %-10s %s\n", s.Module, s.Status, s.Message)
				if s.Status == module.StatusUnhealthy {
					unhealthy++
				}
			}
			if unhealthy > 0 {
				return fmt.Errorf("%d component(s) unhealthy", unhealthy)
			}
			return nil
		},
	}
}

func watch(fs *pflag.FlagSet) *invocation {
	schedule := fs.String("schedule", warclock.DefaultSchedule, "cron schedule with seconds, or a descriptor such as @every 5m")
	return &invocation{
		run: func(ctx context.Context, a *app.AppContext, out io.Writer) error {
			clock, err := warclock.New(a.Engine.Wars, *schedule, func(ctx context.Context, war models.War, overdue time.Duration) {
				fmt.Fprintf(out, "⏰ War %s (%s) was due %s ago; start it with: warden start-war --war %s --admin <id>\n",
					war.Name, war.UUID, overdue.Round(time.Second), war.UUID)
			})
			if err != nil {
				return err
			}
			if err := clock.Start(ctx); err != nil {
				return err
			}
			defer clock.Stop()

			fmt.Fprintf(out, "Watching for due wars (%s), press Ctrl+C to stop\n", *schedule)
			<-ctx.Done()
			return nil
		},
	}
}
