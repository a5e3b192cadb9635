package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/accent/internal/api"
	"github.com/pbaille/accent/internal/config"
	"github.com/pbaille/accent/internal/content"
	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/epd"
	"github.com/pbaille/accent/internal/logging"
	"github.com/pbaille/accent/internal/schedule"
	"github.com/pbaille/accent/internal/store"
)

var cfg = config.FromEnv()

func main() {
	rootCmd := &cobra.Command{
		Use:   "accent",
		Short: "Server for Accent e-paper displays",
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path")
	flags.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "assets directory")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also append logs to this file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(nextCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(headerCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp runs fn with a logger and the wired app, closing both afterwards.
func withApp(fn func(a *app) error) error {
	logs, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logs.Close()

	a, err := newApp(cfg, logs.Logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func withStore(fn func(s *store.Store) error) error {
	s, err := getStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the display server",
		RunE: func(cmd *cobra.Command, args []string) error {
			palette, err := epd.PaletteByName(cfg.Palette)
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				if _, err := a.checkSchedules(ctx); err != nil {
					return fmt.Errorf("check schedules: %w", err)
				}

				server := api.New(api.Options{
					Users:       a.store,
					Content:     a.content,
					Locations:   a.locations,
					Scheduler:   &schedule.Scheduler{Logger: a.logger},
					Metrics:     a.metrics,
					Logger:      a.logger,
					SettingsURL: cfg.SettingsURL,
					Computer:    a.computer,
					Width:       cfg.Width,
					Height:      cfg.Height,
					Palette:     palette,
				})
				return server.Run(ctx, cfg.Addr, cfg.ShutdownTimeout)
			})
		},
	}

	cmd.Flags().StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "server address")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(userAddCmd(), userListCmd(), userShowCmd(), userDeleteCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var u domain.User

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user and print its key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.Store) error {
				added, err := s.AddUser(cmd.Context(), u)
				if err != nil {
					return err
				}
				fmt.Printf("Added user: %s\n", added.Key)
				fmt.Printf("Settings:   %s/%s\n", cfg.SettingsURL, added.Key)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&u.Home, "home", "", "home address")
	cmd.Flags().StringVar(&u.Work, "work", "", "work address")
	cmd.Flags().StringVar(&u.TravelMode, "mode", "driving", "commute travel mode")
	cmd.Flags().StringVar(&u.TimeZone, "tz", "", "time zone, overrides the geocoded one")
	cmd.MarkFlagRequired("home")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.Store) error {
				users, err := s.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Println("No users yet. Use 'accent user add' to create one.")
					return nil
				}
				for _, u := range users {
					fmt.Printf("%s  %s\n", u.Key, truncate(u.Home, 50))
				}
				return nil
			})
		},
	}
}

func userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [key]",
		Short: "Show a user and its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.Store) error {
				u, err := s.GetUser(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Key:     %s\n", u.Key)
				fmt.Printf("Created: %s\n", u.CreatedAt.Format("2006-01-02 15:04:05"))
				fmt.Printf("Home:    %s\n", u.Home)
				if u.Work != "" {
					fmt.Printf("Work:    %s (%s)\n", u.Work, u.TravelMode)
				}
				if u.TimeZone != "" {
					fmt.Printf("Zone:    %s\n", u.TimeZone)
				}
				printSchedule(u.Schedule)
				return nil
			})
		},
	}
}

func userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [key]",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.Store) error {
				if err := s.DeleteUser(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Printf("Deleted user: %s\n", args[0])
				return nil
			})
		},
	}
}

func printSchedule(entries []domain.ScheduleEntry) {
	if len(entries) == 0 {
		fmt.Println("\nNo schedule. Use 'accent schedule set' to add one.")
		return
	}
	fmt.Printf("\nSchedule:\n")
	for _, e := range entries {
		fmt.Printf("  %-12s %-20s %s\n", e.Name, e.Start, e.Kind)
	}
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage a user's schedule",
	}
	cmd.AddCommand(scheduleSetCmd(), scheduleShowCmd())
	return cmd
}

func scheduleSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [file]",
		Short: "Replace a schedule with a JSON list of entries (- reads stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var entries []domain.ScheduleEntry
			if err := json.NewDecoder(r).Decode(&entries); err != nil {
				return fmt.Errorf("decode schedule: %w", err)
			}

			return withApp(func(a *app) error {
				if err := a.setSchedule(cmd.Context(), args[0], entries); err != nil {
					return err
				}
				fmt.Printf("Saved %d entries\n", len(entries))
				return nil
			})
		},
	}
}

func scheduleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [key]",
		Short: "Print a schedule as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.Store) error {
				u, err := s.GetUser(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(u.Schedule)
			})
		},
	}
}

func renderCmd() *cobra.Command {
	var (
		kind    string
		out     string
		variant string
		width   int
		height  int
	)

	cmd := &cobra.Command{
		Use:   "render [key]",
		Short: "Render a user's current image to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := epd.Format(strings.TrimPrefix(filepath.Ext(out), "."))
			if format != epd.FormatPNG && format != epd.FormatGIF && format != epd.FormatEPD {
				return fmt.Errorf("unknown output format %q, use .png, .gif or .epd", format)
			}
			palette, err := epd.PaletteByName(variant)
			if err != nil {
				return err
			}

			return withApp(func(a *app) error {
				ctx := cmd.Context()
				u, err := a.store.GetUser(ctx, args[0])
				if err != nil {
					return err
				}

				k := domain.ContentKind(kind)
				if kind == "" {
					current, loc, err := content.UserNow(ctx, a.locations, *u, time.Now())
					if err != nil {
						return err
					}
					scheduler := &schedule.Scheduler{Logger: a.logger}
					entry, _, err := scheduler.ActiveEntry(u.Schedule, current, loc)
					if err != nil {
						return err
					}
					k = entry.Kind
				} else if k, err = domain.ParseContentKind(kind); err != nil {
					return err
				}

				img, err := a.content.Produce(ctx, k, *u, width, height)
				if err != nil {
					return err
				}
				if err := writeImage(out, img, palette, format); err != nil {
					return err
				}
				fmt.Printf("Rendered %s to %s\n", k, out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "content kind (default: the active schedule entry)")
	cmd.Flags().StringVarP(&out, "out", "o", "accent.png", "output file (.png, .gif or .epd)")
	cmd.Flags().StringVar(&variant, "variant", cfg.Palette, "display palette")
	cmd.Flags().IntVar(&width, "width", cfg.Width, "display width")
	cmd.Flags().IntVar(&height, "height", cfg.Height, "display height")
	return cmd
}

func writeImage(path string, img image.Image, p epd.Palette, format epd.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := epd.Encode(f, img, p, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func nextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next [key]",
		Short: "Print the active entry and the delay until the next one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				u, err := a.store.GetUser(ctx, args[0])
				if err != nil {
					return err
				}
				current, loc, err := content.UserNow(ctx, a.locations, *u, time.Now())
				if err != nil {
					return err
				}

				scheduler := &schedule.Scheduler{Logger: a.logger}
				active, since, err := scheduler.ActiveEntry(u.Schedule, current, loc)
				if err != nil {
					return err
				}
				upcoming, at, err := scheduler.NextEntry(u.Schedule, current, loc)
				if err != nil {
					return err
				}
				ms, err := scheduler.DelayToNext(u.Schedule, current, loc)
				if err != nil {
					return err
				}

				fmt.Printf("Active: %s (%s) since %s\n", active.Name, active.Kind, since.Format(time.RFC1123))
				fmt.Printf("Next:   %s (%s) at %s\n", upcoming.Name, upcoming.Kind, at.Format(time.RFC1123))
				fmt.Printf("Delay:  %d ms\n", ms)
				return nil
			})
		},
	}
}

func timelineCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "timeline [key]",
		Short: "Draw this week's schedule to a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			palette, err := epd.PaletteByName(cfg.Palette)
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				u, err := a.store.GetUser(ctx, args[0])
				if err != nil {
					return err
				}
				current, loc, err := content.UserNow(ctx, a.locations, *u, time.Now())
				if err != nil {
					return err
				}

				scheduler := &schedule.Scheduler{Logger: a.logger}
				transitions, err := scheduler.Timeline(u.Schedule, current, loc)
				if err != nil {
					return err
				}
				for _, tr := range transitions {
					fmt.Printf("%s  %s\n", tr.At.Format("Mon 15:04"), tr.Entry.Name)
				}
				return writeImage(out, schedule.DrawTimeline(transitions, current), palette, epd.FormatPNG)
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "timeline.png", "output file")
	return cmd
}

func headerCmd() *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "header [image]",
		Short: "Convert an image to a C header for the client firmware",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			palette, err := epd.PaletteByName(variant)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			img, _, err := image.Decode(f)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			data, err := epd.Pack(epd.Quantize(img, palette), palette)
			if err != nil {
				return err
			}
			return epd.CHeader(os.Stdout, args[0], data)
		},
	}

	cmd.Flags().StringVar(&variant, "variant", cfg.Palette, "display palette")
	return cmd
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
