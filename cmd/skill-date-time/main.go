// Command skill-date-time resolves place names to timezones and holiday
// names to dates from the command line.
//
// Usage:
//
//	skill-date-time resolve "Paris France"
//	skill-date-time holiday christmas --country US
//	skill-date-time update-cache
//
// Remote lookups require SDT_GEONAMES_USERNAME (geocoder fallback) and
// SDT_HOLIDAY_API_KEY (holiday data provider).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	datetime "github.com/ndato/skill-date-time"
)

type config struct {
	LogLevel         string `env:"SDT_LOG_LEVEL" envDefault:"info"`
	DataDir          string `env:"SDT_DATA_DIR" envDefault:"./geonames-data"`
	CacheDir         string `env:"SDT_CACHE_DIR" envDefault:"./geonames-cache"`
	GeonamesUsername string `env:"SDT_GEONAMES_USERNAME"`
	HolidayAPIKey    string `env:"SDT_HOLIDAY_API_KEY"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	opts := []datetime.Option{
		datetime.WithDataDir(cfg.DataDir),
		datetime.WithCacheDir(cfg.CacheDir),
		datetime.WithGeonamesUsername(cfg.GeonamesUsername),
		datetime.WithHolidayAPIKey(cfg.HolidayAPIKey),
	}

	root := &cobra.Command{
		Use:           "skill-date-time",
		Short:         "Resolve place names to timezones and holiday names to dates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(resolveCmd(opts), holidayCmd(opts), updateCacheCmd(opts))
	return root.Execute()
}

func resolveCmd(opts []datetime.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <place>",
		Short: "Resolve a place name or zone identifier to a timezone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := datetime.New(opts...)
			if err != nil {
				return err
			}
			loc, err := svc.Locations.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			local, err := loc.LocalTime(time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\t%s\n", loc.DisplayName, loc.TimezoneID, local.Format("Mon 15:04"))
			return nil
		},
	}
}

func holidayCmd(opts []datetime.Option) *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:   "holiday <name>",
		Short: "Resolve a holiday name to its next date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := datetime.New(opts...)
			if err != nil {
				return err
			}
			if svc.Holidays == nil {
				return fmt.Errorf("holiday lookups require SDT_HOLIDAY_API_KEY")
			}

			code, err := svc.Countries().Resolve(country)
			if err != nil {
				return fmt.Errorf("unknown country %q: %w", country, err)
			}
			date, err := svc.Holidays.Resolve(cmd.Context(), args[0], code, time.Now().Year())
			if err != nil {
				return err
			}
			fmt.Println(date)
			return nil
		},
	}
	cmd.Flags().StringVarP(&country, "country", "c", "", "country name or ISO2 code")
	_ = cmd.MarkFlagRequired("country")
	return cmd
}

func updateCacheCmd(opts []datetime.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "update-cache",
		Short: "Regenerate the parsed reference data cache from raw files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			slog.Info("regenerating reference data cache")
			if err := datetime.RegenerateCache(opts...); err != nil {
				return err
			}
			slog.Info("cache regenerated")
			return nil
		},
	}
}
