package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"train-reservation/config"
	"train-reservation/models"
	"train-reservation/pricing"
)

// routeFile is the YAML layout read by the quote command
type routeFile struct {
	TrainID int                `yaml:"train_id" validate:"required,gt=0"`
	Stops   []models.StopInput `yaml:"stops" validate:"required,min=2,dive"`
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "quote",
		Usage: "Price a leg of a route file without a database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "route",
				Usage:    "YAML file with train_id and stops",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "from",
				Usage:    "origin station id",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "to",
				Usage:    "destination station id",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "class",
				Value: string(pricing.ClassThreeTier),
				Usage: "travel class code or name",
			},
			&cli.IntFlag{
				Name:  "passengers",
				Value: 1,
				Usage: "number of passengers",
			},
			&cli.StringFlag{
				Name:    "policy",
				Usage:   "fare policy YAML, built-in defaults when empty",
				EnvVars: []string{"FARE_POLICY_FILE"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "dump the full consistency record",
			},
		},
		Action: func(c *cli.Context) error {
			return runQuote(c.App.Writer, quoteOptions{
				RoutePath:     c.String("route"),
				PolicyPath:    c.String("policy"),
				OriginID:      c.Int("from"),
				DestinationID: c.Int("to"),
				Class:         c.String("class"),
				Passengers:    c.Int("passengers"),
				Debug:         c.Bool("debug"),
			})
		},
	}
}

type quoteOptions struct {
	RoutePath     string
	PolicyPath    string
	OriginID      int
	DestinationID int
	Class         string
	Passengers    int
	Debug         bool
}

func runQuote(out io.Writer, opts quoteOptions) error {
	route, err := loadRouteFile(opts.RoutePath)
	if err != nil {
		return err
	}

	class, err := pricing.ParseTravelClass(opts.Class)
	if err != nil {
		return err
	}

	policy, err := config.LoadFarePolicy(opts.PolicyPath)
	if err != nil {
		return err
	}
	engine, err := policy.Build()
	if err != nil {
		return err
	}

	originName := stationName(route, opts.OriginID)
	destinationName := stationName(route, opts.DestinationID)

	record, err := engine.Cache.GetOrCompute(route.TrainID, route, opts.OriginID, opts.DestinationID, originName, destinationName)
	if err != nil {
		return err
	}

	total, err := pricing.TotalAmount(record, class, opts.Passengers, engine.ConvenienceFee)
	if err != nil {
		return err
	}

	if opts.Debug {
		pretty.Fprintf(out, "%# v\n", record)
	}

	fmt.Fprintf(out, "Train %d: %s -> %s\n", route.TrainID, originName, destinationName)
	fmt.Fprintf(out, "Departs %s, arrives %s, %s, %d halts, %d km\n",
		record.DepartureTime, record.ArrivalTime, record.Duration, record.Halts, record.DistanceKm)
	if record.Fallback {
		fmt.Fprintln(out, "Schedule incomplete for this leg, showing placeholder timings")
	}
	for _, quote := range record.Fares.Quotes() {
		fmt.Fprintf(out, "  %-16s %10.2f\n", quote.Name, quote.Amount)
	}
	fmt.Fprintf(out, "Total for %d x %s incl. %.2f fee: %.2f\n", opts.Passengers, class.DisplayName(), engine.ConvenienceFee, total)

	return nil
}

func loadRouteFile(path string) (models.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Route{}, fmt.Errorf("failed to read route file: %w", err)
	}

	var file routeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return models.Route{}, fmt.Errorf("failed to parse route file: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return models.Route{}, fmt.Errorf("invalid route file: %w", err)
	}

	route, err := models.ToRoute(file.TrainID, file.Stops)
	if err != nil {
		return models.Route{}, err
	}
	if err := route.Validate(); err != nil {
		return models.Route{}, fmt.Errorf("invalid route file: %w", err)
	}
	return route, nil
}

func stationName(route models.Route, stationID int) string {
	for _, stop := range route.Stops {
		if stop.StationID == stationID && stop.StationName != "" {
			return stop.StationName
		}
	}
	return fmt.Sprintf("station %d", stationID)
}

func sampleFares(engine *config.Engine) string {
	fares, err := engine.Policy.QuoteAllClasses(100, false)
	if err != nil {
		return err.Error()
	}
	return fares.String()
}
