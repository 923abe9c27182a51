// Command simulate runs the dispatcher against the built-in hospital
// floorplan with simulated flight timing, driven by the seeded patient
// database. Useful for demos and manual testing without the gRPC surface.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hospitalDroneLogistics/internal/config"
	"hospitalDroneLogistics/internal/db"
	"hospitalDroneLogistics/internal/dispatch"
	"hospitalDroneLogistics/internal/items"
	"hospitalDroneLogistics/internal/planner"
	"hospitalDroneLogistics/models"
	"hospitalDroneLogistics/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "simulate",
		Short:         "Run a hospital drone dispatch simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newCatalogCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		dbPath        string
		floorplanPath string
		wait          time.Duration
		seed          int64
		verbose       bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dispatch a demo set of deliveries and print statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logrus.New()
			if !verbose {
				log.SetLevel(logrus.WarnLevel)
			}

			database, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer database.Close()
			patients := repository.NewPatientRepository(database)

			fp, err := config.LoadFloorplan(floorplanPath)
			if err != nil {
				return err
			}
			g := fp.BuildGraph()
			p := planner.New(g, fp.PlannerBounds(), rand.New(rand.NewSource(seed)))
			d := dispatch.New(g, p, patients, dispatch.Options{
				Logger:           log,
				ChargingStations: fp.ChargingStations,
			})
			for _, drone := range fp.Drones {
				if _, err := d.AddDrone(drone.Location, drone.Emergency); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Fleet ready: %d drones on %d locations\n", len(fp.Drones), len(fp.Locations))

			demo := []dispatch.RequestInput{
				{
					RequesterID: "DR001", RequesterName: "Dr. Chen", RequesterLocationID: 2,
					Priority: models.CTASI, Emergency: true, PatientID: "P001",
					Description:  "cardiac arrest medication to ICU",
					PayloadItems: map[string]int{"med_epinephrine": 1, "emerg_defibrillator_pad": 1},
				},
				{
					RequesterID: "NU014", RequesterName: "Nurse Patel", RequesterLocationID: 6,
					Priority: models.CTASIII, PatientID: "P003",
					Description:  "antibiotics to Ward A",
					PayloadItems: map[string]int{"med_antibiotics": 2, "med_saline_bag": 1},
				},
				{
					RequesterID: "NU015", RequesterName: "Nurse Okafor", RequesterLocationID: 7,
					Priority: models.CTASV,
					Description:  "meal service to Ward B",
					PayloadItems: map[string]int{"food_meal": 8, "food_drink": 4},
				},
				{
					RequesterID: "DR002", RequesterName: "Dr. Wilson", RequesterLocationID: 4,
					Priority: models.CTASII, PatientID: "P005",
					Description:  "stat blood samples to Lab",
					PayloadItems: map[string]int{"lab_blood_vial": 3},
				},
			}

			for _, in := range demo {
				id, err := d.CreateRequest(ctx, in)
				if err != nil {
					return fmt.Errorf("create %q: %w", in.Description, err)
				}
				req, _ := d.GetRequest(id)
				fmt.Fprintf(out, "request %d (%s): %s, status=%s\n",
					id, req.Priority.DisplayName(), in.Description, req.Status)
			}

			fmt.Fprintf(out, "running simulated flights for %s...\n", wait)
			time.Sleep(wait)

			stats := d.GetStatistics()
			fmt.Fprintf(out, "\ncompleted %d/%d requests, %d pending\n",
				stats.CompletedRequests, stats.TotalRequests, stats.PendingRequests)
			fmt.Fprintf(out, "energy saved: %.4f kWh, CO2 saved: %.4f kg\n",
				stats.TotalEnergySavedKWh, stats.TotalCO2SavedKg)

			for _, drone := range d.Drones() {
				fmt.Fprintf(out, "drone %d: %s at location %d, battery %.2f/%.2f kWh\n",
					drone.ID, drone.Status, drone.CurrentLocationID,
					drone.BatteryLevelKWh, drone.BatteryCapacityKWh)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "file:simulate?mode=memory&cache=shared", "SQLite database path")
	cmd.Flags().StringVar(&floorplanPath, "floorplan", "", "floorplan YAML (empty uses the built-in layout)")
	cmd.Flags().DurationVar(&wait, "wait", 90*time.Second, "how long to let simulated flights run")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "path planner random seed")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log dispatcher activity")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the deliverable item catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, category := range items.Categories() {
				fmt.Fprintf(out, "%s:\n", category)
				for _, item := range items.ByCategory(category) {
					fmt.Fprintf(out, "  %-24s %-28s %.2f kg  priority %d/%d\n",
						item.ID, item.Name, item.WeightKg, item.EmergencyPriority, item.RoutinePriority)
				}
			}
			return nil
		},
	}
}
