//go:build grpcserver

package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"hospitalDroneLogistics/internal/config"
	"hospitalDroneLogistics/internal/db"
	"hospitalDroneLogistics/internal/dispatch"
	grpcserver "hospitalDroneLogistics/internal/grpc"
	"hospitalDroneLogistics/internal/planner"
	"hospitalDroneLogistics/repository"
)

func main() {
	log := logrus.New()

	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	log.WithField("config", cfg.String()).Info("configuration loaded")

	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("open db")
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.WithError(err).Warn("close db")
		}
	}()

	patients := repository.NewPatientRepository(d)
	staff := repository.NewStaffRepository(d)

	fp, err := config.LoadFloorplan(cfg.Floorplan.Path)
	if err != nil {
		log.WithError(err).Fatal("load floorplan")
	}
	g := fp.BuildGraph()
	p := planner.New(g, fp.PlannerBounds(), rand.New(rand.NewSource(time.Now().UnixNano())))
	dispatcher := dispatch.New(g, p, patients, dispatch.Options{
		Logger:           log,
		ChargingStations: fp.ChargingStations,
	})
	for _, drone := range fp.Drones {
		if _, err := dispatcher.AddDrone(drone.Location, drone.Emergency); err != nil {
			log.WithError(err).Fatal("register drone")
		}
	}

	shutdown, err := grpcserver.StartGRPC(cfg, dispatcher, staff)
	if err != nil {
		log.WithError(err).Fatal("start grpc")
	}
	log.WithField("address", cfg.GRPC.Address).Info("gRPC server listening")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.WithError(err).Warn("shutdown error")
	}
}
