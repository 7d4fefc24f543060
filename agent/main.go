package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"talk2cam/agent/internal/action"
	"talk2cam/agent/internal/camera"
	"talk2cam/agent/internal/command"
	"talk2cam/agent/internal/companion"
	"talk2cam/agent/internal/config"
	"talk2cam/agent/internal/connection"
	"talk2cam/agent/internal/db"
	"talk2cam/agent/internal/events"
	"talk2cam/agent/internal/logger"
	"talk2cam/agent/internal/pairing"
	"talk2cam/agent/internal/presence"
	"talk2cam/agent/internal/settings"
	"talk2cam/network"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: talk2cam [-config path] [run | send <payload>]")
}

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Usage = usage
	flag.Parse()

	cfgVals := config.Init(*cfgPath)
	if err := logger.Init(cfgVals.LogPath, cfgVals.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "error: open log: %v\n", err)
		os.Exit(1)
	}

	var err error
	switch flag.Arg(0) {
	case "", "run":
		err = run(cfgVals)
	case "send":
		if flag.NArg() < 2 {
			usage()
			os.Exit(1)
		}
		// inject a datagram into a running agent, as the companion would
		err = network.SendText("127.0.0.1", cfgVals.ListenPort, flag.Arg(1))
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		var bindErr *network.BindError
		if errors.As(err, &bindErr) {
			logger.Errorf("Cannot listen for the companion on %s: %v", bindErr.Addr, bindErr.Err)
		} else {
			logger.Error(err)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionID := uuid.NewString()
	logger.Infof("Starting %s session %s", cfg.AppName, sessionID)

	adb, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	if sqlDB, err := adb.DB(); err == nil {
		defer sqlDB.Close()
	}
	vals, err := settings.NewStore(adb).Seed(ctx, settings.Values{
		AppName: cfg.AppName,
		Version: cfg.AppVersion,
		AppKey:  cfg.AppKey,
	})
	if err != nil {
		return err
	}

	ch, err := network.ListenUDP(cfg.ListenHost, cfg.ListenPort)
	if err != nil {
		return err
	}
	defer ch.Close()
	logger.Infof("Listening for the companion on udp port %d", ch.Port())

	pres, err := newPresence(cfg)
	if err != nil {
		return err
	}
	if c, ok := pres.(io.Closer); ok {
		defer c.Close()
	}
	publisher := newPublisher(cfg)
	if c, ok := publisher.(io.Closer); ok {
		defer c.Close()
	}

	client := companion.New(ch, cfg.CompanionHost, cfg.CompanionPort, pres)
	cam := camera.New(adb, cfg.PhotoDir, sessionID)
	dispatcher := command.NewManager()
	dispatcher.Register(action.TakePicture.Command, command.TakePicture{Camera: cam, Notifier: client})

	machine := pairing.New(pairing.Options{
		SessionID:   sessionID,
		AppName:     vals.AppName,
		Version:     vals.Version,
		AppKey:      vals.AppKey,
		Description: cfg.AppDescription,
		Port:        ch.Port(),
		Actions:     action.DefaultSet(),
	}, client, dispatcher, publisher)

	config.Watch(func(e fsnotify.Event, c config.AppConfig) {
		logger.SetLevel(c.LogLevel)
		logger.Infof("Config %s changed, log level %s", e.Name, c.LogLevel)
	})

	loop := connection.New(ch, machine, client.Ready())
	client.Start()
	err = loop.Run(ctx)
	logger.Infof("Session %s ended in state %s", sessionID, machine.State())
	return err
}

func newPresence(cfg config.AppConfig) (companion.Presence, error) {
	switch cfg.Presence {
	case "dbus":
		d, err := presence.NewDBus(cfg.DBusBus, cfg.DBusProName, cfg.DBusServiceName)
		if err != nil {
			return nil, fmt.Errorf("companion presence: %w", err)
		}
		return d, nil
	case "static", "":
		return presence.Static{Pro: cfg.ProInstalled, Service: cfg.ServiceInstalled}, nil
	default:
		return nil, fmt.Errorf("unknown companion presence mode %q", cfg.Presence)
	}
}

func newPublisher(cfg config.AppConfig) events.Publisher {
	if cfg.RedisAddr == "" {
		return events.Nop{}
	}
	logger.Infof("Publishing session events to redis %s channel %s", cfg.RedisAddr, cfg.EventsChannel)
	return events.NewRedis(cfg.RedisAddr, cfg.EventsChannel)
}
