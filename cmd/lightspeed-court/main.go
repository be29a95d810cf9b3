package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/eventlog"
	"github.com/tcriess/lightspeed-court/filter"
	"github.com/tcriess/lightspeed-court/globals"
	"github.com/tcriess/lightspeed-court/persistence"
	"github.com/tcriess/lightspeed-court/plugins"
	"github.com/tcriess/lightspeed-court/ws"
)

var (
	configPath    = pflag.StringP("config", "c", "", "path to config file or directory")
	logSinkPlugin = pflag.StringSliceP("plugin", "p", nil, "path(s) to log sink plugin(s)")
	addr          = pflag.String("addr", "localhost:27016", "ws service address (including port)")
	sslCert       = pflag.String("ssl-cert", "", "SSL cert for websocket (optional)")
	sslKey        = pflag.String("ssl-key", "", "SSL key for websocket (optional)")
)

func main() {
	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)
	pflag.Parse()

	cfg, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		globals.AppLogger.Error("could not read configuration", "error", err)
		os.Exit(1)
	}
	globals.AppLogger.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	persister, err := persistence.NewPersister(cfg)
	if err != nil {
		globals.AppLogger.Error("could not open persistence", "error", err)
		os.Exit(1)
	}
	if persister != nil {
		defer persister.Close()
	} else {
		globals.AppLogger.Warn("no persistence configured, bans and moderator accounts are disabled")
	}

	router, err := newRouter(cfg)
	if err != nil {
		globals.AppLogger.Error("could not set up the event log", "error", err)
		os.Exit(1)
	}
	defer plugin.CleanupClients()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := ws.NewServer(cfg, router, persister)
	server.Run(ctx)

	var cronRunner *cron.Cron
	if persister != nil && cfg.BanSweepSpec != "" {
		cronRunner = cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
		_, err := cronRunner.AddFunc(cfg.BanSweepSpec, func() {
			n, err := persister.DeleteExpiredBans(time.Now())
			if err != nil {
				globals.AppLogger.Error("could not delete expired bans", "error", err)
				return
			}
			globals.AppLogger.Debug("deleted expired bans", "count", n)
		})
		if err != nil {
			globals.AppLogger.Error("invalid ban sweep spec, sweeping disabled", "spec", cfg.BanSweepSpec, "error", err)
		} else {
			cronRunner.Start()
		}
	}

	r := mux.NewRouter()
	r.HandleFunc("/", server.ServeWS).Methods(http.MethodGet)
	httpServer := &http.Server{Addr: *addr, Handler: r}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		globals.AppLogger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			globals.AppLogger.Error("http shutdown", "error", err)
		}
	}()

	globals.AppLogger.Info("listening", "addr", *addr, "areas", len(server.Areas), "hubs", len(server.Hubs))
	if *sslCert != "" && *sslKey != "" {
		err = httpServer.ListenAndServeTLS(*sslCert, *sslKey)
	} else {
		err = httpServer.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		globals.AppLogger.Error("stopped listening", "error", err)
	}

	if cronRunner != nil {
		<-cronRunner.Stop().Done()
	}
	cancel()
	server.Wait()
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := router.Close(closeCtx); err != nil {
		globals.AppLogger.Warn("event log did not drain", "error", err)
	}
}

// newRouter builds the event log router from the built-in sinks and the plugins given on the command line.
func newRouter(cfg *config.Config) (*eventlog.Router, error) {
	var globalFilter *filter.Filter
	if cfg.LogFilter != "" {
		f, err := filter.Compile(cfg.LogFilter)
		if err != nil {
			return nil, err
		}
		globalFilter = f
	}
	sinks := []eventlog.NamedSink{
		{Name: "log", Sink: eventlog.NewHCLogSink(globals.AppLogger.Named("events")), Filter: globalFilter},
	}
	if cfg.LogFile != "" {
		fileSink, err := eventlog.NewFileSink(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, eventlog.NamedSink{Name: "file", Sink: fileSink, Filter: globalFilter})
	}
	for _, path := range *logSinkPlugin {
		sink, err := plugins.Load(path, cfg.PluginConfigs)
		if err != nil {
			return nil, err
		}
		named := eventlog.NamedSink{Name: sink.Name, Sink: sink}
		if sink.EventFilter != "" {
			f, err := filter.Compile(sink.EventFilter)
			if err != nil {
				return nil, err
			}
			named.Filter = f
		}
		globals.AppLogger.Info("loaded plugin", "plugin", sink.Name, "filter", sink.EventFilter)
		sinks = append(sinks, named)
	}
	return eventlog.NewRouter(eventlog.Config{AreaBufferSize: cfg.LogBufferSize}, sinks), nil
}
