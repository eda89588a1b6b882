package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/devopsext/vmclient/common"
	"github.com/devopsext/vmclient/metrics"
	"github.com/devopsext/vmclient/provider"
	"github.com/spf13/cobra"
)

var VERSION = "unknown"

var logs = common.NewLogs()
var stdout *provider.Stdout
var mainWG sync.WaitGroup

type RootOptions struct {
	Logs     []string
	Workload string
	Instance string
}

var rootOptions = RootOptions{

	Logs:     []string{"stdout"},
	Workload: "",
	Instance: common.GetGuid(),
}

var stdoutOptions = provider.StdoutOptions{

	Format:          "text",
	Level:           "info",
	Template:        "{{.file}} {{.msg}}",
	TimestampFormat: time.RFC3339Nano,
	TextColors:      true,
}

var exporterOptions = provider.ExporterOptions{

	URL:            provider.DefaultExporterURL,
	Listen:         provider.DefaultExporterListen,
	ProcessMetrics: false,
}

func interceptSyscall(exporter *provider.Exporter) {

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-c
		logs.Info("Exiting...")
		exporter.Stop()
	}()
}

func feed(registry *metrics.Registry, workload Workload, stop <-chan struct{}) error {

	feeders, err := workload.Register(registry, rootOptions.Instance)
	if err != nil {
		return err
	}
	logs.Info("Registered %d workload metrics, %d in total", len(feeders), registry.Size())

	mainWG.Add(1)
	go func() {
		defer mainWG.Done()

		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		ticker := time.NewTicker(workload.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				for _, f := range feeders {
					f(r)
				}
			}
		}
	}()
	return nil
}

func serve() error {

	workload, err := loadWorkload(rootOptions.Workload)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry(metrics.WithLogger(logs))
	exporter := provider.NewExporter(exporterOptions, registry, logs, stdout)

	stop := make(chan struct{})
	if err := feed(registry, workload, stop); err != nil {
		return err
	}

	interceptSyscall(exporter)

	ok := exporter.Start()
	close(stop)
	mainWG.Wait()

	if !ok {
		return fmt.Errorf("exporter failed on %s", exporterOptions.Listen)
	}
	return nil
}

func Execute() {

	rootCmd := &cobra.Command{
		Use:   "vmclient",
		Short: "VictoriaMetrics compatible metrics client",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {

			stdoutOptions.Version = VERSION
			stdout = provider.NewStdout(stdoutOptions)
			if stdout == nil {
				fmt.Fprintln(os.Stderr, "Invalid stdout options")
				os.Exit(1)
			}
			stdout.SetCallerOffset(2)
			if common.HasElem(rootOptions.Logs, "stdout") {
				logs.Register(stdout)
			}

			logs.Info("Booting...")
		},
	}

	flags := rootCmd.PersistentFlags()

	flags.StringSliceVar(&rootOptions.Logs, "logs", rootOptions.Logs, "Log providers: stdout")

	flags.StringVar(&stdoutOptions.Format, "stdout-format", stdoutOptions.Format, "Stdout format: json, text, template")
	flags.StringVar(&stdoutOptions.Level, "stdout-level", stdoutOptions.Level, "Stdout level: info, warn, error, debug, panic")
	flags.StringVar(&stdoutOptions.Template, "stdout-template", stdoutOptions.Template, "Stdout template")
	flags.StringVar(&stdoutOptions.TimestampFormat, "stdout-timestamp-format", stdoutOptions.TimestampFormat, "Stdout timestamp format")
	flags.BoolVar(&stdoutOptions.TextColors, "stdout-text-colors", stdoutOptions.TextColors, "Stdout text colors")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Register workload metrics, feed them and expose them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	serveFlags := serveCmd.Flags()
	serveFlags.StringVar(&exporterOptions.URL, "exporter-url", exporterOptions.URL, "Exporter endpoint url")
	serveFlags.StringVar(&exporterOptions.Listen, "exporter-listen", exporterOptions.Listen, "Exporter listen")
	serveFlags.BoolVar(&exporterOptions.ProcessMetrics, "exporter-process-metrics", exporterOptions.ProcessMetrics, "Exporter exposes go_* and process_* metrics")
	serveFlags.StringVar(&rootOptions.Workload, "workload", rootOptions.Workload, "Workload YAML file")
	serveFlags.StringVar(&rootOptions.Instance, "instance", rootOptions.Instance, "Instance label value")

	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(VERSION)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		logs.Error(err)
		os.Exit(1)
	}
}
