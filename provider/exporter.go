package provider

import (
	"bytes"
	"net"
	"net/http"
	"strconv"
	"sync"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/devopsext/utils"
	"github.com/devopsext/vmclient/common"
	"github.com/devopsext/vmclient/metrics"
)

const (
	DefaultExporterURL    = "/metrics"
	DefaultExporterListen = "127.0.0.1:8080"
	exporterContentType   = "text/plain; version=0.0.4; charset=utf-8"
)

type ExporterOptions struct {
	URL            string `yaml:"url"`
	Listen         string `yaml:"listen"`
	ProcessMetrics bool   `yaml:"process_metrics"`
}

// Exporter serves the text exposition of a registry over HTTP.
type Exporter struct {
	options  ExporterOptions
	logger   common.Logger
	registry *metrics.Registry
	requests *metrics.Counter

	mu      sync.Mutex
	server  *http.Server
	stopped bool
}

func (e *Exporter) serve(w http.ResponseWriter, r *http.Request) {

	if e.requests != nil {
		e.requests.Inc()
	}

	var b bytes.Buffer
	if err := e.registry.Write(&b); err != nil {
		e.logger.Error(err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if e.options.ProcessMetrics {
		vm.WriteProcessMetrics(&b)
	}

	w.Header().Set("Content-Type", exporterContentType)
	w.Header().Set("Content-Length", strconv.Itoa(b.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := b.WriteTo(w); err != nil {
		e.logger.Debug("Unable to send metrics: %s", err)
	}
}

// Handler returns the handler that renders the registry.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(e.serve)
}

// Start listens on options.Listen and serves until Stop is called.
// It returns false when the listener cannot be created or serving fails.
// A stopped exporter cannot be started again.
func (e *Exporter) Start() bool {

	e.logger.Info("Start exporter endpoint...")

	listener, err := net.Listen("tcp", e.options.Listen)
	if err != nil {
		e.logger.Error(err)
		return false
	}

	mux := http.NewServeMux()
	mux.Handle(e.options.URL, e.Handler())

	server := &http.Server{Handler: mux}
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		listener.Close()
		return true
	}
	e.server = server
	e.mu.Unlock()

	e.logger.Info("Exporter is up. Listening on %s%s...", listener.Addr().String(), e.options.URL)
	err = server.Serve(listener)
	if err != nil && err != http.ErrServerClosed {
		e.logger.Error(err)
		return false
	}
	return true
}

func (e *Exporter) StartInWaitGroup(wg *sync.WaitGroup) {

	wg.Add(1)

	go func(wg *sync.WaitGroup) {

		defer wg.Done()
		e.Start()
	}(wg)
}

func (e *Exporter) Stop() {

	e.mu.Lock()
	server := e.server
	e.server = nil
	e.stopped = true
	e.mu.Unlock()

	if server != nil {
		server.Close()
		e.logger.Info("Exporter stopped")
	}
}

func NewExporter(options ExporterOptions, registry *metrics.Registry, logger common.Logger, stdout *Stdout) *Exporter {

	if logger == nil && stdout != nil {
		logger = stdout
	}
	if logger == nil {
		logger = common.NewLogs()
	}

	if utils.IsEmpty(options.URL) {
		options.URL = DefaultExporterURL
	}
	if utils.IsEmpty(options.Listen) {
		options.Listen = DefaultExporterListen
	}

	requests, err := registry.CreateCounter().
		Name("http_server_requests_total").
		Label("context", options.URL).
		Register()
	if err != nil {
		logger.Warn("Unable to register requests counter: %s", err)
	}

	return &Exporter{
		options:  options,
		logger:   logger,
		registry: registry,
		requests: requests,
	}
}
