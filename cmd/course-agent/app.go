package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tailored-agentic-units/course-agent/kernel"
	"github.com/tailored-agentic-units/course-agent/notify"
	"github.com/tailored-agentic-units/course-agent/observability"
	"github.com/tailored-agentic-units/course-agent/operate"
	"github.com/tailored-agentic-units/course-agent/session"
	"github.com/tailored-agentic-units/course-agent/store/sqlite"
	"github.com/tailored-agentic-units/course-agent/transcript"
)

// app holds the collaborators shared by serve and chat.
type app struct {
	store       *sqlite.Store
	kernel      *kernel.Kernel
	executor    *operate.Executor
	sessions    *session.Manager
	transcripts transcript.Store
	metrics     *prometheus.Registry
}

func newApp(cfg *Config) (*app, error) {
	store, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetricsObserver(reg)
	if err != nil {
		store.Close()
		return nil, err
	}
	base, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		store.Close()
		return nil, err
	}
	observer := observability.Multi(base, metrics)

	k, err := kernel.New(&cfg.Config, kernel.WithObserver(observer))
	if err != nil {
		store.Close()
		return nil, err
	}

	publishers := []notify.Publisher{store}
	if rp := notify.NewPublisher(&cfg.Notify); rp != nil {
		publishers = append(publishers, rp)
	}

	transcripts, err := transcript.NewStore(&cfg.Transcript)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("transcript store: %w", err)
	}

	return &app{
		store:  store,
		kernel: k,
		executor: operate.New(
			operate.WithObserver(observer),
			operate.WithPublisher(notify.Multi(publishers...)),
			operate.WithPolicy(k.Policy()),
		),
		sessions:    session.NewManager(&cfg.Session),
		transcripts: transcripts,
		metrics:     reg,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
