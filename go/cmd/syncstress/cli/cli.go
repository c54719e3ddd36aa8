/*
Copyright 2026 The Vitess Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cli implements the syncstress command.
package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/StephenCleary/AsyncEx-sub001/go/stats/prometheusbackend"
	"github.com/StephenCleary/AsyncEx-sub001/go/test/stress"
	"github.com/StephenCleary/AsyncEx-sub001/go/timer"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/log"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/vterrors"
)

const envPrefix = "SYNCSTRESS"

var (
	metricsOnce sync.Once
	metricsMux  = http.NewServeMux()
)

type options struct {
	configFile     string
	metricsAddr    string
	reportInterval time.Duration
	format         string
	stressFlags    *pflag.FlagSet
}

// New returns the syncstress root command.
func New() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "syncstress",
		Short: "syncstress runs concurrent workloads against the sync2 primitives and checks their guarantees.",
		Example: `syncstress \
	--workloads lock,rwlock,race \
	--workers 16 \
	--duration 30s \
	--producer-rate 1000 \
	--metrics-addr localhost:15000`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.configFile, "config", "", "config file (json, yaml or toml) holding stress settings")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, disabled if empty")
	fs.StringVar(&opts.format, "format", "table", "format of the summary: table or text")
	fs.DurationVar(&opts.reportInterval, "report-interval", time.Second, "interval between progress reports, disabled if zero")
	opts.stressFlags = stressFlags()
	fs.AddFlagSet(opts.stressFlags)
	log.RegisterFlags(cmd.PersistentFlags())
	return cmd
}

// stressFlags returns the flags that map onto stress.Config.
func stressFlags() *pflag.FlagSet {
	def := stress.DefaultConfig()
	fs := pflag.NewFlagSet("stress", pflag.ContinueOnError)
	fs.StringSlice("workloads", def.Workloads, "workloads to run, any of "+strings.Join(stress.AllWorkloads, ", "))
	fs.Int("workers", def.Workers, "goroutines per workload")
	fs.Duration("duration", def.Duration, "duration of each workload")
	fs.Int64("semaphore-slots", def.SemaphoreSlots, "initial count of the semaphore workload")
	fs.Int("queue-capacity", def.QueueCapacity, "capacity of each queue of the queue and race workloads")
	fs.Int("queues", def.Queues, "number of queues of the race workload")
	fs.Float64("producer-rate", def.ProducerRate, "items per second allowed to each producer, unlimited if zero")
	return fs
}

// loadConfig merges, from lowest to highest precedence, the flag defaults,
// the config file, SYNCSTRESS_* environment variables and the flags set on
// the command line.
func loadConfig(fs *pflag.FlagSet, configFile string) (stress.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return stress.Config{}, err
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return stress.Config{}, vterrors.Wrapf(err, "reading config file %s", configFile)
		}
	}

	cfg := stress.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return stress.Config{}, vterrors.Wrap(err, "decoding stress config")
	}
	return cfg, cfg.Validate()
}

func (opts *options) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if opts.format != "table" && opts.format != "text" {
		return vterrors.Errorf(vterrors.InvalidArgument, "unknown format %q, want table or text", opts.format)
	}
	cfg, err := loadConfig(opts.stressFlags, opts.configFile)
	if err != nil {
		return err
	}
	s, err := stress.New(cfg)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		_, stop, err := serveMetrics(opts.metricsAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	if opts.reportInterval > 0 {
		reporter := timer.NewTimer(opts.reportInterval)
		reporter.Start(func() {
			log.InfoS("stress progress", "run_id", s.RunID(), "operations", stress.Operations())
		})
		defer reporter.Stop()
	}

	res, err := s.Run(ctx)
	if opts.format == "text" {
		res.Print(cmd.OutOrStdout())
	} else if terr := res.Table(cmd.OutOrStdout()); terr != nil {
		log.Errorf("rendering results: %v", terr)
	}
	if errors.Is(err, context.Canceled) {
		log.Infof("stress run %s interrupted", s.RunID())
		return nil
	}
	return err
}

// serveMetrics serves the Prometheus metrics until the returned func is
// called. It returns the address it listens on.
func serveMetrics(addr string) (string, func(), error) {
	metricsOnce.Do(func() {
		prometheusbackend.Init("syncstress", metricsMux)
	})
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, vterrors.Wrapf(err, "listening on %s", addr)
	}
	srv := &http.Server{Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second}
	log.Infof("serving metrics on http://%s/metrics", ln.Addr())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %v", err)
		}
	}()
	return ln.Addr().String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
