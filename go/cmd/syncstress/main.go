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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/StephenCleary/AsyncEx-sub001/go/cmd/syncstress/cli"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := cli.New()
	// glog registers its flags on the standard flag set.
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Error(err)
		log.Flush()
		cancel()
		os.Exit(1)
	}
	log.Flush()
}
