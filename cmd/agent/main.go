// Copyright 2025 VeloxVOIP.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/livekit/protocol/logger"

	"github.com/veloxvoip/telephony-agent/pkg/agent"
	"github.com/veloxvoip/telephony-agent/pkg/config"
	"github.com/veloxvoip/telephony-agent/version"
)

func main() {
	cmd := &cli.Command{
		Name:        "agent",
		Usage:       "Voice assistant worker",
		Version:     version.Version,
		Description: "Answers and drives phone calls routed through LiveKit SIP",
		Action:      runWorker,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runWorker(_ context.Context, _ *cli.Command) error {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	conf := config.NewConfig()
	if err := conf.Init(); err != nil {
		return err
	}
	log := logger.GetLogger()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGTERM, syscall.SIGQUIT)

	killChan := make(chan os.Signal, 1)
	signal.Notify(killChan, syscall.SIGINT)

	worker, err := agent.NewWorker(conf)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case sig := <-stopChan:
			log.Infow("exit requested, draining active calls", "signal", sig)
			cancel()
		case sig := <-killChan:
			log.Infow("exit requested, shutting down", "signal", sig)
			cancel()
		}
	}()

	log.Infow("worker starting", "agent", conf.AgentName, "version", version.Version)
	return worker.Run(ctx)
}
