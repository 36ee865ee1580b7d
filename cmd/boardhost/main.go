package main

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/cli/sh"
	"github.com/robotalks/twinboard/pkg/env"
	"github.com/robotalks/twinboard/pkg/framework"
	"github.com/robotalks/twinboard/pkg/host"

	_ "github.com/robotalks/twinboard/pkg/cli/cmds/hostcmd"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	driver, err := conf.OpenLink()
	if err != nil {
		log.Fatalln(err)
	}
	peer := host.New(driver)

	runner := framework.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	runner.GoWith(ctx, framework.NamedRun("peer", peer))
	sh.New(peer, "host "+conf.ID).Run(flag.Args()...)
	cancel()
	if err := runner.Wait(); err != nil {
		glog.Errorf("link stopped: %v", err)
	}
	glog.Flush()
}
