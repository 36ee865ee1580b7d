package main

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/cli/cmds/boardcmd"
	"github.com/robotalks/twinboard/pkg/cli/sh"
	"github.com/robotalks/twinboard/pkg/env"
	"github.com/robotalks/twinboard/pkg/firmware"
	"github.com/robotalks/twinboard/pkg/framework"
	"github.com/robotalks/twinboard/pkg/sim"
	"github.com/robotalks/twinboard/pkg/sim/term"
	"github.com/robotalks/twinboard/pkg/telemetry"
)

var uiMode = "shell"

func init() {
	env.SetupFlags()
	flag.StringVar(&uiMode, "ui", uiMode, "User interface: shell, term or none.")
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	display, matrix := &sim.Display{}, sim.NewMatrix()
	b := firmware.New(conf.FirmwareConfig(), display, matrix, conf.MustOpenLink())

	var extras []framework.Runnable
	q, err := conf.NewQueue("board")
	if err != nil {
		log.Fatalln(err)
	}
	if q != nil {
		if token := q.Connect(); token.Wait() && token.Error() != nil {
			log.Fatalln(token.Error())
		}
		defer q.Close()
		// the loop runs the reporter as it's also Runnable
		b.Loop.Add(telemetry.NewReporter(b, q))
	}

	runner := framework.NewRunner().HandleSignals()
	switch uiMode {
	case "shell":
		ctx, cancel := context.WithCancel(runner.Context)
		runner.GoWith(ctx, framework.RunFunc(func(ctx context.Context) error {
			return b.Run(ctx, extras...)
		}))
		sh.New(&boardcmd.Target{Board: b, Matrix: matrix}, conf.ID).Run(flag.Args()...)
		cancel()
	case "term":
		extras = append(extras, framework.NamedRun("term", term.New(b, display, matrix)))
		fallthrough
	case "none":
		runner.Go(framework.RunFunc(func(ctx context.Context) error {
			return b.Run(ctx, extras...)
		}))
	default:
		log.Fatalf("unknown ui %q", uiMode)
	}
	if err := runner.Wait(); err != nil {
		glog.Errorf("board stopped: %v", err)
	}
	glog.Flush()
}
