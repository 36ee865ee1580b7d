package main

import (
	"flag"
	"log"

	"github.com/robotalks/twinboard/pkg/env"
	"github.com/robotalks/twinboard/pkg/telemetry"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf := env.NewConfig()
	if conf.MQTTBrokerURL == "" {
		log.Fatalln("MQTT broker URL required, use -mqtt or TWINBOARD_MQTT_URL")
	}
	q, err := conf.NewQueue("monitor")
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	if _, err := telemetry.Subscribe(q, func(st *telemetry.BoardStatus) {
		log.Printf("%s: %s", st.ID, st.String())
	}); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
