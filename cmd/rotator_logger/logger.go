// Command rotator_logger records rotator telemetry from the status websocket
// into InfluxDB.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/w1xm/azel_rotator/telemetry"
)

func envDefault(name, value string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return value
}

var (
	influxServer = flag.String("influx_server", envDefault("INFLUX_SERVER", "http://localhost:9999"), "InfluxDB server URL")
	influxOrg    = flag.String("influx_org", "w1xm", "InfluxDB organization")
	influxBucket = flag.String("influx_bucket", "rotator.raw", "InfluxDB bucket")
	rotatorURL   = flag.String("rotator", envDefault("ROTATOR_ADDRESS", "ws://localhost:8502/api/ws"), "rotator status websocket URL")
)

func main() {
	flag.Parse()
	// Create client
	client := influxdb2.NewClient(*influxServer, os.Getenv("INFLUX_TOKEN"))
	defer client.Close()
	// Get non-blocking write client
	writeApi := client.WriteApi(*influxOrg, *influxBucket)
	defer writeApi.Close()
	// Get errors channel
	errorsCh := writeApi.Errors()
	// Create go proc for reading and logging errors
	go func() {
		for err := range errorsCh {
			log.Printf("write error: %v", err)
		}
	}()
	for {
		if err := logData(writeApi, *rotatorURL); err != nil {
			log.Print(err)
		}
		time.Sleep(1 * time.Second)
	}
}

func logData(writeApi api.WriteApi, url string) error {
	defer writeApi.Flush()
	var dialer websocket.Dialer
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	for {
		var status telemetry.Snapshot
		if err := conn.ReadJSON(&status); err != nil {
			return err
		}
		p := influxdb2.NewPoint("rotator.status",
			nil,
			status.Fields(),
			time.Now(),
		)
		// write asynchronously
		writeApi.WritePoint(p)
	}
}
