// Spammer publishes synthetic observation messages to the ingest topic for
// load testing the consumer path.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

type observation struct {
	Date      string  `json:"date"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PlaceIDs  *[]int  `json:"place_ids,omitempty"`
}

func main() {
	var (
		brokers  = flag.String("brokers", "localhost:9092", "comma-separated kafka brokers")
		topic    = flag.String("topic", "observations", "target topic")
		rate     = flag.Int("rate", 10, "messages per second")
		duration = flag.Duration("duration", 30*time.Second, "how long to spam")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	defer writer.Close()

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(time.Second / time.Duration(*rate))
	defer ticker.Stop()
	deadline := time.After(*duration)

	var sent int
	log.Printf("spamming %s at %d msg/s for %v", *topic, *rate, *duration)
	for {
		select {
		case <-ctx.Done():
			log.Printf("interrupted, sent %d", sent)
			return
		case <-deadline:
			log.Printf("done, sent %d", sent)
			return
		case <-ticker.C:
			obs := observation{
				Date:      time.Now().AddDate(0, 0, r.Intn(30)-15).Format("2006-01-02"),
				Latitude:  r.Float64()*180 - 90,
				Longitude: r.Float64()*360 - 180,
			}
			value, _ := json.Marshal(obs)
			if err := writer.WriteMessages(ctx, kafka.Message{Value: value}); err != nil {
				log.Printf("write failed: %v", err)
				continue
			}
			sent++
		}
	}
}
