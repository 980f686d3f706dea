// Command windower-gen produces synthetic CAN dump data for exercising
// the windower: either a JSON dump file, or a live replay onto a Kafka
// topic for watch-mode testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

var (
	out      = flag.String("out", "can_dump.json", "output JSON file")
	count    = flag.Int("count", 1000, "number of records to generate")
	hz       = flag.Float64("hz", 20, "records per second of simulated time")
	broker   = flag.String("broker", "", "Kafka broker; when set, replay to Kafka instead of writing a file")
	topic    = flag.String("topic", "can-records", "Kafka topic for replay")
	interval = flag.Duration("interval", 50*time.Millisecond, "wall-clock delay between replayed records")
	seed     = flag.Int64("seed", 0, "random seed (0 means time-based)")
)

type rawRecord struct {
	Name      string  `json:"name"`
	Timestamp float64 `json:"timestamp"`
	ID        int     `json:"id"`
	Data      string  `json:"data"`
	Raw       string  `json:"raw"`
}

func main() {
	flag.Parse()

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	records := generate(rng, *count, *hz)

	if *broker != "" {
		if err := replay(records); err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
		return
	}

	encoded, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		log.Fatalf("Error marshalling records: %v", err)
	}
	if err := os.WriteFile(*out, encoded, 0644); err != nil {
		log.Fatalf("Error writing %s: %v", *out, err)
	}
	log.Printf("Wrote %d records to %s", len(records), *out)
}

// generate builds a plausible CAN dump: BRAKE, SPEED and STEERING
// records at a fixed rate, with occasional Unknown frames and malformed
// payloads so the normalizer has something to drop.
func generate(rng *rand.Rand, n int, hz float64) []rawRecord {
	records := make([]rawRecord, 0, n)
	base := float64(time.Now().Unix())
	dt := 1.0 / hz

	for i := 0; i < n; i++ {
		ts := base + float64(i)*dt
		switch rng.Intn(10) {
		case 0, 1, 2:
			amount := 30 + rng.Intn(30)
			pedal := 10 + rng.Intn(15)
			records = append(records, rawRecord{
				Name:      "BRAKE",
				Timestamp: ts,
				ID:        166,
				Data:      fmt.Sprintf(`{"BRAKE_AMOUNT": %d, "BRAKE_PEDAL": %d}`, amount, pedal),
				Raw:       fmt.Sprintf("0x%016x", rng.Uint64()),
			})
		case 3, 4, 5, 6:
			speed := 10.0 + rng.Float64()*20.0
			records = append(records, rawRecord{
				Name:      "SPEED",
				Timestamp: ts,
				ID:        180,
				Data:      fmt.Sprintf(`{"ENCODER": %d, "SPEED": %.2f, "CHECKSUM": %d}`, rng.Intn(4), speed, rng.Intn(256)),
				Raw:       fmt.Sprintf("0x%016x", rng.Uint64()),
			})
		case 7, 8:
			angle := -45.0 + rng.Float64()*90.0
			records = append(records, rawRecord{
				Name:      "STEERING",
				Timestamp: ts,
				ID:        37,
				Data:      fmt.Sprintf(`{"STEER_ANGLE": %.1f, "STEER_FRACTION": %.3f}`, angle, rng.Float64()),
				Raw:       fmt.Sprintf("0x%016x", rng.Uint64()),
			})
		default:
			// Unattributed frame with a non-JSON payload.
			records = append(records, rawRecord{
				Name:      "Unknown",
				Timestamp: ts,
				ID:        303,
				Data:      fmt.Sprintf("%016x", rng.Uint64()),
				Raw:       fmt.Sprintf("0x%016x", rng.Uint64()),
			})
		}
	}
	return records
}

// replay writes the generated records to a Kafka topic, one message per
// record, paced by the configured interval.
func replay(records []rawRecord) error {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(*broker),
		Topic:    *topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Printf("Error closing kafka writer: %v", err)
		}
	}()
	log.Printf("Replaying %d records to topic %s on %s", len(records), *topic, *broker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		log.Println("Shutdown signal received, stopping replay...")
		cancel()
	}()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for i, rec := range records {
		select {
		case <-ticker.C:
			msgBytes, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := writer.WriteMessages(ctx, kafka.Message{Value: msgBytes}); err != nil {
				if ctx.Err() != nil {
					log.Println("Context cancelled, exiting replay loop.")
					return nil
				}
				return err
			}
			if (i+1)%100 == 0 {
				log.Printf("Replayed %d/%d records", i+1, len(records))
			}

		case <-ctx.Done():
			log.Println("Replay stopped.")
			return nil
		}
	}
	return nil
}
