package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	orderv1 "github.com/akhil9281/AlgoTest-OrderApi/internal/domain/order/v1"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// generateRequests creates a realistic request mix: mostly inserts around
// the base price, with occasional modifies and cancels of earlier orders.
func generateRequests(count int, basePricePaise, priceSpreadPaise int64) []orderv1.Request {
	requests := make([]orderv1.Request, 0, count)
	var placed []string

	for i := 0; i < count; i++ {
		roll := rand.Float64()

		switch {
		case roll < 0.1 && len(placed) > 0:
			// Cancel a random earlier order
			requests = append(requests, orderv1.Request{
				RequestID: uuid.NewString(),
				TS:        time.Now().UTC(),
				Op:        orderv1.OpCancel,
				Order: orderv1.OrderPayload{
					ID: placed[rand.Intn(len(placed))],
				},
			})

		case roll < 0.2 && len(placed) > 0:
			// Re-price a random earlier order
			requests = append(requests, orderv1.Request{
				RequestID: uuid.NewString(),
				TS:        time.Now().UTC(),
				Op:        orderv1.OpModify,
				Order: orderv1.OrderPayload{
					ID:         placed[rand.Intn(len(placed))],
					PricePaise: basePricePaise + rand.Int63n(priceSpreadPaise) - priceSpreadPaise/2,
				},
			})

		default:
			side := orderv1.Buy
			price := basePricePaise - rand.Int63n(priceSpreadPaise)
			if rand.Float64() < 0.5 {
				side = orderv1.Sell
				price = basePricePaise + rand.Int63n(priceSpreadPaise)
			}
			if price <= 0 {
				price = basePricePaise
			}

			orderID := uuid.NewString()
			placed = append(placed, orderID)

			requests = append(requests, orderv1.Request{
				RequestID: uuid.NewString(),
				TS:        time.Now().UTC(),
				Op:        orderv1.OpInsert,
				Order: orderv1.OrderPayload{
					ID:         orderID,
					Side:       side,
					PricePaise: price,
					Qty:        1 + rand.Int63n(100),
				},
			})
		}
	}

	return requests
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker address")
		topic       = flag.String("topic", "orders.requests", "Kafka request topic name")
		file        = flag.String("file", "", "JSON file with requests (optional, generates requests if not provided)")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending requests")
		count       = flag.Int("count", 1000, "Number of requests to generate")
		basePrice   = flag.Int64("base-price", 394_550, "Base price in paise")
		priceSpread = flag.Int64("price-spread", 20_000, "Price spread range in paise")
	)
	flag.Parse()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(*brokers),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	var requests []orderv1.Request
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read file %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &requests); err != nil {
			log.Fatalf("Failed to parse JSON from file: %v", err)
		}
		log.Printf("Loaded %d requests from file: %s", len(requests), *file)
	} else {
		log.Printf("Generating %d requests...", *count)
		requests = generateRequests(*count, *basePrice, *priceSpread)
	}

	log.Printf("Sending requests to broker %s, topic %s", *brokers, *topic)

	for i, request := range requests {
		payload, err := json.Marshal(request)
		if err != nil {
			log.Printf("Failed to marshal request %d: %v", i+1, err)
			continue
		}

		msg := kafka.Message{
			Key:   []byte(request.RequestID),
			Value: payload,
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send request %d (%s): %v", i+1, request.RequestID, err)
			continue
		}

		if (i+1)%100 == 0 || i == len(requests)-1 {
			log.Printf("Sent request %d/%d: %s %s", i+1, len(requests), request.Op, request.Order.ID)
		}

		if i < len(requests)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Successfully sent all %d requests!", len(requests))
}
