// arena-simulator drives the command topic with synthetic chat traffic:
// it opens a lobby per room, joins a few players and begins the match,
// over and over. Useful for load-testing the consumer and watching the
// websocket stream without a chat gateway.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
)

// ChatCommand mirrors the consumer's wire format.
type ChatCommand struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Player Player `json:"player"`
}

// Player mirrors the consumer's wire format.
type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Bot  bool   `json:"bot,omitempty"`
}

var playerPrefixes = []string{
	"Phoenix", "Shadow", "Thunder", "Storm", "Blaze", "Ninja", "Dragon", "Wolf", "Hawk", "Viper",
	"Ghost", "Titan", "Frost", "Cyber", "Nova", "Raven", "Omega", "Alpha", "Delta", "Sigma",
	"Ace", "Bolt", "Crash", "Dash", "Edge", "Flash", "Glitch", "Haze", "Ion", "Jade",
	"Knight", "Luna", "Mystic", "Neon", "Orion", "Pulse", "Quantum", "Rebel", "Spark", "Turbo",
}

func getPlayer(idx int) Player {
	prefixIdx := idx % len(playerPrefixes)
	suffix := idx/len(playerPrefixes) + 1
	return Player{
		ID:   int64(idx + 1),
		Name: fmt.Sprintf("%s%d", playerPrefixes[prefixIdx], suffix),
	}
}

func main() {
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "arena-commands", "Kafka topic")
	rooms := flag.Int("rooms", 3, "Number of rooms to run matches in")
	playersPerMatch := flag.Int("players", 4, "Players joining each match")
	matchInterval := flag.Duration("interval", 20*time.Second, "Delay between matches per room")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  🏟  Arena Command Simulator")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:          %s\n", *brokers)
	fmt.Printf("  Topic:            %s\n", *topic)
	fmt.Printf("  Rooms:            %d\n", *rooms)
	fmt.Printf("  Players/match:    %d\n", *playersPerMatch)
	fmt.Printf("  Match interval:   %s\n", *matchInterval)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	sendCommand := func(cmd ChatCommand) {
		data, err := json.Marshal(cmd)
		if err != nil {
			log.Printf("Failed to marshal command: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			// Key on the room so every room's commands stay ordered.
			Key:   sarama.StringEncoder(cmd.RoomID),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-done:
		}
	}

	// runRoom plays matches in one room forever: start, joins, begin,
	// then wait out the interval before the next lobby.
	runRoom := func(roomIdx int) {
		defer wg.Done()
		roomID := fmt.Sprintf("room-%d", roomIdx+1)
		// Each room draws from its own block of player identities.
		base := roomIdx * 100

		for {
			host := getPlayer(base)
			sendCommand(ChatCommand{Type: "start", RoomID: roomID, Player: host})
			// The lobby opens empty; the host joins like everyone else.
			sendCommand(ChatCommand{Type: "join", RoomID: roomID, Player: host})

			joiners := *playersPerMatch - 1
			for i := 0; i < joiners; i++ {
				select {
				case <-done:
					return
				case <-time.After(time.Duration(rand.Intn(2000)+500) * time.Millisecond):
				}
				sendCommand(ChatCommand{Type: "join", RoomID: roomID, Player: getPlayer(base + i + 1)})
			}

			select {
			case <-done:
				return
			case <-time.After(2 * time.Second):
			}
			sendCommand(ChatCommand{Type: "begin", RoomID: roomID, Player: host})

			select {
			case <-done:
				return
			case <-time.After(*matchInterval):
			}
		}
	}

	for i := 0; i < *rooms; i++ {
		wg.Add(1)
		go runRoom(i)
	}

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}

	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	for {
		select {
		case <-sigChan:
			fmt.Println("\n\nShutting down...")
			close(done)
			producer.AsyncClose()
			wg.Wait()
			fmt.Printf("\n✓ Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
			return

		case <-timeout:
			fmt.Println("\n\nDuration reached, shutting down...")
			close(done)
			producer.AsyncClose()
			wg.Wait()
			fmt.Printf("\n✓ Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
			return

		case <-statsTicker.C:
			fmt.Printf("[%s] Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
