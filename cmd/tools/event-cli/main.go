package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/neonite-mod/internal/eventbus"
)

const (
	defaultNATSURL = "nats://127.0.0.1:4222"
	timeFormat     = "2006-01-02T15:04:05Z"
)

func main() {
	var (
		natsURL    = flag.String("nats", defaultNATSURL, "NATS server URL")
		stream     = flag.String("stream", "NEONITE", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats, types")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		players    = flag.String("players", "", "Player IDs filter (comma-separated)")
		since      = flag.String("since", "", "Only events newer than duration or time (e.g., 1h, 30m)")
		limit      = flag.Int("limit", 100, "Maximum number of events")
		follow     = flag.Bool("follow", false, "Follow new events (like tail -f)")
		idle       = flag.Duration("idle", 2*time.Second, "Stop reading history after this much silence")
	)
	flag.Parse()

	if *command == "types" {
		showTypes()
		return
	}

	from, err := parseSinceTime(*since, time.Now())
	if err != nil {
		log.Fatalf("❌ Invalid since: %v", err)
	}

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 0)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &ReadOptions{
		Filter:  eventbus.Filter{Types: parseStringList(*eventTypes)},
		Players: parseStringList(*players),
		Since:   from,
		Limit:   *limit,
		Follow:  *follow,
		Idle:    *idle,
	}

	switch *command {
	case "tail":
		if err := tailEvents(ctx, bus, opts); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}
	case "stats":
		if err := showStats(ctx, bus, opts); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, types")
		os.Exit(1)
	}
}

type ReadOptions struct {
	Filter  eventbus.Filter
	Players []string
	Since   time.Time
	Limit   int
	Follow  bool
	Idle    time.Duration
}

// accept проверяет фильтры, которые шина не умеет применять сама
func (o *ReadOptions) accept(ev *eventbus.Envelope) bool {
	if !o.Since.IsZero() && ev.Timestamp.Before(o.Since) {
		return false
	}
	if len(o.Players) == 0 {
		return true
	}
	var p struct {
		PlayerID string `json:"player_id"`
	}
	if err := ev.Decode(&p); err != nil {
		return false
	}
	for _, id := range o.Players {
		if id == p.PlayerID {
			return true
		}
	}
	return false
}

// replay читает стрим с начала и вызывает fn для каждого подходящего события.
// Возвращается после limit событий, отмены ctx или паузы idle (если не follow).
func replay(ctx context.Context, bus *eventbus.JetStreamBus, opts *ReadOptions, fn func(*eventbus.Envelope)) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu    sync.Mutex
		count int
	)
	activity := make(chan struct{}, 1)

	sub, err := bus.SubscribeFrom(ctx, opts.Filter, true, func(_ context.Context, ev *eventbus.Envelope) {
		select {
		case activity <- struct{}{}:
		default:
		}
		if !opts.accept(ev) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if opts.Limit > 0 && count >= opts.Limit {
			return
		}
		fn(ev)
		count++
		if opts.Limit > 0 && count >= opts.Limit {
			cancel()
		}
	})
	if err != nil {
		return 0, err
	}
	defer sub.Unsubscribe()

	timer := time.NewTimer(opts.Idle)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			defer mu.Unlock()
			return count, nil
		case <-activity:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(opts.Idle)
		case <-timer.C:
			if opts.Follow {
				timer.Reset(opts.Idle)
				continue
			}
			mu.Lock()
			defer mu.Unlock()
			return count, nil
		}
	}
}

// tailEvents выводит события стрима
func tailEvents(ctx context.Context, bus *eventbus.JetStreamBus, opts *ReadOptions) error {
	fmt.Printf("🎬 Tailing events (limit: %d, follow: %v)\n", opts.Limit, opts.Follow)

	count, err := replay(ctx, bus, opts, printEvent)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	fmt.Printf("\n📊 Total events: %d\n", count)
	return nil
}

// showStats считает события по типам
func showStats(ctx context.Context, bus *eventbus.JetStreamBus, opts *ReadOptions) error {
	fmt.Println("📊 Event statistics")

	total, err := bus.StreamMessages()
	if err != nil {
		return fmt.Errorf("stream info: %w", err)
	}

	opts.Limit = 0
	opts.Follow = false
	byType := make(map[string]int)
	counted, err := replay(ctx, bus, opts, func(ev *eventbus.Envelope) {
		byType[ev.EventType]++
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("Messages in stream: %d\n", total)
	fmt.Printf("Matched events: %d\n", counted)
	fmt.Println("\nBy event type:")
	for _, t := range types {
		fmt.Printf("  %s: %d events\n", t, byType[t])
	}
	return nil
}

func showTypes() {
	fmt.Println("📋 Available event types")
	for _, t := range eventbus.AllTypes {
		fmt.Printf("  %s (subject %s.%s)\n", t, eventbus.SubjectPrefix("NEONITE"), t)
	}
}

// printEvent выводит событие в читаемом формате
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s [%s] %s\n",
		ev.Timestamp.Format("15:04:05"),
		ev.Source,
		ev.EventType,
		ev.ID)

	switch ev.EventType {
	case eventbus.TypeTreeFelled:
		var e eventbus.TreeFelled
		if ev.Decode(&e) == nil {
			fmt.Printf("  Player: %s Origin: (%d,%d,%d) Removed: %d\n",
				e.PlayerID, e.Origin.X, e.Origin.Y, e.Origin.Z, e.Removed)
		}
	case eventbus.TypePlateTeleport:
		var e eventbus.PlateTeleport
		if ev.Decode(&e) == nil {
			fmt.Printf("  Player: %s Plate: %s -> (%.1f,%.1f,%.1f)\n",
				e.PlayerID, e.Plate, e.To.X, e.To.Y, e.To.Z)
		}
	case eventbus.TypeOreSmelted:
		var e eventbus.OreSmelted
		if ev.Decode(&e) == nil {
			fmt.Printf("  Player: %s %s x%d -> %s\n", e.PlayerID, e.Ore, e.Count, e.Ingot)
		}
	default:
		fmt.Printf("  %s\n", string(ev.Payload))
	}
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseSinceTime парсит относительное время типа "1h", "30m" или абсолютное
func parseSinceTime(since string, from time.Time) (time.Time, error) {
	if since == "" {
		return time.Time{}, nil
	}

	duration, err := time.ParseDuration(since)
	if err != nil {
		return time.Parse(timeFormat, since)
	}

	return from.Add(-duration), nil
}
