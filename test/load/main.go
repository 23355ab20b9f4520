package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
)

// Payment notification as accepted by the ingest webhook
type PaymentPayload struct {
	ExternalID    string `json:"external_id"`
	Source        string `json:"source"`
	Amount        string `json:"amount"`
	PaymentDate   string `json:"payment_date"`
	PaymentType   string `json:"payment_type,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

type LoadTestConfig struct {
	URL               string `env:"TARGET_URL,default=http://localhost:8090/webhooks/payments"`
	RequestsPerSecond int    `env:"REQUESTS_PER_SECOND,default=200"`
	DurationSeconds   int    `env:"DURATION_SECONDS,default=30"`
	ConcurrentWorkers int    `env:"CONCURRENT_WORKERS,default=50"`
	Secret            string `env:"INGEST_SHARED_SECRET"`
	// share of requests that replay an earlier external id, in percent
	ReplayPercent int `env:"REPLAY_PERCENT,default=10"`
}

type Stats struct {
	recorded      atomic.Int64
	replayed      atomic.Int64
	errorCount    atomic.Int64
	responseTimes []float64
	mu            sync.Mutex
}

func (s *Stats) addResponseTime(duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseTimes = append(s.responseTimes, duration)
}

func (s *Stats) getResponseTimes() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.responseTimes)
}

func sendRequest(client *http.Client, config LoadTestConfig, payload []byte, stats *Stats) {
	start := time.Now()

	req, err := http.NewRequest(http.MethodPost, config.URL, bytes.NewBuffer(payload))
	if err != nil {
		stats.errorCount.Add(1)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ingest-Secret", config.Secret)

	resp, err := client.Do(req)
	if err != nil {
		stats.errorCount.Add(1)
		stats.addResponseTime(time.Since(start).Seconds())
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	stats.addResponseTime(time.Since(start).Seconds())

	switch resp.StatusCode {
	case http.StatusCreated:
		stats.recorded.Add(1)
	case http.StatusOK:
		stats.replayed.Add(1)
	default:
		stats.errorCount.Add(1)
	}
}

func worker(client *http.Client, config LoadTestConfig, stats *Stats, jobs <-chan []byte, wg *sync.WaitGroup) {
	defer wg.Done()

	for payload := range jobs {
		sendRequest(client, config, payload, stats)
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func newPayload(n int, replayFrom []string) (PaymentPayload, []byte) {
	p := PaymentPayload{
		ExternalID:  "load:" + uuid.NewString(),
		Source:      "stripe",
		Amount:      fmt.Sprintf("%d.00", 5+n%95),
		PaymentDate: time.Now().UTC().Format("2006-01-02"),
		PaymentType: "donation",
	}
	if len(replayFrom) > 0 {
		p.ExternalID = replayFrom[n%len(replayFrom)]
	}
	b, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	return p, b
}

func main() {
	var config LoadTestConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		panic(err)
	}

	fmt.Println("Starting ingest load test...")
	fmt.Printf("Target: %s\n", config.URL)
	fmt.Printf("Total requests: %d\n", config.RequestsPerSecond*config.DurationSeconds)
	fmt.Printf("Target RPS: %d\n", config.RequestsPerSecond)
	fmt.Printf("Concurrent workers: %d\n", config.ConcurrentWorkers)
	fmt.Printf("Replay share: %d%%\n", config.ReplayPercent)
	fmt.Println(strings.Repeat("-", 50))

	stats := &Stats{}
	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        config.ConcurrentWorkers,
			MaxIdleConnsPerHost: config.ConcurrentWorkers,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 60 * time.Second,
	}

	jobs := make(chan []byte, config.RequestsPerSecond)
	var wg sync.WaitGroup
	for range config.ConcurrentWorkers {
		wg.Add(1)
		go worker(client, config, stats, jobs, &wg)
	}

	startTime := time.Now()
	totalRequests := config.RequestsPerSecond * config.DurationSeconds
	requestsSent := 0
	var sent []string

	for i := 0; i < config.DurationSeconds && requestsSent < totalRequests; i++ {
		batchStart := time.Now()

		for j := 0; j < config.RequestsPerSecond && requestsSent < totalRequests; j++ {
			var replay []string
			if config.ReplayPercent > 0 && len(sent) > 0 && requestsSent%100 < config.ReplayPercent {
				replay = sent
			}
			p, body := newPayload(requestsSent, replay)
			if replay == nil {
				sent = append(sent, p.ExternalID)
			}
			jobs <- body
			requestsSent++
		}

		recorded, replayed, errors := stats.recorded.Load(), stats.replayed.Load(), stats.errorCount.Load()
		fmt.Printf("[%ds] Completed: %d | Recorded: %d | Replayed: %d | Errors: %d\n",
			i+1, recorded+replayed+errors, recorded, replayed, errors)

		if elapsed := time.Since(batchStart); elapsed < time.Second {
			time.Sleep(time.Second - elapsed)
		}
	}

	close(jobs)
	wg.Wait()

	duration := time.Since(startTime).Seconds()
	recorded, replayed, errors := stats.recorded.Load(), stats.replayed.Load(), stats.errorCount.Load()
	total := recorded + replayed + errors

	times := stats.getResponseTimes()
	slices.Sort(times)
	var avg float64
	for _, t := range times {
		avg += t
	}
	if len(times) > 0 {
		avg /= float64(len(times))
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("INGEST LOAD TEST RESULTS")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Duration: %.2f seconds\n", duration)
	fmt.Printf("Total requests: %d\n", total)
	fmt.Printf("Recorded: %d\n", recorded)
	fmt.Printf("Already recorded: %d\n", replayed)
	fmt.Printf("Failed: %d\n", errors)
	if total > 0 {
		fmt.Printf("Success rate: %.2f%%\n", float64(recorded+replayed)/float64(total)*100)
	}
	fmt.Printf("\nActual RPS: %.2f\n", float64(total)/duration)
	fmt.Printf("\nResponse times:\n")
	fmt.Printf("  Average: %.2f ms\n", avg*1000)
	fmt.Printf("  P50: %.2f ms\n", percentile(times, 0.50)*1000)
	fmt.Printf("  P95: %.2f ms\n", percentile(times, 0.95)*1000)
	fmt.Printf("  P99: %.2f ms\n", percentile(times, 0.99)*1000)
	if len(times) > 0 {
		fmt.Printf("  Min: %.2f ms\n", times[0]*1000)
		fmt.Printf("  Max: %.2f ms\n", times[len(times)-1]*1000)
	}
}
