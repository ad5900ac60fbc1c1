// bench-runner hammers a running storefront with concurrent checkouts for a
// single product. With stock lower than the number of transactions it doubles
// as an oversell check: successes must equal the starting stock divided by
// the per-checkout quantity, the rest must come back 409.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type result struct {
	status    int
	latencyMS float64
	err       error
}

type summary struct {
	BaseURL         string         `json:"base_url"`
	Transactions    int            `json:"transactions"`
	Concurrency     int            `json:"concurrency"`
	Product         string         `json:"product"`
	Quantity        int            `json:"quantity"`
	DurationSeconds float64        `json:"duration_seconds"`
	StatusCounts    map[string]int `json:"status_counts"`
	Errors          int            `json:"errors"`
	FirstError      string         `json:"first_error,omitempty"`
	AvgLatencyMs    float64        `json:"avg_latency_ms"`
	P50LatencyMs    float64        `json:"p50_latency_ms"`
	P95LatencyMs    float64        `json:"p95_latency_ms"`
	P99LatencyMs    float64        `json:"p99_latency_ms"`
	ThroughputRPS   float64        `json:"throughput_rps"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "storefront base URL")
	transactions := flag.Int("n", 100, "number of checkout transactions")
	concurrency := flag.Int("c", 10, "concurrent workers")
	product := flag.String("product", "classic-tshirt", "product slug to buy")
	quantity := flag.Int("q", 1, "quantity per checkout")
	timeoutMS := flag.Int("timeout-ms", 10000, "per-request timeout")
	flag.Parse()

	jobs := make(chan int)
	results := make([]result, *transactions)
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runCheckout(*baseURL, *product, *quantity, time.Duration(*timeoutMS)*time.Millisecond)
			}
		}()
	}
	for i := 0; i < *transactions; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	report(os.Stdout, *baseURL, *transactions, *concurrency, *product, *quantity, elapsed, results)
}

// runCheckout drives one full flow with its own session: signup, add to
// cart, checkout.
func runCheckout(baseURL, slug string, qty int, timeout time.Duration) result {
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Timeout: timeout, Jar: jar}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()

	signup := map[string]any{
		"email":      fmt.Sprintf("bench-%s@example.com", uuid.NewString()),
		"password":   "bench-password",
		"first_name": "Bench",
		"last_name":  "Runner",
	}
	if status, err := postJSON(ctx, client, baseURL+"/signup", signup); err != nil || status >= 300 {
		return result{status: status, latencyMS: ms(start), err: fmt.Errorf("signup: status %d err %v", status, err)}
	}

	add := map[string]any{"quantity": qty}
	if status, err := postJSON(ctx, client, baseURL+"/cart/add/"+slug, add); err != nil || status >= 300 {
		return result{status: status, latencyMS: ms(start), err: fmt.Errorf("cart add: status %d err %v", status, err)}
	}

	info := map[string]any{
		"first_name":  "Bench",
		"last_name":   "Runner",
		"email":       "bench@example.com",
		"address":     "1 Load Test Way",
		"postal_code": "00000",
		"city":        "Benchville",
	}
	status, err := postJSON(ctx, client, baseURL+"/checkout", info)
	return result{status: status, latencyMS: ms(start), err: err}
}

func postJSON(ctx context.Context, client *http.Client, url string, body any) (int, error) {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func ms(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func report(out io.Writer, baseURL string, n, c int, product string, qty int, elapsed time.Duration, results []result) {
	statusCounts := map[string]int{}
	latencies := make([]float64, 0, len(results))
	errs := 0
	firstError := ""
	for _, r := range results {
		if r.err != nil {
			errs++
			if firstError == "" {
				firstError = r.err.Error()
			}
			continue
		}
		statusCounts[fmt.Sprintf("%d", r.status)]++
		latencies = append(latencies, r.latencyMS)
	}
	sort.Float64s(latencies)

	s := summary{
		BaseURL:         baseURL,
		Transactions:    n,
		Concurrency:     c,
		Product:         product,
		Quantity:        qty,
		DurationSeconds: elapsed.Seconds(),
		StatusCounts:    statusCounts,
		Errors:          errs,
		FirstError:      firstError,
		AvgLatencyMs:    avg(latencies),
		P50LatencyMs:    percentile(latencies, 50),
		P95LatencyMs:    percentile(latencies, 95),
		P99LatencyMs:    percentile(latencies, 99),
		ThroughputRPS:   float64(n) / elapsed.Seconds(),
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(s)
}

func avg(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
