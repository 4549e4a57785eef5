package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shivamghaware/BlogIn/bench/benchutil"
)

// Seeded slugs every fresh store starts with.
var seededSlugs = []string{"the-art-of-minimalism", "a-walk-in-nature"}

type postRef struct {
	Slug string `json:"slug"`
}

func main() {
	// --- Command-line flags ---
	var server string
	var duration int
	var concurrency int
	var csvFile string
	var trimPercent float64
	var insecure bool

	flag.StringVar(&server, "server", "https://localhost:8080", "server base URL")
	flag.IntVar(&duration, "duration", 30, "duration in seconds")
	flag.IntVar(&concurrency, "c", 50, "number of concurrent sessions")
	flag.StringVar(&csvFile, "csv", "latencies.csv", "CSV file to save latencies")
	flag.Float64Var(&trimPercent, "trim", 1.0, "percent of latency to trim from top and bottom for trimmed mean")
	flag.BoolVar(&insecure, "insecure", true, "accept self-signed server certificates")
	flag.Parse()

	ctx := context.Background()
	hc := benchutil.NewHTTPClient(insecure)

	// --- One signed-up session per goroutine ---
	fmt.Printf("Signing up %d users...\n", concurrency)
	clients := make([]*benchutil.Client, concurrency)
	for i := range clients {
		c, err := benchutil.SignUp(ctx, hc, server)
		if err != nil {
			panic(fmt.Sprintf("failed to sign up: %v", err))
		}
		clients[i] = c
	}
	fmt.Println("Users signed up.")

	stopTime := time.Now().Add(time.Duration(duration) * time.Second)
	var wg sync.WaitGroup

	var requests int64
	var successes int64
	var errors4xx int64
	var errors5xx int64

	latencySlices := make([][]float64, concurrency)

	// --- Mixed traffic: mostly reads, some likes and comments, a few posts ---
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			c := clients[idx]
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(idx)))
			slugs := append([]string(nil), seededSlugs...)
			var localLatencies []float64

			for time.Now().Before(stopTime) {
				slug := slugs[rng.Intn(len(slugs))]
				start := time.Now()

				var status int
				var err error
				switch n := rng.Intn(100); {
				case n < 50:
					status, err = c.Do(ctx, http.MethodGet, "/posts", nil, nil)
				case n < 75:
					status, err = c.Do(ctx, http.MethodGet, "/posts/"+slug, nil, nil)
				case n < 88:
					status, err = c.Do(ctx, http.MethodPost, "/posts/"+slug+"/like", nil, nil)
				case n < 97:
					status, err = c.Do(ctx, http.MethodPost, "/posts/"+slug+"/comments",
						map[string]string{"text": fmt.Sprintf("load test comment %d", time.Now().UnixNano())}, nil)
				default:
					var p postRef
					status, err = c.Do(ctx, http.MethodPost, "/posts", benchutil.NewPost(), &p)
					if err == nil && p.Slug != "" {
						slugs = append(slugs, p.Slug)
					}
				}

				localLatencies = append(localLatencies, time.Since(start).Seconds()*1000)
				atomic.AddInt64(&requests, 1)

				switch {
				case err == nil:
					atomic.AddInt64(&successes, 1)
				case status >= 400 && status < 500:
					atomic.AddInt64(&errors4xx, 1)
				case status >= 500:
					atomic.AddInt64(&errors5xx, 1)
				default:
					if !errors.Is(err, context.Canceled) {
						fmt.Printf("Request error: %v\n", err)
					}
				}
			}

			latencySlices[idx] = localLatencies
		}(i)
	}

	wg.Wait()

	var allLatencies []float64
	for _, slice := range latencySlices {
		allLatencies = append(allLatencies, slice...)
	}
	summary := benchutil.Summarize(allLatencies, trimPercent)

	fmt.Printf("Requests: %d  Successes: %d  4xx: %d  5xx: %d\n", requests, successes, errors4xx, errors5xx)
	fmt.Printf("Latency (ms): %s\n", summary)

	if err := benchutil.WriteCSV(csvFile, allLatencies); err != nil {
		fmt.Printf("Failed to write CSV file: %v\n", err)
		return
	}
	fmt.Printf("Saved latencies to %s\n", csvFile)
}
