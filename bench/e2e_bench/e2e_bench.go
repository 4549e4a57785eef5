package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shivamghaware/BlogIn/bench/benchutil"
	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/models"
)

// e2e_bench publishes posts through one server and measures how long the
// post change event takes to reach a stream client, optionally connected
// to a second instance so the Kafka relay is part of the path.
func main() {
	var serverAddr, watchAddr string
	var U, F, P, concurrency int
	var pollTimeout int
	var insecure, checkSuggestions bool

	flag.StringVar(&serverAddr, "server", "https://localhost:8080", "server base URL used for writes")
	flag.StringVar(&watchAddr, "watch", "", "server base URL to stream events from (defaults to -server)")
	flag.IntVar(&U, "users", 50, "number of users to create")
	flag.IntVar(&F, "follows", 10, "average follows per user")
	flag.IntVar(&P, "posts", 100, "number of posts to publish")
	flag.IntVar(&concurrency, "c", 20, "concurrency for posting")
	flag.IntVar(&pollTimeout, "timeout", 10, "seconds to wait for event delivery")
	flag.BoolVar(&insecure, "insecure", true, "accept self-signed server certificates")
	flag.BoolVar(&checkSuggestions, "suggestions", false, "also wait for the worker to store tag suggestions")
	flag.Parse()
	if watchAddr == "" {
		watchAddr = serverAddr
	}

	ctx := context.Background()
	hc := benchutil.NewHTTPClient(insecure)

	// --- 1) Create users ---
	fmt.Printf("Creating %d users...\n", U)
	users := make([]*benchutil.Client, 0, U)
	for i := 0; i < U; i++ {
		c, err := benchutil.SignUp(ctx, hc, serverAddr)
		if err != nil {
			fmt.Printf("create user error: %v\n", err)
			os.Exit(1)
		}
		users = append(users, c)
	}
	fmt.Println("Users created successfully.")

	// --- 2) Create follow relationships between users ---
	fmt.Printf("Creating follows (~%d per user)...\n", F)
	for _, u := range users {
		for j := 0; j < F; j++ {
			followee := users[rand.Intn(len(users))]
			if followee.UserID == u.UserID {
				continue
			}
			if _, err := u.Do(ctx, http.MethodPost, "/users/"+followee.UserID+"/follow", nil, nil); err != nil {
				fmt.Printf("follow error: %v\n", err)
				os.Exit(1)
			}
		}
	}
	fmt.Println("Follow relationships established.")

	// --- 3) Subscribe to post events before publishing ---
	delivered, closeStream, err := watchPosts(watchAddr, insecure)
	if err != nil {
		fmt.Printf("stream error: %v\n", err)
		os.Exit(1)
	}
	defer closeStream()

	// --- 4) Publish posts concurrently ---
	fmt.Printf("Publishing %d posts with concurrency %d...\n", P, concurrency)
	var (
		mu      sync.Mutex
		written = make(map[string]time.Time, P)
		wg      sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for i := 0; i < P; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			author := users[rand.Intn(len(users))]
			sent := time.Now()
			var p models.Post
			if _, err := author.Do(ctx, http.MethodPost, "/posts", benchutil.NewPost(), &p); err != nil {
				fmt.Printf("post error: %v\n", err)
				return
			}
			mu.Lock()
			written[p.Slug] = sent
			mu.Unlock()
		}()
	}
	wg.Wait()

	// --- 5) Match stream events against published posts ---
	fmt.Println("Checking event delivery...")
	var latencies []float64
	seen := make(map[string]bool, len(written))
	deadline := time.After(time.Duration(pollTimeout) * time.Second)

collect:
	for len(seen) < len(written) {
		select {
		case d, open := <-delivered:
			if !open {
				break collect
			}
			mu.Lock()
			sent, ok := written[d.slug]
			mu.Unlock()
			if !ok || seen[d.slug] {
				continue
			}
			seen[d.slug] = true
			latencies = append(latencies, d.at.Sub(sent).Seconds()*1000)
		case <-deadline:
			break collect
		}
	}
	failCount := len(written) - len(seen)

	// --- 6) Optionally wait for the suggestion worker ---
	if checkSuggestions {
		waitForSuggestions(ctx, users[0], written, time.Duration(pollTimeout)*time.Second)
	}

	// --- 7) Compute latency statistics and export to CSV ---
	if len(latencies) == 0 {
		fmt.Println("No successful deliveries recorded.")
		return
	}
	summary := benchutil.Summarize(latencies, 1.0)
	fmt.Printf("Delivery stats (ms): %s fails=%d\n", summary, failCount)
	if err := benchutil.WriteCSV("e2e_latencies.csv", latencies); err != nil {
		fmt.Printf("csv error: %v\n", err)
		return
	}
	fmt.Println("Saved e2e_latencies.csv")
}

type delivery struct {
	slug string
	at   time.Time
}

// watchPosts streams post change events from base.
func watchPosts(base string, insecure bool) (<-chan delivery, func(), error) {
	url := "ws" + strings.TrimPrefix(base, "http") + "/ws?kinds=post&signals=data_changed"
	dialer := websocket.Dialer{
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: insecure},
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan delivery, 1024)
	go func() {
		defer close(out)
		for {
			var e events.Event
			if err := conn.ReadJSON(&e); err != nil {
				return
			}
			out <- delivery{slug: e.ID, at: time.Now()}
		}
	}()
	return out, func() { conn.Close() }, nil
}

// waitForSuggestions polls each post's stored suggestions until the worker
// has written a non-empty list or the timeout passes.
func waitForSuggestions(ctx context.Context, c *benchutil.Client, written map[string]time.Time, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	pending := make(map[string]bool, len(written))
	for slug := range written {
		pending[slug] = true
	}

	for len(pending) > 0 && time.Now().Before(deadline) {
		for slug := range pending {
			var sg models.Suggestions
			if _, err := c.Do(ctx, http.MethodGet, "/posts/"+slug+"/suggestions", nil, &sg); err == nil && len(sg.Categories) > 0 {
				delete(pending, slug)
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Printf("Suggestions stored for %d/%d posts\n", len(written)-len(pending), len(written))
}
