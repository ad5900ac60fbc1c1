// cli is an interactive console for poking a running storefront: browse the
// catalog, run a full add-to-cart/checkout flow, or race two checkouts on a
// nearly sold out product to watch the stock guard hold.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type scenario struct {
	Name        string
	Description string
}

type model struct {
	scenarios []scenario
	selected  int
	status    string
	detail    string
	busy      bool
}

func initialModel() model {
	return model{
		scenarios: []scenario{
			{"browse", "List available products"},
			{"checkout", "Signup, add to cart, place an order"},
			{"oversell", "Two concurrent checkouts racing on one unit"},
		},
		status: "Ready",
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up":
			if m.selected > 0 {
				m.selected--
			}
		case "down":
			if m.selected < len(m.scenarios)-1 {
				m.selected++
			}
		case "enter":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Running..."
			return m, runScenarioCmd(m.scenarios[m.selected].Name)
		}
	case scenarioResult:
		m.busy = false
		m.status = msg.status
		m.detail = msg.detail
	}
	return m, nil
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "ecommerce-store-go CLI")
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Scenarios:")
	for i, scn := range m.scenarios {
		marker := " "
		if i == m.selected {
			marker = ">"
		}
		fmt.Fprintf(b, " %s %s - %s\n", marker, scn.Name, scn.Description)
	}
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Status: %s\n", m.status)
	if m.detail != "" {
		fmt.Fprintf(b, "Detail: %s\n", m.detail)
	}
	fmt.Fprintln(b, "\nControls: up/down select, enter to run, q to quit")
	return b.String()
}

type scenarioResult struct {
	status string
	detail string
}

func runScenarioCmd(name string) tea.Cmd {
	return func() tea.Msg {
		baseURL := strings.TrimRight(getenv("STORE_BASE_URL", "http://localhost:8080"), "/")
		switch name {
		case "browse":
			body, err := getJSON(baseURL + "/products")
			if err != nil {
				return scenarioResult{status: fmt.Sprintf("Browse failed: %v", err)}
			}
			return scenarioResult{status: "Catalog fetched", detail: body}
		case "oversell":
			return runOversell(baseURL)
		default:
			shopper, err := newShopper(baseURL)
			if err != nil {
				return scenarioResult{status: fmt.Sprintf("Signup failed: %v", err)}
			}
			body, err := shopper.checkout("classic-tshirt", 1)
			if err != nil {
				return scenarioResult{status: fmt.Sprintf("Checkout failed: %v", err)}
			}
			return scenarioResult{status: "Checkout OK", detail: body}
		}
	}
}

// runOversell races two shoppers for the same product. With one unit in
// stock exactly one checkout may win.
func runOversell(baseURL string) scenarioResult {
	slug := getenv("STORE_OVERSELL_SLUG", "wireless-headphones")
	results := make([]string, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shopper, err := newShopper(baseURL)
			if err != nil {
				results[i] = fmt.Sprintf("signup failed: %v", err)
				return
			}
			body, err := shopper.checkout(slug, 1)
			if err != nil {
				results[i] = err.Error()
				return
			}
			results[i] = body
		}(i)
	}
	wg.Wait()
	return scenarioResult{
		status: "Oversell race finished",
		detail: fmt.Sprintf("shopper A: %s | shopper B: %s", results[0], results[1]),
	}
}

// shopper holds one browser session via its cookie jar.
type shopper struct {
	baseURL string
	client  *http.Client
}

func newShopper(baseURL string) (*shopper, error) {
	jar, _ := cookiejar.New(nil)
	s := &shopper{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Second, Jar: jar}}
	_, err := s.post("/signup", map[string]any{
		"email":      fmt.Sprintf("cli-%s@example.com", uuid.NewString()),
		"password":   "cli-password",
		"first_name": "CLI",
		"last_name":  "Shopper",
	})
	return s, err
}

func (s *shopper) checkout(slug string, qty int) (string, error) {
	if _, err := s.post("/cart/add/"+slug, map[string]any{"quantity": qty}); err != nil {
		return "", err
	}
	return s.post("/checkout", map[string]any{
		"first_name":  "CLI",
		"last_name":   "Shopper",
		"email":       "cli@example.com",
		"address":     "1 Console Court",
		"postal_code": "00000",
		"city":        "Termtown",
	})
}

func (s *shopper) post(path string, payload any) (string, error) {
	data, _ := json.Marshal(payload)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}

func getJSON(url string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	return strings.TrimSpace(string(body)), nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func main() {
	if _, err := tea.NewProgram(initialModel()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "cli error: %v\n", err)
		os.Exit(1)
	}
}
