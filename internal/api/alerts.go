package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/AaronLay10/ArcEngine/internal/config"
)

// Alert severity levels
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Dependencies tracked by the health monitor.
const (
	DependencyMQTT  = "mqtt"
	DependencyStore = "store"
)

// AlertPayload is the JSON structure sent to the webhook.
type AlertPayload struct {
	Story     string                 `json:"story"`
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// AlertConfig holds alert configuration.
type AlertConfig struct {
	WebhookURL string        `env:"ARC_ALERT_WEBHOOK_URL"`
	MQTTDelay  time.Duration `env:"ARC_MQTT_ALERT_DELAY" envDefault:"30s"`
	StoreDelay time.Duration `env:"ARC_STORE_ALERT_DELAY" envDefault:"5s"`
}

// dependencyState tracks one dependency's outage. An alert fires once the
// outage has lasted delay, and a recovery alert follows when it comes back.
type dependencyState struct {
	event    string
	severity string
	message  string
	delay    time.Duration

	up        bool
	downSince time.Time
	alerted   bool
}

// Alerter turns dependency state changes into webhook alerts.
type Alerter struct {
	mu     sync.Mutex
	cfg    AlertConfig
	deps   map[string]*dependencyState
	client *http.Client
	now    func() time.Time
}

// NewAlerter returns an alerter for the mqtt and store dependencies. Both
// are assumed up until a check says otherwise.
func NewAlerter(cfg AlertConfig) *Alerter {
	return &Alerter{
		cfg: cfg,
		deps: map[string]*dependencyState{
			DependencyMQTT: {
				event: "mqtt_disconnected", severity: SeverityWarning,
				message: "MQTT broker disconnected", delay: cfg.MQTTDelay, up: true,
			},
			DependencyStore: {
				event: "store_unavailable", severity: SeverityCritical,
				message: "event store unavailable", delay: cfg.StoreDelay, up: true,
			},
		},
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

var (
	alerterMu sync.Mutex
	alerter   *Alerter
)

// InitAlerts configures alerting from the environment.
func InitAlerts() error {
	var cfg AlertConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}
	a := NewAlerter(cfg)

	alerterMu.Lock()
	alerter = a
	alerterMu.Unlock()

	if cfg.WebhookURL != "" {
		log.Printf("Alerts enabled: webhook URL configured (mqtt_delay=%s, store_delay=%s)",
			cfg.MQTTDelay, cfg.StoreDelay)
	}
	return nil
}

func getAlerter() *Alerter {
	alerterMu.Lock()
	defer alerterMu.Unlock()
	return alerter
}

// WebhookURL returns the configured webhook URL.
func (a *Alerter) WebhookURL() string {
	return a.cfg.WebhookURL
}

// Check records a dependency's state and returns the alert it triggers, if
// any. The alert is sent in the background.
func (a *Alerter) Check(dependency string, connected bool) *AlertPayload {
	a.mu.Lock()
	defer a.mu.Unlock()

	d, ok := a.deps[dependency]
	if !ok {
		return nil
	}
	now := a.now()

	if connected {
		var p *AlertPayload
		if !d.up && d.alerted {
			p = a.payload(d.event, SeverityInfo, dependency+" connection restored", map[string]interface{}{
				"recovered_at": now.UTC().Format(time.RFC3339),
			})
		}
		d.up, d.alerted, d.downSince = true, false, time.Time{}
		if p != nil {
			go a.send(*p)
		}
		return p
	}

	if d.up {
		d.downSince = now
	}
	d.up = false

	down := now.Sub(d.downSince)
	if d.alerted || down < d.delay {
		return nil
	}
	d.alerted = true
	p := a.payload(d.event, d.severity, d.message, map[string]interface{}{
		"disconnected_since":   d.downSince.UTC().Format(time.RFC3339),
		"disconnected_seconds": int(down.Seconds()),
	})
	go a.send(*p)
	return p
}

func (a *Alerter) payload(event, severity, message string, details map[string]interface{}) *AlertPayload {
	story := GetStoryName()
	if story == "" {
		story = "unknown"
	}
	return &AlertPayload{
		Story:     story,
		Event:     event,
		Timestamp: a.now().UTC().Format(time.RFC3339),
		Severity:  severity,
		Message:   message,
		Details:   details,
	}
}

// send posts the payload, or logs it when no webhook is configured.
func (a *Alerter) send(p AlertPayload) {
	if a.cfg.WebhookURL == "" {
		log.Printf("[ALERT] %s severity=%s msg=%q details=%v", p.Event, p.Severity, p.Message, p.Details)
		return
	}

	body, err := json.Marshal(p)
	if err != nil {
		log.Printf("alert: failed to marshal payload: %v", err)
		return
	}
	resp, err := a.client.Post(a.cfg.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("alert: webhook POST failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("alert: webhook returned status %d", resp.StatusCode)
	}
}

// Probe reports whether one dependency is reachable.
type Probe struct {
	Dependency string
	Optional   bool
	Check      func(ctx context.Context) bool
}

// RunProbes runs each probe once, updating readiness and alert state.
func RunProbes(ctx context.Context, probes []Probe) {
	a := getAlerter()
	for _, p := range probes {
		up := p.Check(ctx)
		switch p.Dependency {
		case DependencyMQTT:
			SetMQTTState(up, p.Optional)
		case DependencyStore:
			SetStoreState(up, p.Optional)
		}
		if a != nil {
			a.Check(p.Dependency, up)
		}
	}
}

// StartHealthMonitor runs the probes every interval until ctx is done.
func StartHealthMonitor(ctx context.Context, interval time.Duration, probes []Probe) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				RunProbes(ctx, probes)
			}
		}
	}()
}
