package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/kilianp07/makespan/core/monitoring"
	"github.com/kilianp07/makespan/core/model"
	coremqtt "github.com/kilianp07/makespan/core/mqtt"
	"github.com/kilianp07/makespan/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	Retain      bool        `json:"retain"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TimeoutMS   int         `json:"timeout_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// SetDefaults fills the topic prefix, client id and retry settings.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "makespan"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "makespan/processor"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 5000
	}
}

// Validate checks the QoS level.
func (c Config) Validate() error {
	if c.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2 (got %d)", c.QoS)
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoPublisher implements coremqtt.Publisher using Eclipse Paho.
type PahoPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	logger     logger.Logger
}

var _ coremqtt.Publisher = (*PahoPublisher)(nil)

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoPublisher connects to the MQTT broker.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &PahoPublisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		timeout:    time.Duration(cfg.TimeoutMS) * time.Millisecond,
		logger:     log,
	}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// JobsMessage is the payload sent to <prefix>/<processor>/jobs.
type JobsMessage struct {
	MessageID string  `json:"message_id"`
	RunID     string  `json:"run_id"`
	Processor int     `json:"processor"`
	Jobs      []int   `json:"jobs"`
	Durations []int64 `json:"durations"`
	Load      int64   `json:"load"`
	Makespan  int64   `json:"makespan"`
	Timestamp int64   `json:"timestamp"`
}

// SummaryMessage is the payload sent to <prefix>/summary.
type SummaryMessage struct {
	MessageID  string  `json:"message_id"`
	RunID      string  `json:"run_id"`
	Processors int     `json:"processors"`
	Jobs       int     `json:"jobs"`
	Loads      []int64 `json:"loads"`
	Makespan   int64   `json:"makespan"`
	Timestamp  int64   `json:"timestamp"`
}

// JobsTopic returns the topic of one processor.
func (p *PahoPublisher) JobsTopic(processor int) string {
	return p.prefix + "/" + strconv.Itoa(processor) + "/jobs"
}

// PublishAssignment publishes every processor's job list then the summary.
func (p *PahoPublisher) PublishAssignment(ctx context.Context, runID string, s *model.Solution) error {
	if s == nil {
		return coremqtt.ErrNoSolution
	}
	prob := s.Problem()
	now := time.Now().UnixMilli()
	for proc := 0; proc < prob.Processors(); proc++ {
		jobs := s.Jobs(proc)
		durations := make([]int64, len(jobs))
		for i, j := range jobs {
			durations[i] = prob.Duration(j)
		}
		msg := JobsMessage{
			MessageID: uuid.NewString(),
			RunID:     runID,
			Processor: proc,
			Jobs:      jobs,
			Durations: durations,
			Load:      s.Load(proc),
			Makespan:  s.Score(),
			Timestamp: now,
		}
		if err := p.publish(ctx, p.JobsTopic(proc), msg); err != nil {
			coremon.CaptureException(err, map[string]string{
				"module":    "mqtt",
				"run_id":    runID,
				"processor": strconv.Itoa(proc),
			})
			return fmt.Errorf("publish processor %d: %w", proc, err)
		}
	}
	summary := SummaryMessage{
		MessageID:  uuid.NewString(),
		RunID:      runID,
		Processors: prob.Processors(),
		Jobs:       prob.NumJobs(),
		Loads:      s.Loads(),
		Makespan:   s.Score(),
		Timestamp:  now,
	}
	if err := p.publish(ctx, p.prefix+"/summary", summary); err != nil {
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "run_id": runID})
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}

func (p *PahoPublisher) publish(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		if !token.WaitTimeout(p.timeout) {
			publishErr = coremqtt.ErrPublishTimeout
		} else {
			publishErr = token.Error()
		}
		if publishErr == nil {
			p.logger.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	return publishErr
}

// Close gracefully closes the MQTT connection.
func (p *PahoPublisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
