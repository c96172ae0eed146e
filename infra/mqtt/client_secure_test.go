package mqtt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/makespan/core/model"
	coremqtt "github.com/kilianp07/makespan/core/mqtt"
)

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0644); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := os.WriteFile(caFile, certPEM, 0644); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 {
		t.Fatalf("no certs loaded")
	}
	if tlsCfg.RootCAs == nil {
		t.Fatalf("no root CAs")
	}
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatalf("auth not set")
	}
}

func newTestPublisher(t *testing.T, mc *mockClient, cfg Config) *PahoPublisher {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
	if cfg.Broker == "" {
		cfg.Broker = "tcp://localhost:1883"
	}
	pub, err := NewPahoPublisher(cfg)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	return pub
}

func testSolution(t *testing.T) *model.Solution {
	t.Helper()
	p, err := model.NewProblem(2, []int64{3, 2, 1, 4})
	if err != nil {
		t.Fatalf("problem: %v", err)
	}
	s, err := model.NewSolutionFromAssignment(p, []int{0, 1, 1, 0})
	if err != nil {
		t.Fatalf("solution: %v", err)
	}
	return s
}

func TestPublishAssignmentPayload(t *testing.T) {
	mc := &mockClient{}
	pub := newTestPublisher(t, mc, Config{TopicPrefix: "plant/cpu", QoS: 1, Retain: true})
	if err := pub.PublishAssignment(context.Background(), "run-1", testSolution(t)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(mc.published))
	}
	if mc.published[0].topic != "plant/cpu/0/jobs" || mc.published[1].topic != "plant/cpu/1/jobs" || mc.published[2].topic != "plant/cpu/summary" {
		t.Fatalf("unexpected topics %+v", mc.published)
	}
	if mc.published[0].qos != 1 || !mc.published[0].retained {
		t.Fatalf("qos/retain not applied")
	}
	var msg JobsMessage
	if err := json.Unmarshal(mc.published[1].payload, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.RunID != "run-1" || msg.Processor != 1 || msg.Load != 3 || msg.Makespan != 7 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if len(msg.Jobs) != 2 || msg.Jobs[0] != 1 || msg.Jobs[1] != 2 || msg.Durations[0] != 2 || msg.Durations[1] != 1 {
		t.Fatalf("unexpected jobs %+v", msg)
	}
	if msg.MessageID == "" {
		t.Fatalf("missing message id")
	}
	var sum SummaryMessage
	if err := json.Unmarshal(mc.published[2].payload, &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Processors != 2 || sum.Jobs != 4 || sum.Loads[0] != 7 || sum.Loads[1] != 3 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.TopicPrefix != "makespan/processor" || c.ClientID != "makespan" || c.MaxRetries != 3 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.Enabled() {
		t.Fatalf("no broker configured")
	}
	if err := (Config{QoS: 3}).Validate(); err == nil {
		t.Fatalf("expected qos error")
	}
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	pub := newTestPublisher(t, mc, Config{MaxRetries: 1, BackoffMS: 1})
	p, _ := model.NewProblem(1, []int64{5})
	s, _ := model.NewSolution(p, nil)
	if err := pub.PublishAssignment(context.Background(), "r", s); err != nil {
		t.Fatalf("send: %v", err)
	}
	// one failed attempt, its retry, then the summary
	if len(mc.published) != 3 {
		t.Fatalf("expected retries, got %d publishes", len(mc.published))
	}
}

func TestPublishTimeout(t *testing.T) {
	mc := &mockClient{timeout: true}
	pub := newTestPublisher(t, mc, Config{MaxRetries: 1, BackoffMS: 1, TimeoutMS: 1})
	err := pub.PublishAssignment(context.Background(), "r", testSolution(t))
	if !errors.Is(err, coremqtt.ErrPublishTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestPublishStopsOnCancel(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}}
	pub := newTestPublisher(t, mc, Config{MaxRetries: 5, BackoffMS: 1000})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pub.PublishAssignment(ctx, "r", testSolution(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(mc.published) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(mc.published))
	}
}

func TestPublishNilSolution(t *testing.T) {
	mc := &mockClient{}
	pub := newTestPublisher(t, mc, Config{})
	if err := pub.PublishAssignment(context.Background(), "r", nil); !errors.Is(err, coremqtt.ErrNoSolution) {
		t.Fatalf("expected ErrNoSolution, got %v", err)
	}
	if len(mc.published) != 0 {
		t.Fatalf("expected no publish, got %d", len(mc.published))
	}
}

func TestClose(t *testing.T) {
	mc := &mockClient{}
	pub := newTestPublisher(t, mc, Config{})
	pub.Close()
	if !mc.disconnected {
		t.Fatalf("expected disconnect")
	}
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts         *paho.ClientOptions
	published    []published
	publishErrs  []error
	timeout      bool
	disconnected bool
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.disconnected = true }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	m.published = append(m.published, published{topic, qos, retained, b})
	if m.timeout {
		return &dummyToken{pending: true}
	}
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct {
	err     error
	pending bool
}

func (d dummyToken) Wait() bool                     { return !d.pending }
func (d dummyToken) WaitTimeout(time.Duration) bool { return !d.pending }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }
