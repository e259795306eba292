package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"dsadmin/config"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeAgent implements the handful of Consul agent endpoints the registry uses.
type fakeAgent struct {
	mu       sync.Mutex
	services map[string]consulapi.AgentServiceRegistration
}

func newFakeAgent(t *testing.T) (*fakeAgent, *httptest.Server) {
	t.Helper()
	agent := &fakeAgent{services: map[string]consulapi.AgentServiceRegistration{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/agent/self", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"Config": map[string]any{"NodeName": "node-1"}})
	})
	mux.HandleFunc("PUT /v1/agent/service/register", func(w http.ResponseWriter, r *http.Request) {
		var reg consulapi.AgentServiceRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		agent.mu.Lock()
		agent.services[reg.ID] = reg
		agent.mu.Unlock()
	})
	mux.HandleFunc("PUT /v1/agent/service/deregister/{id}", func(w http.ResponseWriter, r *http.Request) {
		agent.mu.Lock()
		defer agent.mu.Unlock()
		if _, ok := agent.services[r.PathValue("id")]; !ok {
			http.Error(w, "unknown service", http.StatusNotFound)
			return
		}
		delete(agent.services, r.PathValue("id"))
	})
	mux.HandleFunc("GET /v1/health/service/{name}", func(w http.ResponseWriter, r *http.Request) {
		agent.mu.Lock()
		defer agent.mu.Unlock()
		entries := []consulapi.ServiceEntry{}
		for _, reg := range agent.services {
			if reg.Name != r.PathValue("name") {
				continue
			}
			entries = append(entries, consulapi.ServiceEntry{
				Node:    &consulapi.Node{Address: "10.0.0.9"},
				Service: &consulapi.AgentService{ID: reg.ID, Address: reg.Address, Port: reg.Port},
			})
		}
		w.Header().Set("X-Consul-Index", "1")
		w.Header().Set("X-Consul-LastContact", "0")
		w.Header().Set("X-Consul-KnownLeader", "true")
		_ = json.NewEncoder(w).Encode(entries)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return agent, srv
}

func (a *fakeAgent) registered(id string) (consulapi.AgentServiceRegistration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	reg, ok := a.services[id]
	return reg, ok
}

func TestConsulRegistryLifecycle(t *testing.T) {
	agent, srv := newFakeAgent(t)

	reg, err := NewConsulRegistry(config.ConsulConfig{Address: strings.TrimPrefix(srv.URL, "http://")}, zaptest.NewLogger(t))
	require.NoError(t, err)

	id := ServiceID("dsadmin-http", "127.0.0.1", 8080)
	assert.Equal(t, "dsadmin-http-127.0.0.1-8080", id)

	require.NoError(t, reg.Register(Registration{
		ID:      id,
		Name:    "dsadmin-http",
		Address: "127.0.0.1",
		Port:    8080,
		Tags:    []string{"http"},
		Meta:    map[string]string{"protocol": "http"},
		Check:   HTTPCheck(id, "127.0.0.1", 8080, "/healthz", "10s", "1s"),
	}))

	got, ok := agent.registered(id)
	require.True(t, ok)
	assert.Equal(t, "dsadmin-http", got.Name)
	assert.Equal(t, []string{"http"}, got.Tags)
	require.NotNil(t, got.Check)
	assert.Equal(t, "http://127.0.0.1:8080/healthz", got.Check.HTTP)
	assert.Equal(t, "GET", got.Check.Method)

	addrs, err := reg.Discover("dsadmin-http", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:8080"}, addrs)

	require.NoError(t, reg.Deregister(id))
	_, ok = agent.registered(id)
	assert.False(t, ok)

	_, err = reg.Discover("dsadmin-http", "")
	assert.Error(t, err)
	assert.Error(t, reg.Deregister(id))
}

func TestDiscoverFallsBackToNodeAddress(t *testing.T) {
	_, srv := newFakeAgent(t)
	reg, err := NewConsulRegistry(config.ConsulConfig{Address: srv.URL}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, reg.Register(Registration{ID: "grpc-1", Name: "dsadmin-grpc", Port: 50051}))
	addrs, err := reg.Discover("dsadmin-grpc", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.9:50051"}, addrs)
}

func TestNewConsulRegistryUnreachable(t *testing.T) {
	_, srv := newFakeAgent(t)
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	_, err := NewConsulRegistry(config.ConsulConfig{Address: addr}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestGRPCCheck(t *testing.T) {
	check := GRPCCheck("svc", "127.0.0.1:50051", "10s", "1s")
	assert.Equal(t, "127.0.0.1:50051", check.GRPC)
	assert.Equal(t, "check_svc_grpc", check.CheckID)
	assert.Empty(t, check.HTTP)
}
