package registry

import (
	"fmt"

	"dsadmin/config"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

type consulRegistry struct {
	client *consulapi.Client
	logger *zap.Logger
}

var _ ServiceRegistry = (*consulRegistry)(nil)

// NewConsulRegistry connects to the configured Consul agent and checks that
// it answers before returning.
func NewConsulRegistry(cfg config.ConsulConfig, logger *zap.Logger) (ServiceRegistry, error) {
	consulConfig := consulapi.DefaultConfig()
	consulConfig.Address = cfg.Address

	client, err := consulapi.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	if _, err := client.Agent().NodeName(); err != nil {
		return nil, fmt.Errorf("cannot connect to consul agent at %s: %w", cfg.Address, err)
	}
	logger.Info("connected to consul agent", zap.String("address", cfg.Address))

	return &consulRegistry{client: client, logger: logger.Named("consul")}, nil
}

func (r *consulRegistry) Register(reg Registration) error {
	err := r.client.Agent().ServiceRegister(&consulapi.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Tags:    reg.Tags,
		Port:    reg.Port,
		Address: reg.Address,
		Meta:    reg.Meta,
		Check:   reg.Check,
	})
	if err != nil {
		return fmt.Errorf("failed to register service %q: %w", reg.Name, err)
	}
	r.logger.Info("registered service",
		zap.String("service_id", reg.ID),
		zap.String("service_name", reg.Name),
		zap.String("address", reg.Address),
		zap.Int("port", reg.Port),
	)
	return nil
}

func (r *consulRegistry) Deregister(id string) error {
	if err := r.client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister service %q: %w", id, err)
	}
	r.logger.Info("deregistered service", zap.String("service_id", id))
	return nil
}

func (r *consulRegistry) Discover(name, tag string) ([]string, error) {
	instances, _, err := r.client.Health().Service(name, tag, true, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to discover service %q: %w", name, err)
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("no healthy instances found for service %q", name)
	}

	addrs := make([]string, 0, len(instances))
	for _, inst := range instances {
		addr := inst.Service.Address
		if addr == "" {
			addr = inst.Node.Address
		}
		addrs = append(addrs, fmt.Sprintf("%s:%d", addr, inst.Service.Port))
	}
	return addrs, nil
}

// HTTPCheck polls path on the HTTP listener.
func HTTPCheck(serviceID, host string, port int, path, interval, timeout string) *consulapi.AgentServiceCheck {
	return &consulapi.AgentServiceCheck{
		CheckID:                        fmt.Sprintf("check_%s_http", serviceID),
		Name:                           fmt.Sprintf("HTTP check for %s", serviceID),
		HTTP:                           fmt.Sprintf("http://%s:%d%s", host, port, path),
		Method:                         "GET",
		Interval:                       interval,
		Timeout:                        timeout,
		DeregisterCriticalServiceAfter: "1m",
	}
}

// GRPCCheck uses the standard gRPC health protocol against target.
func GRPCCheck(serviceID, target, interval, timeout string) *consulapi.AgentServiceCheck {
	return &consulapi.AgentServiceCheck{
		CheckID:                        fmt.Sprintf("check_%s_grpc", serviceID),
		Name:                           fmt.Sprintf("gRPC check for %s", serviceID),
		GRPC:                           target,
		Interval:                       interval,
		Timeout:                        timeout,
		DeregisterCriticalServiceAfter: "1m",
	}
}
