package registry

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// Registration describes one service instance announced to the registry.
type Registration struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	Meta    map[string]string
	Check   *consulapi.AgentServiceCheck
}

// ServiceRegistry announces this process's listeners and finds healthy peers.
type ServiceRegistry interface {
	Register(reg Registration) error
	Deregister(id string) error
	// Discover returns "host:port" addresses of instances passing their checks.
	Discover(name, tag string) ([]string, error)
}

// ServiceID builds the instance id used for registration and deregistration.
func ServiceID(name, host string, port int) string {
	return fmt.Sprintf("%s-%s-%d", name, host, port)
}
