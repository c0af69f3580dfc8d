package main

import (
	"github.com/mvachon/purefa/internal/flasharray"
	"github.com/mvachon/purefa/internal/reconciler"
	"github.com/mvachon/purefa/internal/reconcilers/dns"
	"github.com/mvachon/purefa/internal/reconcilers/host"
	"github.com/mvachon/purefa/internal/reconcilers/hostgroup"
	"github.com/mvachon/purefa/internal/reconcilers/ntp"
	"github.com/mvachon/purefa/internal/reconcilers/pgsnap"
	"github.com/mvachon/purefa/internal/reconcilers/pod"
	"github.com/mvachon/purefa/internal/reconcilers/snmp"
	"github.com/mvachon/purefa/internal/reconcilers/subnet"
	"github.com/mvachon/purefa/internal/reconcilers/syslog"
	"github.com/mvachon/purefa/internal/reconcilers/user"
	"github.com/mvachon/purefa/internal/reconcilers/volume"
	"github.com/mvachon/purefa/internal/reconcilers/volumegroup"
)

// buildRegistry wires every reconciler to the logged-in array client.
func buildRegistry(client *flasharray.Client) (*reconciler.Registry, error) {
	registry := reconciler.NewRegistry()

	reconcilers := []reconciler.Reconciler{
		volume.New(client),
		host.New(client),
		hostgroup.New(client),
		volumegroup.New(client),
		pod.New(client),
		pgsnap.New(client),
		subnet.New(client),
		user.New(client),
		dns.New(client),
		syslog.New(client),
		snmp.New(client),
		ntp.New(client),
	}

	for _, rec := range reconcilers {
		if err := registry.Register(rec); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
