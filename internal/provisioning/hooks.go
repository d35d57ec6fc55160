package provisioning

import (
	"github.com/osdemo/bgplab/internal/metrics"
	"github.com/osdemo/bgplab/internal/platform/docker"
	"github.com/osdemo/bgplab/internal/platform/openstack"
)

// ResourceHook reports every OpenStack ensure outcome as an event and counts it in rec.
// rec may be nil.
func ResourceHook(observer Observer, rec *metrics.Recorder) openstack.EnsureHook {
	return func(resourceType, name, id string, outcome openstack.Outcome) {
		switch outcome {
		case openstack.OutcomeCreated:
			LogResourceCreated(observer, "", resourceType, name, id)
		case openstack.OutcomeUpdated:
			LogResourceUpdated(observer, "", resourceType, name, id)
		default:
			LogResourceExists(observer, "", resourceType, name, id)
		}
		if rec != nil {
			rec.RecordResource(resourceType, string(outcome))
		}
	}
}

// ContainerHook reports Docker network and container changes as events and counts them in rec.
// rec may be nil.
func ContainerHook(observer Observer, rec *metrics.Recorder) docker.EventHook {
	return func(resourceType, name, id, action string) {
		recorded := action
		switch action {
		case docker.ActionCreated:
			LogResourceCreated(observer, "", resourceType, name, id)
		case docker.ActionRemoved:
			LogResourceDeleted(observer, "", resourceType, name, id)
			recorded = metrics.ActionDeleted
		default:
			LogResourceExists(observer, "", resourceType, name, id)
		}
		if rec != nil {
			rec.RecordResource(resourceType, recorded)
		}
	}
}
