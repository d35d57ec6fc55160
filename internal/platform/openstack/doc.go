// Package openstack wraps the gophercloud SDK behind small per-resource
// interfaces used by the provisioning phases.
//
// Every Get* method is a fresh lookup by name that returns (nil, nil) when
// the resource does not exist. Every Ensure* method is a find-or-create
// built on EnsureOperation; existing resources are returned as they are,
// without comparing their attributes to the requested ones. The router's
// external gateway is the one attribute that is reconciled, through
// EnsureRouterGateway.
//
// FakeClient is a stateful in-memory implementation for tests.
package openstack
