// Package pve defines the public contracts of the Proxmox VE API client:
// the dynamic path-building surface, the request submission interface, the
// classified error taxonomy, typed resource structures, and the optional
// response cache. The concrete client lives in internal/client and is
// constructed through pkg/pveclient.
package pve
