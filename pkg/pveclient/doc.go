// Package pveclient provides the public entry point for creating Proxmox
// VE API clients.
//
// A client is built from a pve.Config and authenticates during
// construction: with token credentials the Authorization header is
// installed up front, while with a username and password a single ticket
// request is made before New returns. Construction fails rather than
// handing back a client that cannot authenticate.
//
// Basic usage:
//
//	client, err := pveclient.New(ctx, &pve.Config{
//		Host:     "pve.example.com",
//		Username: "root",
//		Password: "secret",
//		Realm:    "pam",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	version, err := client.Version(ctx)
//
// Beyond the typed resource clients, arbitrary API paths are reached
// through the path builder:
//
//	result, err := client.At("nodes").At("pve1").At("qemu").Index(100).
//		At("config").Get(ctx, nil)
package pveclient
