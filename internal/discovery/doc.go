// Package discovery finds nameloc directory servers on the local network.
//
// Directory servers started with advertising enabled register the
// "_nameloc._tcp" mDNS service type. The TXT record carries the API path,
// the server version, and "scheme=https" when TLS is on.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	service, err := scanner.FindFirst(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := directory.NewClient(service.BaseURL())
//
// Scan collects every server that answers within the timeout instead of
// stopping at the first.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Servers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
