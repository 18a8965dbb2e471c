// Package discovery advertises and finds iBoost buddy daemons over mDNS.
//
// A running daemon registers its HTTP API as an "_iboost._tcp" service so
// that CLI commands on the same network can reach it without a configured
// address.
//
// # Advertising
//
//	ad, err := discovery.Advertise("iboost-buddy", 8080,
//	    discovery.TXTRecords("/api", version.Get()))
//	if err != nil {
//	    return err
//	}
//	defer ad.Shutdown()
//
// # Finding a Daemon
//
//	daemon, err := discovery.FindDaemon(ctx, "")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(daemon.BaseURL())
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - The daemon and the CLI must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
