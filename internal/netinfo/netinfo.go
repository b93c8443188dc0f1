// Package netinfo discovers the LAN address peers use to reach the service.
package netinfo

import (
	"fmt"
	"net"
	"time"

	"github.com/jackpal/gateway"
)

// LocalIP returns the IPv4 address of the interface that routes to the
// default gateway. When gateway discovery fails it falls back to the source
// address of an outbound UDP socket, and finally to the loopback address, so
// the caller always gets something printable.
func LocalIP() string {
	if gwIP, err := gateway.DiscoverGateway(); err == nil {
		if ip, err := interfaceIPForGateway(gwIP); err == nil {
			return ip.String()
		}
	}
	if ip, err := outboundIP(); err == nil {
		return ip.String()
	}
	return "127.0.0.1"
}

// interfaceIPForGateway scans the up interfaces for an IPv4 address whose
// subnet contains the gateway.
func interfaceIPForGateway(gwIP net.IP) (net.IP, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ipv4 := ipnet.IP.To4()
			if ipv4 == nil || !ipv4.IsGlobalUnicast() {
				continue
			}
			if ipnet.Contains(gwIP) {
				return ipv4, nil
			}
		}
	}

	return nil, fmt.Errorf("no IPv4 interface shares a subnet with gateway %s", gwIP)
}

// outboundIP asks the kernel which source address it would pick for outbound
// traffic. The dial never sends a packet; UDP connect only selects a route.
func outboundIP() (net.IP, error) {
	conn, err := net.DialTimeout("udp", "8.8.8.8:80", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("probing outbound route: %w", err)
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || local.IP == nil {
		return nil, fmt.Errorf("unexpected local address %v", conn.LocalAddr())
	}
	return local.IP, nil
}

// ServiceURL builds the address shown in the startup banner and encoded in
// the pairing QR code.
func ServiceURL(ip, port string) string {
	return fmt.Sprintf("http://%s:%s", ip, port)
}
