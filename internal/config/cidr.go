package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrInvalidCIDR is returned when a subnet range cannot be parsed as IPv4 CIDR.
	ErrInvalidCIDR = errors.New("invalid IPv4 CIDR")

	// ErrGatewayOutsideCIDR is returned when a gateway address is not a usable host of its subnet.
	ErrGatewayOutsideCIDR = errors.New("gateway is not a usable host address of the subnet")
)

// CIDRHost calculates a full host IP address for a given network address and host number.
// This mimics the behavior of Terraform's cidrhost function.
//
// Parameters:
//   - prefix: The network prefix (e.g., "10.0.0.0/24")
//   - hostnum: The host number to calculate. Can be negative to count from the end
//
// Note: Only IPv4 addresses are supported. IPv6 addresses will return an error.
func CIDRHost(prefix string, hostnum int) (string, error) {
	network, err := parseIPv4CIDR(prefix)
	if err != nil {
		return "", err
	}

	maskSize, totalBits := network.Mask.Size()
	maxHosts := uint64(1) << (totalBits - maskSize)

	var offset uint64
	if hostnum < 0 {
		absHostNum := uint64(-hostnum)
		if absHostNum > maxHosts {
			return "", fmt.Errorf("host number %d exceeds max hosts %d", hostnum, maxHosts)
		}
		offset = maxHosts - absHostNum
	} else {
		offset = uint64(hostnum)
		if offset >= maxHosts {
			return "", fmt.Errorf("host number %d exceeds max hosts %d", hostnum, maxHosts)
		}
	}

	return ipFromUint(ipToUint(network.IP) + offset).String(), nil
}

// ValidateGateway checks that gateway is an IPv4 host address inside cidr
// and is neither the network nor the broadcast address. /31 and /32
// subnets have no reserved addresses.
func ValidateGateway(cidr, gateway string) error {
	network, err := parseIPv4CIDR(cidr)
	if err != nil {
		return err
	}

	gw := net.ParseIP(gateway).To4()
	if gw == nil {
		return fmt.Errorf("%w: %q is not an IPv4 address", ErrGatewayOutsideCIDR, gateway)
	}
	if !network.Contains(gw) {
		return fmt.Errorf("%w: %s not in %s", ErrGatewayOutsideCIDR, gateway, cidr)
	}

	maskSize, totalBits := network.Mask.Size()
	if totalBits-maskSize < 2 {
		return nil
	}

	first := ipToUint(network.IP)
	last := first + (uint64(1) << (totalBits - maskSize)) - 1
	switch ipToUint(gw) {
	case first:
		return fmt.Errorf("%w: %s is the network address of %s", ErrGatewayOutsideCIDR, gateway, cidr)
	case last:
		return fmt.Errorf("%w: %s is the broadcast address of %s", ErrGatewayOutsideCIDR, gateway, cidr)
	}
	return nil
}

func parseIPv4CIDR(prefix string) (*net.IPNet, error) {
	_, network, err := net.ParseCIDR(prefix)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidCIDR, prefix, err)
	}
	if network.IP.To4() == nil {
		return nil, fmt.Errorf("%w %q: only IPv4 is supported", ErrInvalidCIDR, prefix)
	}
	return network, nil
}

// ipToUint converts an IPv4 address to uint64.
func ipToUint(ip net.IP) uint64 {
	return uint64(binary.BigEndian.Uint32(ip.To4()))
}

// ipFromUint converts a uint64 value back to an IPv4 address.
func ipFromUint(val uint64) net.IP {
	ip := make(net.IP, 4)
	// #nosec G115
	binary.BigEndian.PutUint32(ip, uint32(val))
	return ip
}
