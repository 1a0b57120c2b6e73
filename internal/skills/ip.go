package skills

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"skillbox/internal/domain"
	"skillbox/internal/fetch"
	"skillbox/internal/schema"
)

// geoAPIBase is the public geolocation endpoint.
const geoAPIBase = "http://ip-api.com/json/"

// IPSkill provides IP validation, CIDR math and geolocation lookup.
type IPSkill struct {
	fetcher fetch.Fetcher
}

// NewIPSkill returns the ip skill using the given HTTP fetcher for
// geolocation lookups.
func NewIPSkill(fetcher fetch.Fetcher) *IPSkill {
	return &IPSkill{fetcher: fetcher}
}

func (s *IPSkill) Name() string        { return "ip" }
func (s *IPSkill) Description() string { return "IP: validate, CIDR, geolocation, network info" }

type ipInput struct {
	IP string `json:"ip" jsonschema:"description=IP address"`
}

type ipOptionalInput struct {
	IP string `json:"ip,omitempty" jsonschema:"description=IP address (default: caller's public IP)"`
}

type cidrInput struct {
	CIDR string `json:"cidr" jsonschema:"description=CIDR notation, e.g. 192.168.1.0/24"`
}

type ipRangeInput struct {
	Start string `json:"start" jsonschema:"description=Range start IP"`
	End   string `json:"end" jsonschema:"description=Range end IP"`
}

type intToIPInput struct {
	Number int `json:"number" jsonschema:"description=Integer form of an IPv4 address"`
}

func (s *IPSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("ip_validate", "Validate an IP address", ipInput{}, s.validate),
		newTool("ip_info", "Get information about an IPv4 address", ipInput{}, s.info),
		newTool("ip_geolocation", "Get geolocation for an IP address", ipOptionalInput{}, s.geolocation),
		newTool("ip_cidr", "Calculate CIDR network info", cidrInput{}, s.cidr),
		newTool("ip_range", "List IP addresses in a range", ipRangeInput{}, s.ipRange),
		newTool("ip_to_int", "Convert an IPv4 address to an integer", ipInput{}, s.toInt),
		newTool("int_to_ip", "Convert an integer to an IPv4 address", intToIPInput{}, s.fromInt),
		newTool("ip_is_private", "Check whether an IPv4 address is private", ipInput{}, s.isPrivate),
	}
}

// =============================================================================
// Pure helpers
// =============================================================================

// isValidIPv4 accepts only strict dotted-quad notation with octets 0-255.
func isValidIPv4(ip string) bool {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

func isValidIPv6(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && strings.Contains(ip, ":")
}

func ipToUint32(ip string) uint32 {
	var n uint32
	for _, p := range strings.Split(ip, ".") {
		o, _ := strconv.Atoi(p)
		n = n<<8 | uint32(o)
	}
	return n
}

func uint32ToIP(n uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", n>>24&0xFF, n>>16&0xFF, n>>8&0xFF, n&0xFF)
}

func isPrivateIPv4(ip string) bool {
	parts := strings.Split(ip, ".")
	a, _ := strconv.Atoi(parts[0])
	b, _ := strconv.Atoi(parts[1])
	switch {
	case a == 10:
		return true
	case a == 172 && b >= 16 && b <= 31:
		return true
	case a == 192 && b == 168:
		return true
	}
	return false
}

// =============================================================================
// Handlers
// =============================================================================

func (s *IPSkill) validate(args schema.Args) (string, error) {
	ip := args.String("ip", "")
	v4 := isValidIPv4(ip)
	v6 := !v4 && isValidIPv6(ip)

	var version interface{}
	kind := "Invalid"
	if v4 {
		version, kind = 4, "IPv4"
	} else if v6 {
		version, kind = 6, "IPv6"
	}
	return jsonBlob(map[string]interface{}{
		"ip":      ip,
		"valid":   v4 || v6,
		"version": version,
		"type":    kind,
	}), nil
}

func (s *IPSkill) info(args schema.Args) (string, error) {
	ip := args.String("ip", "")
	if !isValidIPv4(ip) {
		return fmt.Sprintf("Invalid IPv4 address: %s", ip), nil
	}

	parts := strings.Split(ip, ".")
	first, _ := strconv.Atoi(parts[0])

	var class, mask string
	switch {
	case first < 128:
		class, mask = "A", "255.0.0.0"
	case first < 192:
		class, mask = "B", "255.255.0.0"
	case first < 224:
		class, mask = "C", "255.255.255.0"
	case first < 240:
		class, mask = "D (Multicast)", "N/A"
	default:
		class, mask = "E (Reserved)", "N/A"
	}

	bins := make([]string, 4)
	for i, p := range parts {
		o, _ := strconv.Atoi(p)
		bins[i] = fmt.Sprintf("%08b", o)
	}

	return jsonBlob(map[string]interface{}{
		"ip":            ip,
		"class":         class,
		"default_mask":  mask,
		"is_private":    isPrivateIPv4(ip),
		"is_loopback":   strings.HasPrefix(ip, "127."),
		"is_link_local": strings.HasPrefix(ip, "169.254."),
		"binary":        strings.Join(bins, "."),
		"integer":       ipToUint32(ip),
	}), nil
}

func (s *IPSkill) geolocation(args schema.Args) (string, error) {
	url := geoAPIBase + args.String("ip", "")

	var data map[string]interface{}
	body, err := s.fetcher.Get(url)
	if err != nil {
		return "", fmt.Errorf("geolocation lookup failed: %w", err)
	}
	if err := jsonUnmarshal(body, &data); err != nil {
		return "", fmt.Errorf("geolocation lookup failed: %w", err)
	}
	if data["status"] == "fail" {
		return fmt.Sprintf("Geolocation failed: %v", data["message"]), nil
	}

	return jsonBlob(map[string]interface{}{
		"ip":           data["query"],
		"country":      data["country"],
		"country_code": data["countryCode"],
		"region":       data["regionName"],
		"city":         data["city"],
		"zip":          data["zip"],
		"latitude":     data["lat"],
		"longitude":    data["lon"],
		"timezone":     data["timezone"],
		"isp":          data["isp"],
		"org":          data["org"],
	}), nil
}

func (s *IPSkill) cidr(args schema.Args) (string, error) {
	notation := args.String("cidr", "")
	ipStr, prefixStr, found := strings.Cut(notation, "/")
	if !found {
		return "Invalid CIDR notation", nil
	}
	prefix, err := strconv.Atoi(prefixStr)
	if err != nil || !isValidIPv4(ipStr) || prefix < 0 || prefix > 32 {
		return "Invalid CIDR notation", nil
	}

	ip := ipToUint32(ipStr)
	var mask uint32
	if prefix > 0 {
		mask = ^uint32(0) << (32 - prefix)
	}
	wildcard := ^mask
	network := ip & mask
	broadcast := network | wildcard

	firstHost, lastHost := network, broadcast
	numHosts := uint64(1) << (32 - prefix)
	if prefix < 31 {
		firstHost, lastHost = network+1, broadcast-1
		numHosts -= 2
	}

	return jsonBlob(map[string]interface{}{
		"cidr":       notation,
		"network":    uint32ToIP(network),
		"broadcast":  uint32ToIP(broadcast),
		"netmask":    uint32ToIP(mask),
		"wildcard":   uint32ToIP(wildcard),
		"first_host": uint32ToIP(firstHost),
		"last_host":  uint32ToIP(lastHost),
		"num_hosts":  numHosts,
		"prefix":     prefix,
	}), nil
}

func (s *IPSkill) ipRange(args schema.Args) (string, error) {
	start, end := args.String("start", ""), args.String("end", "")
	if !isValidIPv4(start) || !isValidIPv4(end) {
		return "Invalid IP address", nil
	}

	lo, hi := ipToUint32(start), ipToUint32(end)
	if lo > hi {
		lo, hi = hi, lo
	}
	count := uint64(hi) - uint64(lo) + 1

	if count > 256 {
		firstFive := make([]string, 5)
		lastFive := make([]string, 5)
		for i := 0; i < 5; i++ {
			firstFive[i] = uint32ToIP(lo + uint32(i))
			lastFive[i] = uint32ToIP(hi - 4 + uint32(i))
		}
		return jsonBlob(map[string]interface{}{
			"start":   start,
			"end":     end,
			"count":   count,
			"note":    "Too many IPs to list (max 256). Showing first and last 5.",
			"first_5": firstFive,
			"last_5":  lastFive,
		}), nil
	}

	ips := make([]string, 0, count)
	for n := lo; ; n++ {
		ips = append(ips, uint32ToIP(n))
		if n == hi {
			break
		}
	}
	return jsonBlob(map[string]interface{}{
		"start": start,
		"end":   end,
		"count": count,
		"ips":   ips,
	}), nil
}

func (s *IPSkill) toInt(args schema.Args) (string, error) {
	ip := args.String("ip", "")
	if !isValidIPv4(ip) {
		return fmt.Sprintf("Invalid IP: %s", ip), nil
	}
	n := ipToUint32(ip)
	return jsonBlob(map[string]interface{}{
		"ip":      ip,
		"integer": n,
		"hex":     fmt.Sprintf("0x%x", n),
	}), nil
}

func (s *IPSkill) fromInt(args schema.Args) (string, error) {
	n := args.Int("number", -1)
	if n < 0 || int64(n) > 0xFFFFFFFF {
		return "Number out of range (0 - 4294967295)", nil
	}
	return jsonBlob(map[string]interface{}{
		"integer": n,
		"ip":      uint32ToIP(uint32(n)),
	}), nil
}

func (s *IPSkill) isPrivate(args schema.Args) (string, error) {
	ip := args.String("ip", "")
	if !isValidIPv4(ip) {
		return fmt.Sprintf("Invalid IP: %s", ip), nil
	}
	private := isPrivateIPv4(ip)
	loopback := strings.HasPrefix(ip, "127.")

	kind := "Public"
	if private {
		kind = "Private"
	} else if loopback {
		kind = "Loopback"
	}
	return jsonBlob(map[string]interface{}{
		"ip":         ip,
		"is_private": private,
		"is_public":  !private && !loopback,
		"type":       kind,
	}), nil
}
