package skills

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"skillbox/internal/domain"
	"skillbox/internal/runner"
	"skillbox/internal/schema"
)

// WiFiSkill drives NetworkManager through nmcli. All parsing works on the
// machine-readable colon-terse output (-t).
type WiFiSkill struct {
	run runner.Runner
}

func NewWiFiSkill(run runner.Runner) *WiFiSkill {
	return &WiFiSkill{run: run}
}

func (s *WiFiSkill) Name() string        { return "wifi" }
func (s *WiFiSkill) Description() string { return "WiFi: scan, connect, status, hotspot via nmcli" }

type wifiScanInput struct {
	Interface string `json:"interface,omitempty" jsonschema:"description=Wireless interface (auto-detected if omitted)"`
}

type wifiConnectInput struct {
	SSID      string `json:"ssid" jsonschema:"description=Network SSID"`
	Password  string `json:"password,omitempty" jsonschema:"description=Network password"`
	Interface string `json:"interface,omitempty" jsonschema:"description=Wireless interface"`
}

type wifiSSIDInput struct {
	SSID string `json:"ssid" jsonschema:"description=Network SSID"`
}

type wifiToggleInput struct {
	State string `json:"state" jsonschema:"description='on' or 'off'"`
}

type wifiHotspotInput struct {
	Action   string `json:"action" jsonschema:"description='start' or 'stop'"`
	SSID     string `json:"ssid,omitempty" jsonschema:"description=Hotspot SSID (default: Skillbox-Hotspot)"`
	Password string `json:"password,omitempty" jsonschema:"description=Hotspot password"`
}

type wifiEmptyInput struct{}

func (s *WiFiSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("wifi_scan", "Scan for nearby WiFi networks", wifiScanInput{}, s.scan),
		newTool("wifi_connect", "Connect to a WiFi network", wifiConnectInput{}, s.connect),
		newTool("wifi_disconnect", "Disconnect from WiFi", wifiScanInput{}, s.disconnect),
		newTool("wifi_status", "Get current WiFi connection status", wifiEmptyInput{}, s.status),
		newTool("wifi_saved", "List saved WiFi networks", wifiEmptyInput{}, s.saved),
		newTool("wifi_forget", "Forget a saved WiFi network", wifiSSIDInput{}, s.forget),
		newTool("wifi_toggle", "Turn the WiFi radio on or off", wifiToggleInput{}, s.toggle),
		newTool("wifi_hotspot", "Start or stop a WiFi hotspot", wifiHotspotInput{}, s.hotspot),
		newTool("wifi_info", "Get WiFi interface info", wifiEmptyInput{}, s.info),
	}
}

type wifiNetwork struct {
	SSID     string `json:"ssid"`
	Signal   int    `json:"signal"`
	Security string `json:"security"`
	BSSID    string `json:"bssid,omitempty"`
}

// parseScanOutput parses "nmcli -t -f SSID,SIGNAL,SECURITY,BSSID device wifi
// list". BSSID colons are escaped by nmcli as "\:".
func parseScanOutput(out string) []wifiNetwork {
	var networks []wifiNetwork
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := splitNmcli(line)
		if len(parts) < 3 || parts[0] == "" {
			continue
		}
		signal, _ := strconv.Atoi(parts[1])
		n := wifiNetwork{SSID: parts[0], Signal: signal, Security: parts[2]}
		if n.Security == "" {
			n.Security = "Open"
		}
		if len(parts) > 3 {
			n.BSSID = parts[3]
		}
		networks = append(networks, n)
	}
	// Strongest first.
	for i := 1; i < len(networks); i++ {
		for j := i; j > 0 && networks[j].Signal > networks[j-1].Signal; j-- {
			networks[j], networks[j-1] = networks[j-1], networks[j]
		}
	}
	return networks
}

// splitNmcli splits a terse nmcli line on unescaped colons.
func splitNmcli(line string) []string {
	var parts []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// parseActiveStatus parses "nmcli -t -f ACTIVE,SSID,SIGNAL device wifi" and
// returns the active network, if any.
func parseActiveStatus(out string) (ssid string, signal int, connected bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "yes:") {
			continue
		}
		parts := splitNmcli(line)
		if len(parts) > 1 {
			ssid = parts[1]
		}
		if len(parts) > 2 {
			signal, _ = strconv.Atoi(parts[2])
		}
		return ssid, signal, true
	}
	return "", 0, false
}

// parseSavedConnections parses "nmcli -t -f NAME,TYPE connection show" and
// keeps wireless profiles.
func parseSavedConnections(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, ":802-11-wireless") {
			names = append(names, splitNmcli(line)[0])
		}
	}
	return names
}

func (s *WiFiSkill) detectInterface() string {
	out, _, err := s.run.Run(10*time.Second, "nmcli", "-t", "-f", "DEVICE,TYPE", "device")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(out, "\n") {
		parts := splitNmcli(line)
		if len(parts) >= 2 && parts[1] == "wifi" {
			return parts[0]
		}
	}
	return ""
}

func (s *WiFiSkill) scan(args schema.Args) (string, error) {
	out, stderr, err := s.run.Run(30*time.Second, "nmcli",
		"-t", "-f", "SSID,SIGNAL,SECURITY,BSSID", "device", "wifi", "list")
	if err != nil {
		return fmt.Sprintf("WiFi scan failed: %v: %s", err, strings.TrimSpace(stderr)), nil
	}
	networks := parseScanOutput(out)
	return jsonBlob(map[string]interface{}{
		"success":        true,
		"networks_found": len(networks),
		"networks":       networks,
	}), nil
}

func (s *WiFiSkill) connect(args schema.Args) (string, error) {
	ssid := args.String("ssid", "")
	cmd := []string{"device", "wifi", "connect", ssid}
	if pw := args.String("password", ""); pw != "" {
		cmd = append(cmd, "password", pw)
	}
	if iface := args.String("interface", ""); iface != "" {
		cmd = append(cmd, "ifname", iface)
	}

	_, stderr, err := s.run.Run(60*time.Second, "nmcli", cmd...)
	message := "Connected"
	if err != nil {
		message = strings.TrimSpace(stderr)
		if message == "" {
			message = err.Error()
		}
	}
	return jsonBlob(map[string]interface{}{
		"success": err == nil,
		"ssid":    ssid,
		"message": message,
	}), nil
}

func (s *WiFiSkill) disconnect(args schema.Args) (string, error) {
	iface := args.String("interface", "")
	if iface == "" {
		iface = s.detectInterface()
	}
	if iface == "" {
		iface = "wlan0"
	}

	_, stderr, err := s.run.Run(10*time.Second, "nmcli", "device", "disconnect", iface)
	message := "Disconnected"
	if err != nil {
		message = strings.TrimSpace(stderr)
	}
	return jsonBlob(map[string]interface{}{
		"success": err == nil,
		"message": message,
	}), nil
}

func (s *WiFiSkill) status(schema.Args) (string, error) {
	status := map[string]interface{}{
		"connected":  false,
		"ssid":       nil,
		"signal":     nil,
		"ip_address": nil,
	}

	if out, _, err := s.run.Run(10*time.Second, "nmcli",
		"-t", "-f", "ACTIVE,SSID,SIGNAL", "device", "wifi"); err == nil {
		if ssid, signal, connected := parseActiveStatus(out); connected {
			status["connected"] = true
			status["ssid"] = ssid
			status["signal"] = signal
		}
	}
	if out, _, err := s.run.Run(10*time.Second, "hostname", "-I"); err == nil {
		if fields := strings.Fields(out); len(fields) > 0 {
			status["ip_address"] = fields[0]
		}
	}
	return jsonBlob(status), nil
}

func (s *WiFiSkill) saved(schema.Args) (string, error) {
	out, stderr, err := s.run.Run(10*time.Second, "nmcli",
		"-t", "-f", "NAME,TYPE", "connection", "show")
	if err != nil {
		return fmt.Sprintf("Failed to list connections: %v: %s", err, strings.TrimSpace(stderr)), nil
	}
	networks := parseSavedConnections(out)
	return jsonBlob(map[string]interface{}{
		"success":  true,
		"count":    len(networks),
		"networks": networks,
	}), nil
}

func (s *WiFiSkill) forget(args schema.Args) (string, error) {
	ssid := args.String("ssid", "")
	_, stderr, err := s.run.Run(10*time.Second, "nmcli", "connection", "delete", ssid)
	message := "Network forgotten"
	if err != nil {
		message = strings.TrimSpace(stderr)
	}
	return jsonBlob(map[string]interface{}{
		"success": err == nil,
		"ssid":    ssid,
		"message": message,
	}), nil
}

func (s *WiFiSkill) toggle(args schema.Args) (string, error) {
	state := args.String("state", "")
	if state != "on" && state != "off" {
		return fmt.Sprintf("Invalid state: %s (use 'on' or 'off')", state), nil
	}
	_, stderr, err := s.run.Run(10*time.Second, "nmcli", "radio", "wifi", state)
	message := fmt.Sprintf("WiFi turned %s", state)
	if err != nil {
		message = strings.TrimSpace(stderr)
	}
	return jsonBlob(map[string]interface{}{
		"success": err == nil,
		"wifi":    state,
		"message": message,
	}), nil
}

func (s *WiFiSkill) hotspot(args schema.Args) (string, error) {
	switch action := args.String("action", ""); action {
	case "start":
		ssid := args.String("ssid", "Skillbox-Hotspot")
		password := args.String("password", "skillbox-12345")

		_, stderr, err := s.run.Run(30*time.Second, "nmcli",
			"device", "wifi", "hotspot", "ssid", ssid, "password", password)
		result := map[string]interface{}{
			"success": err == nil,
			"action":  "start",
			"ssid":    ssid,
		}
		if err == nil {
			result["password"] = password
			result["message"] = "Hotspot started"
		} else {
			result["message"] = strings.TrimSpace(stderr)
		}
		return jsonBlob(result), nil

	case "stop":
		_, stderr, err := s.run.Run(10*time.Second, "nmcli", "connection", "down", "Hotspot")
		message := "Hotspot stopped"
		if err != nil {
			message = strings.TrimSpace(stderr)
		}
		return jsonBlob(map[string]interface{}{
			"success": err == nil,
			"action":  "stop",
			"message": message,
		}), nil

	default:
		return fmt.Sprintf("Unknown action: %s", action), nil
	}
}

func (s *WiFiSkill) info(args schema.Args) (string, error) {
	status, _ := s.status(args)

	var parsed map[string]interface{}
	if err := jsonUnmarshal([]byte(status), &parsed); err != nil {
		parsed = map[string]interface{}{}
	}
	parsed["interface"] = s.detectInterface()
	return jsonBlob(parsed), nil
}
