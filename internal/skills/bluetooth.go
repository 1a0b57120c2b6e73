package skills

import (
	"fmt"
	"strings"
	"time"

	"skillbox/internal/domain"
	"skillbox/internal/runner"
	"skillbox/internal/schema"
)

// BluetoothSkill manages devices through bluetoothctl's non-interactive
// command mode (bluez 5.x).
type BluetoothSkill struct {
	run runner.Runner
}

func NewBluetoothSkill(run runner.Runner) *BluetoothSkill {
	return &BluetoothSkill{run: run}
}

func (s *BluetoothSkill) Name() string { return "bluetooth" }
func (s *BluetoothSkill) Description() string {
	return "Bluetooth: scan, pair, connect via bluetoothctl"
}

type btScanInput struct {
	Duration int `json:"duration,omitempty" jsonschema:"description=Scan duration in seconds (default: 10)"`
}

type btDevicesInput struct {
	PairedOnly bool `json:"paired_only,omitempty" jsonschema:"description=Only list paired devices"`
}

type btMACInput struct {
	MAC string `json:"mac" jsonschema:"description=Device MAC address"`
}

type btPowerInput struct {
	State string `json:"state" jsonschema:"description=Power state: 'on' or 'off'"`
}

type btDiscoverableInput struct {
	State   string `json:"state" jsonschema:"description=Discoverable state: 'on' or 'off'"`
	Timeout int    `json:"timeout,omitempty" jsonschema:"description=Discoverable timeout in seconds (0 = forever)"`
}

type btEmptyInput struct{}

func (s *BluetoothSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("bluetooth_scan", "Scan for nearby Bluetooth devices", btScanInput{}, s.scan),
		newTool("bluetooth_devices", "List known Bluetooth devices", btDevicesInput{}, s.devices),
		newTool("bluetooth_pair", "Pair with a Bluetooth device", btMACInput{}, s.pair),
		newTool("bluetooth_unpair", "Remove a paired Bluetooth device", btMACInput{}, s.unpair),
		newTool("bluetooth_connect", "Connect to a Bluetooth device", btMACInput{}, s.connect),
		newTool("bluetooth_disconnect", "Disconnect from a Bluetooth device", btMACInput{}, s.disconnect),
		newTool("bluetooth_trust", "Trust a device for automatic connection", btMACInput{}, s.trust),
		newTool("bluetooth_info", "Get Bluetooth adapter information", btEmptyInput{}, s.info),
		newTool("bluetooth_power", "Turn the Bluetooth adapter on or off", btPowerInput{}, s.power),
		newTool("bluetooth_discoverable", "Set Bluetooth discoverable mode", btDiscoverableInput{}, s.discoverable),
	}
}

type btDevice struct {
	MAC  string `json:"mac"`
	Name string `json:"name"`
}

// parseDeviceList extracts devices from "bluetoothctl devices" output, lines
// like "Device AA:BB:CC:DD:EE:FF Some Headphones".
func parseDeviceList(out string) []btDevice {
	var devices []btDevice
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "Device") {
			continue
		}
		fields := strings.Fields(line)
		for i, f := range fields {
			if len(f) == 17 && strings.Count(f, ":") == 5 {
				name := "Unknown"
				if i+1 < len(fields) {
					name = strings.Join(fields[i+1:], " ")
				}
				devices = append(devices, btDevice{MAC: f, Name: name})
				break
			}
		}
	}
	return devices
}

// parseAdapterShow pulls the interesting fields from "bluetoothctl show".
func parseAdapterShow(out string) map[string]string {
	wanted := map[string]bool{
		"name": true, "alias": true, "powered": true,
		"discoverable": true, "pairable": true,
	}
	info := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Controller ") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				info["address"] = fields[1]
			}
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
		if wanted[key] {
			info[key] = strings.TrimSpace(value)
		}
	}
	return info
}

func (s *BluetoothSkill) ctl(timeout time.Duration, args ...string) (string, error) {
	stdout, stderr, err := s.run.Run(timeout, "bluetoothctl", args...)
	return stdout + stderr, err
}

func (s *BluetoothSkill) scan(args schema.Args) (string, error) {
	duration := args.Int("duration", 10)
	if duration <= 0 {
		duration = 10
	}
	if duration > 60 {
		duration = 60
	}

	if out, err := s.ctl(10*time.Second, "power", "on"); err != nil {
		return jsonBlob(map[string]interface{}{"success": false, "error": strings.TrimSpace(out)}), nil
	}
	// --timeout makes scan on exit after the window instead of blocking.
	s.ctl(time.Duration(duration+5)*time.Second, "--timeout", fmt.Sprint(duration), "scan", "on")

	out, err := s.ctl(10*time.Second, "devices")
	if err != nil {
		return jsonBlob(map[string]interface{}{"success": false, "error": strings.TrimSpace(out)}), nil
	}

	devices := parseDeviceList(out)
	return jsonBlob(map[string]interface{}{
		"success":       true,
		"duration":      duration,
		"devices_found": len(devices),
		"devices":       devices,
	}), nil
}

func (s *BluetoothSkill) devices(args schema.Args) (string, error) {
	cmd := "devices"
	kind := "all"
	if args.Bool("paired_only", false) {
		cmd = "paired-devices"
		kind = "paired"
	}

	out, err := s.ctl(10*time.Second, cmd)
	if err != nil {
		return jsonBlob(map[string]interface{}{"success": false, "error": strings.TrimSpace(out)}), nil
	}

	devices := parseDeviceList(out)
	return jsonBlob(map[string]interface{}{
		"success": true,
		"type":    kind,
		"count":   len(devices),
		"devices": devices,
	}), nil
}

func (s *BluetoothSkill) pair(args schema.Args) (string, error) {
	mac := args.String("mac", "")
	out, _ := s.ctl(30*time.Second, "pair", mac)

	paired := strings.Contains(out, "Pairing successful") ||
		strings.Contains(strings.ToLower(out), "already paired")
	result := map[string]interface{}{
		"success": paired,
		"mac":     mac,
		"message": "Device paired",
	}
	if !paired {
		result["message"] = "Pairing failed"
		result["output"] = strings.TrimSpace(out)
	}
	return jsonBlob(result), nil
}

func (s *BluetoothSkill) unpair(args schema.Args) (string, error) {
	mac := args.String("mac", "")
	out, err := s.ctl(10*time.Second, "remove", mac)

	removed := err == nil || strings.Contains(out, "Device has been removed")
	message := "Device removed"
	if !removed {
		message = "Failed to remove device"
	}
	return jsonBlob(map[string]interface{}{
		"success": removed,
		"mac":     mac,
		"message": message,
	}), nil
}

func (s *BluetoothSkill) connect(args schema.Args) (string, error) {
	mac := args.String("mac", "")
	out, _ := s.ctl(15*time.Second, "connect", mac)

	connected := strings.Contains(out, "Connection successful") ||
		strings.Contains(out, "Connected: yes")
	result := map[string]interface{}{
		"success": connected,
		"mac":     mac,
		"message": "Connected",
	}
	if !connected {
		result["message"] = "Connection failed"
		result["output"] = strings.TrimSpace(out)
	}
	return jsonBlob(result), nil
}

func (s *BluetoothSkill) disconnect(args schema.Args) (string, error) {
	mac := args.String("mac", "")
	out, err := s.ctl(10*time.Second, "disconnect", mac)

	ok := err == nil || strings.Contains(out, "Successful disconnected")
	message := "Disconnected"
	if !ok {
		message = "Failed to disconnect"
	}
	return jsonBlob(map[string]interface{}{
		"success": ok,
		"mac":     mac,
		"message": message,
	}), nil
}

func (s *BluetoothSkill) trust(args schema.Args) (string, error) {
	mac := args.String("mac", "")
	out, err := s.ctl(10*time.Second, "trust", mac)

	ok := err == nil || strings.Contains(strings.ToLower(out), "trust succeeded")
	message := "Device trusted"
	if !ok {
		message = "Failed to trust device"
	}
	return jsonBlob(map[string]interface{}{
		"success": ok,
		"mac":     mac,
		"message": message,
	}), nil
}

func (s *BluetoothSkill) info(schema.Args) (string, error) {
	out, err := s.ctl(10*time.Second, "show")
	if err != nil {
		return jsonBlob(map[string]interface{}{"success": false, "error": strings.TrimSpace(out)}), nil
	}

	result := map[string]interface{}{"available": true}
	for k, v := range parseAdapterShow(out) {
		result[k] = v
	}
	return jsonBlob(result), nil
}

func (s *BluetoothSkill) power(args schema.Args) (string, error) {
	state := args.String("state", "")
	if state != "on" && state != "off" {
		return fmt.Sprintf("Invalid state: %s (use 'on' or 'off')", state), nil
	}

	_, err := s.ctl(10*time.Second, "power", state)
	message := fmt.Sprintf("Bluetooth powered %s", state)
	if err != nil {
		message = "Failed to change power state"
	}
	return jsonBlob(map[string]interface{}{
		"success": err == nil,
		"power":   state,
		"message": message,
	}), nil
}

func (s *BluetoothSkill) discoverable(args schema.Args) (string, error) {
	state := args.String("state", "")
	if state != "on" && state != "off" {
		return fmt.Sprintf("Invalid state: %s (use 'on' or 'off')", state), nil
	}

	_, err := s.ctl(10*time.Second, "discoverable", state)
	result := map[string]interface{}{
		"success":      err == nil,
		"discoverable": state,
	}
	if args.Has("timeout") {
		timeout := args.Int("timeout", 0)
		s.ctl(10*time.Second, "discoverable-timeout", fmt.Sprint(timeout))
		result["timeout"] = timeout
	}
	return jsonBlob(result), nil
}
