package skills

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"skillbox/internal/domain"
	"skillbox/internal/fetch"
	"skillbox/internal/runner"
	"skillbox/internal/schema"
)

// AndroidSkill controls a phone over adb, falling back to an HTTP bridge app
// when adb is unavailable. The bridge speaks POST {bridge}/api/{action} with a
// JSON body of {"action": ..., "params": {...}}.
type AndroidSkill struct {
	run       runner.Runner
	finder    runner.BinaryFinder
	fetcher   fetch.Fetcher
	bridgeURL string
}

func NewAndroidSkill(run runner.Runner, finder runner.BinaryFinder, fetcher fetch.Fetcher, bridgeURL string) *AndroidSkill {
	return &AndroidSkill{run: run, finder: finder, fetcher: fetcher, bridgeURL: strings.TrimRight(bridgeURL, "/")}
}

func (s *AndroidSkill) Name() string        { return "android" }
func (s *AndroidSkill) Description() string { return "Android: SMS, calls, apps, sensors via adb or bridge" }

type androidSMSSendInput struct {
	Phone   string `json:"phone" jsonschema:"description=Phone number"`
	Message string `json:"message" jsonschema:"description=Message text"`
}

type androidSMSListInput struct {
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Max messages (default: 10)"`
	Folder string `json:"folder,omitempty" jsonschema:"description=Folder (default: inbox)"`
}

type androidPhoneInput struct {
	Phone string `json:"phone" jsonschema:"description=Phone number"`
}

type androidContactsInput struct {
	Search string `json:"search,omitempty" jsonschema:"description=Name filter"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Max contacts (default: 20)"`
}

type androidPhotoInput struct {
	Camera string `json:"camera,omitempty" jsonschema:"description='back' or 'front' (default: back)"`
}

type androidNotificationInput struct {
	Title    string `json:"title" jsonschema:"description=Notification title"`
	Message  string `json:"message" jsonschema:"description=Notification body"`
	Priority string `json:"priority,omitempty" jsonschema:"description=Priority (default: default)"`
}

type androidPackageInput struct {
	Package string `json:"package" jsonschema:"description=App package name"`
}

type androidAppsListInput struct {
	System bool `json:"system,omitempty" jsonschema:"description=Include system packages"`
}

type androidSensorsInput struct {
	Sensor string `json:"sensor,omitempty" jsonschema:"description=Sensor name or 'all'"`
}

type androidVolumeInput struct {
	Stream string `json:"stream,omitempty" jsonschema:"description=Stream: media, ring, alarm, notification (default: media)"`
	Level  int    `json:"level,omitempty" jsonschema:"description=Volume percent 0-100 (omit to read)"`
}

type androidScreenInput struct {
	Action string `json:"action" jsonschema:"description='on', 'off' or 'brightness'"`
	Value  int    `json:"value,omitempty" jsonschema:"description=Brightness value 0-255"`
}

type androidClipboardInput struct {
	Text string `json:"text,omitempty" jsonschema:"description=Text to place on the clipboard (omit to read)"`
}

type androidConnectInput struct {
	Method  string `json:"method" jsonschema:"description=Connection method: 'adb' or 'bridge'"`
	Address string `json:"address,omitempty" jsonschema:"description=Device address (ip:port for wireless adb, URL for bridge)"`
}

type androidEmptyInput struct{}

func (s *AndroidSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("android_sms_send", "Send an SMS", androidSMSSendInput{}, s.smsSend),
		newTool("android_sms_list", "List SMS messages", androidSMSListInput{}, s.smsList),
		newTool("android_call", "Make a phone call", androidPhoneInput{}, s.call),
		newTool("android_contacts", "List or search contacts", androidContactsInput{}, s.contacts),
		newTool("android_photo", "Open the camera to take a photo", androidPhotoInput{}, s.photo),
		newTool("android_notification", "Show a notification on the device", androidNotificationInput{}, s.notification),
		newTool("android_app_launch", "Launch an app by package name", androidPackageInput{}, s.appLaunch),
		newTool("android_apps_list", "List installed apps", androidAppsListInput{}, s.appsList),
		newTool("android_location", "Get GPS location", androidEmptyInput{}, s.location),
		newTool("android_sensors", "Read device sensors", androidSensorsInput{}, s.sensors),
		newTool("android_battery", "Get battery info", androidEmptyInput{}, s.battery),
		newTool("android_volume", "Get or set volume", androidVolumeInput{}, s.volume),
		newTool("android_screen", "Control screen power and brightness", androidScreenInput{}, s.screen),
		newTool("android_clipboard", "Get or set the clipboard", androidClipboardInput{}, s.clipboard),
		newTool("android_info", "Get device information", androidEmptyInput{}, s.info),
		newTool("android_connect", "Connect to the device over adb or bridge", androidConnectInput{}, s.connect),
	}
}

func (s *AndroidSkill) adbAvailable() bool {
	if s.finder == nil {
		return false
	}
	_, err := s.finder.LookPath("adb")
	return err == nil
}

func (s *AndroidSkill) adb(timeout time.Duration, args ...string) (string, bool) {
	stdout, stderr, err := s.run.Run(timeout, "adb", args...)
	return stdout + stderr, err == nil
}

// bridge posts an action to the bridge app and returns its raw JSON reply.
func (s *AndroidSkill) bridge(action string, params map[string]interface{}) (string, error) {
	if s.bridgeURL == "" {
		return jsonBlob(map[string]interface{}{
			"success": false,
			"error":   "No bridge connection",
		}), nil
	}
	body, err := s.fetcher.PostJSON(s.bridgeURL+"/api/"+action, map[string]interface{}{
		"action": action,
		"params": params,
	})
	if err != nil {
		return jsonBlob(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		}), nil
	}
	return string(body), nil
}

// parseContentRows parses "adb shell content query" output. Each row is a
// comma-separated list of key=value pairs, preceded by "Row: N".
func parseContentRows(out string) []map[string]string {
	var rows []map[string]string
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "=") || strings.TrimSpace(line) == "" {
			continue
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Row:") {
			// Strip the "Row: N" prefix, keep the fields.
			if fields := strings.SplitN(line, " ", 3); len(fields) == 3 {
				line = fields[2]
			}
		}
		row := map[string]string{}
		for _, part := range strings.Split(line, ", ") {
			if key, val, found := strings.Cut(part, "="); found {
				row[strings.TrimSpace(key)] = strings.TrimSpace(val)
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// parseBatteryDump parses "adb shell dumpsys battery" into a flat map with
// snake_case keys.
func parseBatteryDump(out string) map[string]string {
	battery := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if key, val, found := strings.Cut(line, ":"); found {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
			battery[key] = strings.TrimSpace(val)
		}
	}
	return battery
}

// parsePackageList parses "adb shell pm list packages" output.
func parsePackageList(out string) []string {
	var apps []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "package:") {
			apps = append(apps, strings.TrimSpace(strings.TrimPrefix(line, "package:")))
		}
	}
	sort.Strings(apps)
	return apps
}

func (s *AndroidSkill) smsSend(args schema.Args) (string, error) {
	phone := args.String("phone", "")
	message := args.String("message", "")

	if s.adbAvailable() {
		out, ok := s.adb(10*time.Second, "shell", "am", "start",
			"-a", "android.intent.action.SENDTO",
			"-d", "sms:"+phone,
			"--es", "sms_body", message)
		result := map[string]interface{}{
			"success": ok,
			"phone":   phone,
			"message": "SMS intent sent",
			"note":    "Opens SMS app with pre-filled message",
		}
		if !ok {
			result["message"] = strings.TrimSpace(out)
		}
		return jsonBlob(result), nil
	}
	return s.bridge("sms_send", map[string]interface{}{"phone": phone, "message": message})
}

func (s *AndroidSkill) smsList(args schema.Args) (string, error) {
	limit := args.Int("limit", 10)
	folder := args.String("folder", "inbox")

	if s.adbAvailable() {
		out, ok := s.adb(30*time.Second, "shell", "content", "query",
			"--uri", "content://sms",
			"--projection", "address:body:date",
			"--limit", fmt.Sprint(limit))
		if ok {
			messages := parseContentRows(out)
			if len(messages) > limit {
				messages = messages[:limit]
			}
			return jsonBlob(map[string]interface{}{
				"success":  true,
				"count":    len(messages),
				"messages": messages,
			}), nil
		}
	}
	return s.bridge("sms_list", map[string]interface{}{"limit": limit, "folder": folder})
}

func (s *AndroidSkill) call(args schema.Args) (string, error) {
	phone := args.String("phone", "")

	if s.adbAvailable() {
		out, ok := s.adb(10*time.Second, "shell", "am", "start",
			"-a", "android.intent.action.CALL", "-d", "tel:"+phone)
		message := "Call initiated"
		if !ok {
			message = strings.TrimSpace(out)
		}
		return jsonBlob(map[string]interface{}{
			"success": ok,
			"phone":   phone,
			"message": message,
		}), nil
	}
	return s.bridge("call", map[string]interface{}{"phone": phone})
}

func (s *AndroidSkill) contacts(args schema.Args) (string, error) {
	search := args.String("search", "")
	limit := args.Int("limit", 20)

	if s.adbAvailable() {
		out, ok := s.adb(30*time.Second, "shell", "content", "query",
			"--uri", "content://contacts/phones",
			"--projection", "display_name:number")
		if ok {
			var contacts []map[string]string
			for _, row := range parseContentRows(out) {
				if _, hasName := row["display_name"]; !hasName {
					continue
				}
				if search != "" && !rowMatches(row, search) {
					continue
				}
				contacts = append(contacts, row)
			}
			if len(contacts) > limit {
				contacts = contacts[:limit]
			}
			return jsonBlob(map[string]interface{}{
				"success":  true,
				"count":    len(contacts),
				"contacts": contacts,
			}), nil
		}
	}
	return s.bridge("contacts", map[string]interface{}{"search": search, "limit": limit})
}

func rowMatches(row map[string]string, search string) bool {
	search = strings.ToLower(search)
	for _, v := range row {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

func (s *AndroidSkill) photo(args schema.Args) (string, error) {
	camera := args.String("camera", "back")

	if s.adbAvailable() {
		out, ok := s.adb(10*time.Second, "shell", "am", "start",
			"-a", "android.media.action.IMAGE_CAPTURE",
			"--ez", "android.intent.extra.USE_FRONT_CAMERA",
			fmt.Sprint(camera == "front"))
		result := map[string]interface{}{
			"success": ok,
			"message": "Camera app opened",
			"note":    "Use the bridge for automated capture",
		}
		if !ok {
			result["message"] = strings.TrimSpace(out)
		}
		return jsonBlob(result), nil
	}
	return s.bridge("photo", map[string]interface{}{"camera": camera})
}

func (s *AndroidSkill) notification(args schema.Args) (string, error) {
	// adb cannot post notifications, this always needs the bridge app.
	return s.bridge("notification", map[string]interface{}{
		"title":    args.String("title", ""),
		"message":  args.String("message", ""),
		"priority": args.String("priority", "default"),
	})
}

func (s *AndroidSkill) appLaunch(args schema.Args) (string, error) {
	pkg := args.String("package", "")

	if s.adbAvailable() {
		out, ok := s.adb(10*time.Second, "shell", "monkey",
			"-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
		message := "App launched"
		if !ok {
			message = strings.TrimSpace(out)
		}
		return jsonBlob(map[string]interface{}{
			"success": ok,
			"package": pkg,
			"message": message,
		}), nil
	}
	return s.bridge("app_launch", map[string]interface{}{"package": pkg})
}

func (s *AndroidSkill) appsList(args schema.Args) (string, error) {
	system := args.Bool("system", false)

	if s.adbAvailable() {
		flag := "-3" // third party only
		if system {
			flag = "-f"
		}
		out, ok := s.adb(30*time.Second, "shell", "pm", "list", "packages", flag)
		if ok {
			apps := parsePackageList(out)
			return jsonBlob(map[string]interface{}{
				"success": true,
				"count":   len(apps),
				"apps":    apps,
			}), nil
		}
	}
	return s.bridge("apps_list", map[string]interface{}{"system": system})
}

func (s *AndroidSkill) location(schema.Args) (string, error) {
	if s.adbAvailable() {
		out, ok := s.adb(30*time.Second, "shell", "dumpsys", "location")
		if ok {
			location := map[string]interface{}{"available": true}
			for _, line := range strings.Split(out, "\n") {
				if strings.Contains(strings.ToLower(line), "last location=") {
					location["raw"] = strings.TrimSpace(line)
					break
				}
			}
			return jsonBlob(location), nil
		}
	}
	return s.bridge("location", map[string]interface{}{})
}

func (s *AndroidSkill) sensors(args schema.Args) (string, error) {
	sensor := args.String("sensor", "all")

	if s.adbAvailable() {
		out, ok := s.adb(30*time.Second, "shell", "dumpsys", "sensorservice")
		if ok {
			count := 0
			for _, line := range strings.Split(out, "\n") {
				if strings.Contains(line, "Sensor") && strings.Contains(line, "=") {
					count++
				}
			}
			return jsonBlob(map[string]interface{}{
				"success":      true,
				"sensor_count": count,
				"raw_output":   truncate(out, 2000),
			}), nil
		}
	}
	return s.bridge("sensors", map[string]interface{}{"sensor": sensor})
}

func (s *AndroidSkill) battery(schema.Args) (string, error) {
	if s.adbAvailable() {
		out, ok := s.adb(10*time.Second, "shell", "dumpsys", "battery")
		if ok {
			battery := parseBatteryDump(out)
			return jsonBlob(map[string]interface{}{
				"success":     true,
				"level":       battery["level"],
				"status":      battery["status"],
				"health":      battery["health"],
				"plugged":     battery["plugged"],
				"temperature": battery["temperature"],
			}), nil
		}
	}
	return s.bridge("battery", map[string]interface{}{})
}

var volumeStreams = map[string]string{
	"media":        "3",
	"ring":         "2",
	"alarm":        "4",
	"notification": "5",
}

func (s *AndroidSkill) volume(args schema.Args) (string, error) {
	stream := args.String("stream", "media")
	streamID, ok := volumeStreams[stream]
	if !ok {
		streamID = "3"
	}

	if s.adbAvailable() {
		if args.Has("level") {
			level := args.Int("level", 0)
			// Android volume is a 0-15 scale.
			adbLevel := level * 15 / 100
			_, ok := s.adb(10*time.Second, "shell", "media", "volume",
				"--stream", streamID, "--set", fmt.Sprint(adbLevel))
			return jsonBlob(map[string]interface{}{
				"success": ok,
				"stream":  stream,
				"level":   level,
			}), nil
		}

		out, ok := s.adb(10*time.Second, "shell", "media", "volume",
			"--stream", streamID, "--get")
		result := map[string]interface{}{"success": ok, "stream": stream}
		if ok {
			result["raw"] = strings.TrimSpace(out)
		}
		return jsonBlob(result), nil
	}
	return s.bridge("volume", map[string]interface{}{
		"stream": stream,
		"level":  args.Int("level", 0),
	})
}

func (s *AndroidSkill) screen(args schema.Args) (string, error) {
	action := args.String("action", "")
	value := args.Int("value", 0)

	if s.adbAvailable() {
		var ok bool
		switch {
		case action == "on":
			_, ok = s.adb(10*time.Second, "shell", "input", "keyevent", "KEYCODE_WAKEUP")
		case action == "off":
			_, ok = s.adb(10*time.Second, "shell", "input", "keyevent", "KEYCODE_SLEEP")
		case action == "brightness" && args.Has("value"):
			_, ok = s.adb(10*time.Second, "shell", "settings", "put",
				"system", "screen_brightness", fmt.Sprint(value))
		default:
			return jsonBlob(map[string]interface{}{
				"success": false,
				"error":   fmt.Sprintf("Unknown action: %s", action),
			}), nil
		}
		return jsonBlob(map[string]interface{}{
			"success": ok,
			"action":  action,
			"value":   value,
		}), nil
	}
	return s.bridge("screen", map[string]interface{}{"action": action, "value": value})
}

func (s *AndroidSkill) clipboard(args schema.Args) (string, error) {
	text := args.String("text", "")

	if s.adbAvailable() {
		if args.Has("text") {
			_, ok := s.adb(10*time.Second, "shell", "am", "broadcast",
				"-a", "clipper.set", "-e", "text", text)
			return jsonBlob(map[string]interface{}{
				"success": ok,
				"action":  "set",
				"note":    "Requires Clipper app for full clipboard access",
			}), nil
		}
		return jsonBlob(map[string]interface{}{
			"success": false,
			"error":   "Getting clipboard requires bridge app",
		}), nil
	}
	return s.bridge("clipboard", map[string]interface{}{"text": text})
}

func (s *AndroidSkill) info(schema.Args) (string, error) {
	if !s.adbAvailable() {
		return jsonBlob(map[string]interface{}{
			"adb_available": false,
			"bridge_url":    s.bridgeURL,
		}), nil
	}

	info := map[string]interface{}{"connected": true}
	props := map[string]string{
		"model":           "ro.product.model",
		"android_version": "ro.build.version.release",
		"device":          "ro.product.device",
	}
	for key, prop := range props {
		if out, ok := s.adb(10*time.Second, "shell", "getprop", prop); ok {
			info[key] = strings.TrimSpace(out)
		}
	}
	if out, ok := s.adb(10*time.Second, "get-serialno"); ok {
		info["serial"] = strings.TrimSpace(out)
	}
	return jsonBlob(info), nil
}

func (s *AndroidSkill) connect(args schema.Args) (string, error) {
	address := args.String("address", "")

	switch method := args.String("method", ""); method {
	case "adb":
		if address == "" {
			out, ok := s.adb(10*time.Second, "devices")
			return jsonBlob(map[string]interface{}{
				"success": ok,
				"method":  "adb",
				"devices": strings.TrimSpace(out),
			}), nil
		}
		out, ok := s.adb(30*time.Second, "connect", address)
		return jsonBlob(map[string]interface{}{
			"success": ok,
			"method":  "adb",
			"address": address,
			"message": strings.TrimSpace(out),
		}), nil

	case "bridge":
		if address != "" {
			if _, err := url.ParseRequestURI(address); err != nil {
				return fmt.Sprintf("Invalid bridge URL: %s", address), nil
			}
			s.bridgeURL = strings.TrimRight(address, "/")
		}
		if s.bridgeURL == "" {
			return jsonBlob(map[string]interface{}{
				"success": false,
				"error":   "No bridge URL configured",
			}), nil
		}
		status, _, err := s.fetcher.Head(s.bridgeURL + "/api/ping")
		return jsonBlob(map[string]interface{}{
			"success":    err == nil && status < 400,
			"method":     "bridge",
			"bridge_url": s.bridgeURL,
		}), nil

	default:
		return fmt.Sprintf("Unknown method: %s (use 'adb' or 'bridge')", method), nil
	}
}
