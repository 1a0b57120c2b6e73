package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"

	"skillbox/internal/domain"
	"skillbox/internal/runner"
	"skillbox/internal/schema"
)

// QRSkill generates QR codes as PNG files or terminal ASCII art, and decodes
// images with the zbarimg tool when it is installed.
type QRSkill struct {
	run    runner.Runner
	finder runner.BinaryFinder
}

func NewQRSkill(run runner.Runner, finder runner.BinaryFinder) *QRSkill {
	return &QRSkill{run: run, finder: finder}
}

func (s *QRSkill) Name() string        { return "qr" }
func (s *QRSkill) Description() string { return "QR: generate and read QR codes" }

type qrGenerateInput struct {
	Data   string `json:"data" jsonschema:"description=Data to encode (URL, text, etc.)"`
	Output string `json:"output" jsonschema:"description=Output file path (PNG)"`
}

type qrReadInput struct {
	ImagePath string `json:"image_path" jsonschema:"description=Path to the image file"`
}

type qrTextInput struct {
	Data string `json:"data" jsonschema:"description=Data to encode"`
}

func (s *QRSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("qr_generate", "Generate a QR code image", qrGenerateInput{}, s.generate),
		newTool("qr_read", "Read a QR code from an image", qrReadInput{}, s.read),
		newTool("qr_text", "Render a QR code as terminal ASCII art", qrTextInput{}, s.text),
	}
}

func (s *QRSkill) generate(args schema.Args) (string, error) {
	data := args.String("data", "")
	output := expandHome(args.String("output", ""))

	code, err := qr.Encode(data, qr.H)
	if err != nil {
		return fmt.Sprintf("Error encoding QR code: %v", err), nil
	}
	if err := os.WriteFile(output, code.PNG(), 0o644); err != nil {
		return fmt.Sprintf("Error writing file: %v", err), nil
	}
	return fmt.Sprintf("QR code saved to %s", output), nil
}

func (s *QRSkill) read(args schema.Args) (string, error) {
	path := expandHome(args.String("image_path", ""))
	if _, err := os.Stat(path); err != nil {
		return fmt.Sprintf("File not found: %s", path), nil
	}
	if s.finder != nil {
		if _, err := s.finder.LookPath("zbarimg"); err != nil {
			return "Error: zbarimg not found. Install the zbar-tools package.", nil
		}
	}

	stdout, stderr, err := s.run.Run(30*time.Second, "zbarimg", "--raw", "-q", path)
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Sprintf("Error reading QR code: %s", msg), nil
	}

	decoded := strings.TrimSpace(stdout)
	if decoded == "" {
		return "No QR code found in image", nil
	}

	var results []map[string]string
	for _, line := range strings.Split(decoded, "\n") {
		results = append(results, map[string]string{"type": "QRCODE", "data": line})
	}
	return jsonBlob(results), nil
}

func (s *QRSkill) text(args schema.Args) (string, error) {
	var buf strings.Builder
	qrterminal.GenerateWithConfig(args.String("data", ""), qrterminal.Config{
		Level:     qrterminal.L,
		Writer:    &buf,
		BlackChar: qrterminal.BLACK,
		WhiteChar: qrterminal.WHITE,
		QuietZone: 1,
	})
	return buf.String(), nil
}

// expandHome resolves a leading "~" against the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
