package skills

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// ImageSkill is the local image toolbox: inspect, resize, crop, rotate,
// convert and filter, all through the imaging library. Type detection reads
// magic bytes, not file extensions.
type ImageSkill struct{}

func NewImageSkill() *ImageSkill { return &ImageSkill{} }

func (s *ImageSkill) Name() string        { return "image" }
func (s *ImageSkill) Description() string { return "Image: info, resize, crop, rotate, convert, filter" }

type imageInfoInput struct {
	FilePath string `json:"file_path" jsonschema:"description=Path to the image file"`
}

type imageResizeInput struct {
	InputPath  string `json:"input_path" jsonschema:"description=Source image path"`
	OutputPath string `json:"output_path" jsonschema:"description=Destination path"`
	Width      int    `json:"width,omitempty" jsonschema:"description=Target width (0 = keep aspect)"`
	Height     int    `json:"height,omitempty" jsonschema:"description=Target height (0 = keep aspect)"`
}

type imageCropInput struct {
	InputPath  string `json:"input_path" jsonschema:"description=Source image path"`
	OutputPath string `json:"output_path" jsonschema:"description=Destination path"`
	Left       int    `json:"left" jsonschema:"description=Left edge in pixels"`
	Top        int    `json:"top" jsonschema:"description=Top edge in pixels"`
	Right      int    `json:"right" jsonschema:"description=Right edge in pixels"`
	Bottom     int    `json:"bottom" jsonschema:"description=Bottom edge in pixels"`
}

type imageRotateInput struct {
	InputPath  string  `json:"input_path" jsonschema:"description=Source image path"`
	OutputPath string  `json:"output_path" jsonschema:"description=Destination path"`
	Angle      float64 `json:"angle" jsonschema:"description=Rotation angle in degrees (counterclockwise)"`
}

type imageConvertInput struct {
	InputPath  string `json:"input_path" jsonschema:"description=Source image path"`
	OutputPath string `json:"output_path" jsonschema:"description=Destination path, format from extension"`
	Quality    int    `json:"quality,omitempty" jsonschema:"description=JPEG quality 1-100 (default: 85)"`
}

type imageFilterInput struct {
	InputPath  string `json:"input_path" jsonschema:"description=Source image path"`
	OutputPath string `json:"output_path" jsonschema:"description=Destination path"`
	Filter     string `json:"filter" jsonschema:"description=Filter: grayscale, blur, sharpen, invert"`
}

type imageThumbnailInput struct {
	InputPath  string `json:"input_path" jsonschema:"description=Source image path"`
	OutputPath string `json:"output_path" jsonschema:"description=Destination path"`
	Size       int    `json:"size,omitempty" jsonschema:"description=Max edge in pixels (default: 128)"`
}

type imageFlipInput struct {
	InputPath  string `json:"input_path" jsonschema:"description=Source image path"`
	OutputPath string `json:"output_path" jsonschema:"description=Destination path"`
	Direction  string `json:"direction" jsonschema:"description='horizontal' or 'vertical'"`
}

func (s *ImageSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("image_info", "Get image dimensions, format and size", imageInfoInput{}, s.infoTool),
		newTool("image_resize", "Resize an image", imageResizeInput{}, s.resize),
		newTool("image_crop", "Crop an image to a rectangle", imageCropInput{}, s.crop),
		newTool("image_rotate", "Rotate an image", imageRotateInput{}, s.rotate),
		newTool("image_convert", "Convert an image between formats", imageConvertInput{}, s.convert),
		newTool("image_filter", "Apply a filter to an image", imageFilterInput{}, s.filter),
		newTool("image_thumbnail", "Create a thumbnail", imageThumbnailInput{}, s.thumbnail),
		newTool("image_flip", "Flip an image horizontally or vertically", imageFlipInput{}, s.flip),
	}
}

func (s *ImageSkill) infoTool(args schema.Args) (string, error) {
	path := expandHome(args.String("file_path", ""))

	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("File not found: %s", path), nil
	}

	head := make([]byte, 261)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	n, _ := f.Read(head)
	f.Close()

	format := "unknown"
	if kind, err := filetype.Match(head[:n]); err == nil && kind != filetype.Unknown {
		format = kind.Extension
	}

	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Sprintf("Error opening image: %v", err), nil
	}
	bounds := img.Bounds()

	return jsonBlob(map[string]interface{}{
		"filename":    filepath.Base(path),
		"format":      format,
		"width":       bounds.Dx(),
		"height":      bounds.Dy(),
		"size_pixels": bounds.Dx() * bounds.Dy(),
		"file_size":   fmt.Sprintf("%.1f KB", float64(stat.Size())/1024),
	}), nil
}

func (s *ImageSkill) resize(args schema.Args) (string, error) {
	width := args.Int("width", 0)
	height := args.Int("height", 0)
	if width == 0 && height == 0 {
		return "Specify width or height", nil
	}

	img, err := imaging.Open(expandHome(args.String("input_path", "")))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	// imaging keeps the aspect ratio when one dimension is zero.
	dst := imaging.Resize(img, width, height, imaging.Lanczos)
	output := expandHome(args.String("output_path", ""))
	if err := imaging.Save(dst, output); err != nil {
		return fmt.Sprintf("Error saving: %v", err), nil
	}
	b := dst.Bounds()
	return fmt.Sprintf("Resized to %dx%d, saved to %s", b.Dx(), b.Dy(), output), nil
}

func (s *ImageSkill) crop(args schema.Args) (string, error) {
	img, err := imaging.Open(expandHome(args.String("input_path", "")))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	left := args.Int("left", 0)
	top := args.Int("top", 0)
	right := args.Int("right", 0)
	bottom := args.Int("bottom", 0)
	if right <= left || bottom <= top {
		return "Invalid crop rectangle", nil
	}

	dst := imaging.Crop(img, image.Rect(left, top, right, bottom))
	output := expandHome(args.String("output_path", ""))
	if err := imaging.Save(dst, output); err != nil {
		return fmt.Sprintf("Error saving: %v", err), nil
	}
	return fmt.Sprintf("Cropped to %dx%d, saved to %s", right-left, bottom-top, output), nil
}

func (s *ImageSkill) rotate(args schema.Args) (string, error) {
	img, err := imaging.Open(expandHome(args.String("input_path", "")))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	angle := args.Float("angle", 0)
	dst := imaging.Rotate(img, angle, color.Transparent)
	output := expandHome(args.String("output_path", ""))
	if err := imaging.Save(dst, output); err != nil {
		return fmt.Sprintf("Error saving: %v", err), nil
	}
	return fmt.Sprintf("Rotated %g degrees, saved to %s", angle, output), nil
}

func (s *ImageSkill) convert(args schema.Args) (string, error) {
	img, err := imaging.Open(expandHome(args.String("input_path", "")))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	output := expandHome(args.String("output_path", ""))
	ext := strings.ToLower(filepath.Ext(output))

	var opts []imaging.EncodeOption
	if ext == ".jpg" || ext == ".jpeg" {
		opts = append(opts, imaging.JPEGQuality(args.Int("quality", 85)))
	}
	if err := imaging.Save(img, output, opts...); err != nil {
		return fmt.Sprintf("Error saving: %v", err), nil
	}
	return fmt.Sprintf("Converted to %s, saved to %s", ext, output), nil
}

func (s *ImageSkill) filter(args schema.Args) (string, error) {
	img, err := imaging.Open(expandHome(args.String("input_path", "")))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	var dst = img
	switch name := strings.ToLower(args.String("filter", "")); name {
	case "grayscale":
		dst = imaging.Grayscale(img)
	case "blur":
		dst = imaging.Blur(img, 3.0)
	case "sharpen":
		dst = imaging.Sharpen(img, 1.5)
	case "invert":
		dst = imaging.Invert(img)
	default:
		return fmt.Sprintf("Unknown filter: %s. Available: grayscale, blur, sharpen, invert", name), nil
	}

	output := expandHome(args.String("output_path", ""))
	if err := imaging.Save(dst, output); err != nil {
		return fmt.Sprintf("Error saving: %v", err), nil
	}
	return fmt.Sprintf("Applied %s filter, saved to %s", strings.ToLower(args.String("filter", "")), output), nil
}

func (s *ImageSkill) thumbnail(args schema.Args) (string, error) {
	img, err := imaging.Open(expandHome(args.String("input_path", "")))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	size := args.Int("size", 128)
	if size <= 0 {
		size = 128
	}
	dst := imaging.Fit(img, size, size, imaging.Lanczos)
	output := expandHome(args.String("output_path", ""))
	if err := imaging.Save(dst, output); err != nil {
		return fmt.Sprintf("Error saving: %v", err), nil
	}
	b := dst.Bounds()
	return fmt.Sprintf("Thumbnail %dx%d saved to %s", b.Dx(), b.Dy(), output), nil
}

func (s *ImageSkill) flip(args schema.Args) (string, error) {
	img, err := imaging.Open(expandHome(args.String("input_path", "")))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	direction := strings.ToLower(args.String("direction", ""))
	var dst = img
	switch direction {
	case "horizontal":
		dst = imaging.FlipH(img)
	case "vertical":
		dst = imaging.FlipV(img)
	default:
		return fmt.Sprintf("Unknown direction: %s. Use: horizontal, vertical", direction), nil
	}

	output := expandHome(args.String("output_path", ""))
	if err := imaging.Save(dst, output); err != nil {
		return fmt.Sprintf("Error saving: %v", err), nil
	}
	return fmt.Sprintf("Flipped %s, saved to %s", direction, output), nil
}
